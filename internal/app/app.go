package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NasaVasa/coinalert/internal/config"
	"github.com/NasaVasa/coinalert/internal/delivery/httpapi"
	"github.com/NasaVasa/coinalert/internal/delivery/telegram"
	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/coingecko"
	"github.com/NasaVasa/coinalert/internal/infra/cronrunner"
	"github.com/NasaVasa/coinalert/internal/infra/db"
	"github.com/NasaVasa/coinalert/internal/infra/kafka"
	"github.com/NasaVasa/coinalert/internal/infra/log"
	"github.com/NasaVasa/coinalert/internal/infra/memory"
	"github.com/NasaVasa/coinalert/internal/infra/notify"
	"github.com/NasaVasa/coinalert/internal/infra/tracing"
	"github.com/NasaVasa/coinalert/internal/usecase"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	cfg    config.Config
	logger *zap.Logger

	manager  *usecase.AlertManager
	watcher  *usecase.PriceWatcher
	hub      *notify.Hub
	server   *httpapi.Server
	bot      *telegram.Bot
	cron     *cronrunner.Runner
	consumer *kafka.PriceConsumer

	cleanups []func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: logger}

	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, cfg.ServiceName, logger)
	if err != nil {
		return nil, err
	}
	a.cleanups = append(a.cleanups, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return shutdownTracing(ctx)
	})

	repo, dbConn, err := a.openRepository()
	if err != nil {
		a.close()
		return nil, err
	}

	prefs, err := cfg.NotificationPreferences()
	if err != nil {
		a.close()
		return nil, err
	}
	store := usecase.NewAlertStore(repo, nil)
	a.manager = usecase.NewAlertManager(store, usecase.NewDispatcher(prefs), nil, logger)

	router := notify.NewRouter(logger.Named("notify"))
	a.hub = notify.NewHub(logger.Named("push"))
	router.Route(domain.ChannelPush, a.hub)

	webhookClient := &http.Client{Timeout: cfg.DeliveryTimeout}
	if cfg.EmailWebhookURL != "" {
		router.Route(domain.ChannelEmail, notify.NewWebhookSender("email_webhook", cfg.EmailWebhookURL, webhookClient))
	}
	if cfg.SMSWebhookURL != "" {
		router.Route(domain.ChannelSMS, notify.NewWebhookSender("sms_webhook", cfg.SMSWebhookURL, webhookClient))
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.cleanups = append(a.cleanups, client.Close)
		publisher := notify.NewRedisPublisher(client, cfg.RedisChannel)
		for _, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelPush, domain.ChannelSMS} {
			router.Route(ch, publisher)
		}
	}

	var market domain.MarketClient
	if cfg.FeedSource == config.FeedCoinGecko {
		market = coingecko.NewClient(cfg.CoinGeckoBaseURL, cfg.CoinGeckoVsCurrency, cfg.CoinGeckoTimeout, logger.Named("coingecko"))
	}
	a.watcher = usecase.NewPriceWatcher(a.manager, market, router, usecase.WatcherConfig{
		Workers:         cfg.DeliveryWorkers,
		QueueSize:       cfg.DeliveryQueueSize,
		DeliveryTimeout: cfg.DeliveryTimeout,
	}, logger.Named("watcher"))

	if cfg.TelegramBotToken != "" {
		api, err := telegram.NewAPI(cfg.TelegramBotToken)
		if err != nil {
			a.close()
			return nil, err
		}
		if cfg.TelegramChatID != 0 {
			router.Route(domain.ChannelPush, notify.NewTelegramSender(api, cfg.TelegramChatID))
		}
		handlers := telegram.NewHandlers(a.manager, a.watcher, cfg.TelegramChatID, logger.Named("telegram"))
		a.bot = telegram.NewBot(api, handlers, cfg.TelegramPollTimeout, logger.Named("telegram"))
	}

	switch cfg.FeedSource {
	case config.FeedCoinGecko:
		a.cron = cronrunner.New(ctx, cfg.CoinGeckoTimeout*2, logger.Named("cron"))
		if _, err := a.cron.Add(cfg.PollSchedule, func(ctx context.Context) {
			if err := a.watcher.Poll(ctx); err != nil {
				logger.Warn("price poll failed", zap.Error(err))
			}
		}); err != nil {
			a.close()
			return nil, err
		}
	case config.FeedKafka:
		a.consumer, err = kafka.NewPriceConsumer(kafka.ReaderConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, func(ctx context.Context, tick domain.PriceTick) error {
			_, err := a.watcher.Ingest(ctx, "kafka", tick)
			return err
		}, logger.Named("kafka"))
		if err != nil {
			a.close()
			return nil, err
		}
	}

	engine := httpapi.NewEngine(cfg.GinMode, logger.Named("http"),
		&httpapi.HealthHandler{DB: dbConn},
		&httpapi.AlertHandler{Manager: a.manager, Logger: logger.Named("alerts")},
		&httpapi.PriceHandler{Watcher: a.watcher, Logger: logger.Named("prices")},
		&httpapi.PushHandler{Hub: a.hub},
	)
	a.server = httpapi.NewServer(cfg.HTTPAddr, engine, logger.Named("http"))

	logger.Info("coinalert configured",
		zap.String("store", cfg.StoreBackend),
		zap.String("feed", cfg.FeedSource),
		zap.Bool("telegram", a.bot != nil),
		zap.Any("channels", router.Channels()),
		zap.Bool("price_alert_notifications", prefs.PriceAlerts),
		zap.Any("allowed_channels", prefs.Channels),
	)
	return a, nil
}

func (a *App) openRepository() (domain.AlertRepository, *gorm.DB, error) {
	if a.cfg.StoreBackend != config.StorePostgres {
		return memory.NewAlertRepository(), nil, nil
	}
	dbConn, err := db.Open(a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}
	a.cleanups = append(a.cleanups, func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return db.NewAlertRepository(dbConn), dbConn, nil
}

// Run starts every component and blocks until ctx is done or the feed or bot fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("coinalert service starting")
	a.watcher.Start(ctx)
	a.server.Start()

	errs := make(chan error, 2)
	if a.cron != nil {
		a.cron.Start()
	}
	if a.consumer != nil {
		go func() { errs <- a.consumer.Run(ctx) }()
	}
	if a.bot != nil {
		go func() { errs <- a.bot.Start(ctx) }()
	}

	a.logger.Info("coinalert service started", zap.String("addr", a.cfg.HTTPAddr))
	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		if err == nil || errors.Is(err, context.Canceled) {
			<-ctx.Done()
			return nil
		}
		return err
	}
}

// Shutdown stops intake first, then drains the delivery queue, then closes backends.
func (a *App) Shutdown() {
	a.logger.Info("coinalert service shutting down")
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Warn("failed to close kafka consumer", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to stop http server", zap.Error(err))
		}
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	a.close()
	_ = a.logger.Sync()
}

func (a *App) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			a.logger.Warn("cleanup failed", zap.Error(err))
		}
	}
	a.cleanups = nil
}
