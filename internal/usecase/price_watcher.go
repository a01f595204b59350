package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/metrics"
	"go.uber.org/zap"
)

type WatcherConfig struct {
	Workers         int
	QueueSize       int
	DeliveryTimeout time.Duration
}

// PriceWatcher feeds price ticks into the AlertManager and hands the resulting
// intents to a Notifier in the background. Callers never wait on delivery.
type PriceWatcher struct {
	manager  *AlertManager
	market   domain.MarketClient
	notifier domain.Notifier
	cfg      WatcherConfig
	now      Clock
	logger   *zap.Logger

	mu      sync.RWMutex
	queue   chan domain.NotificationIntent
	stopped bool
	wg      sync.WaitGroup
}

// NewPriceWatcher accepts a nil market client when ticks only arrive through Ingest.
func NewPriceWatcher(manager *AlertManager, market domain.MarketClient, notifier domain.Notifier, cfg WatcherConfig, logger *zap.Logger) *PriceWatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}
	return &PriceWatcher{
		manager:  manager,
		market:   market,
		notifier: notifier,
		cfg:      cfg,
		now:      systemClock,
		logger:   logger,
		queue:    make(chan domain.NotificationIntent, cfg.QueueSize),
	}
}

// Start launches the delivery workers. They stop after Stop drains the queue.
func (w *PriceWatcher) Start(ctx context.Context) {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.deliverLoop(ctx)
		}()
	}
	w.logger.Info("price watcher started", zap.Int("workers", w.cfg.Workers), zap.Int("queue_size", w.cfg.QueueSize))
}

func (w *PriceWatcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("price watcher stopped")
}

// Ingest processes one tick from the given source and queues its intents.
func (w *PriceWatcher) Ingest(ctx context.Context, source string, tick domain.PriceTick) (PriceUpdateResult, error) {
	if tick.ObservedAt.IsZero() {
		tick.ObservedAt = w.now()
	}
	result, err := w.manager.ProcessPriceUpdate(ctx, tick)
	if err != nil {
		metrics.PriceTicksTotal.WithLabelValues(source, "rejected").Inc()
		return result, err
	}
	metrics.PriceTicksTotal.WithLabelValues(source, "ok").Inc()
	for _, intent := range result.Intents {
		w.enqueue(intent)
	}
	return result, nil
}

// Poll fetches current market data for every coin with an active alert and
// ingests it. A bad row is logged and skipped; only fetch failures are returned.
func (w *PriceWatcher) Poll(ctx context.Context) error {
	if w.market == nil {
		return nil
	}
	start := time.Now()
	defer func() { metrics.FeedPollDuration.Observe(time.Since(start).Seconds()) }()

	coinIDs, err := w.manager.WatchedCoins(ctx)
	if err != nil {
		return err
	}
	if len(coinIDs) == 0 {
		w.logger.Debug("poll skipped, no active alerts")
		return nil
	}

	markets, err := w.market.Markets(ctx, coinIDs)
	if err != nil {
		metrics.FeedErrorsTotal.WithLabelValues("poll").Inc()
		return err
	}

	fired := 0
	observedAt := w.now()
	for _, market := range markets {
		tick, ok := market.Tick(observedAt)
		if !ok {
			w.logger.Warn("market row without price", zap.String("coin_id", market.ID))
			continue
		}
		result, err := w.Ingest(ctx, "poll", tick)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Warn("price update rejected", zap.String("coin_id", tick.CoinID), zap.Error(err))
			continue
		}
		fired += len(result.Fired)
	}

	w.logger.Info("poll complete",
		zap.Int("coins", len(coinIDs)),
		zap.Int("markets", len(markets)),
		zap.Int("fired", fired),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (w *PriceWatcher) enqueue(intent domain.NotificationIntent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		metrics.NotificationsTotal.WithLabelValues(string(intent.Channel), "dropped").Inc()
		w.logger.Warn("intent dropped, watcher stopped", zap.String("alert_id", intent.AlertID))
		return
	}
	// Counted before the send so a worker's Dec never runs first.
	metrics.DeliveryQueueSize.Inc()
	select {
	case w.queue <- intent:
	default:
		metrics.DeliveryQueueSize.Dec()
		metrics.NotificationsTotal.WithLabelValues(string(intent.Channel), "dropped").Inc()
		w.logger.Warn("intent dropped, delivery queue full",
			zap.String("alert_id", intent.AlertID),
			zap.String("channel", string(intent.Channel)),
		)
	}
}

func (w *PriceWatcher) deliverLoop(ctx context.Context) {
	for intent := range w.queue {
		metrics.DeliveryQueueSize.Dec()
		if w.notifier == nil {
			continue
		}
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.DeliveryTimeout)
		err := w.notifier.Deliver(deliverCtx, intent)
		cancel()
		if err != nil {
			w.logger.Warn("notification delivery failed",
				zap.String("alert_id", intent.AlertID),
				zap.String("channel", string(intent.Channel)),
				zap.Error(err),
			)
		}
	}
}
