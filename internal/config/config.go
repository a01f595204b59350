package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	FeedCoinGecko = "coingecko"
	FeedKafka     = "kafka"
	FeedNone      = "none"
)

type Config struct {
	StoreBackend string `env:"STORE_BACKEND,default=memory"`

	DBHost            string        `env:"DB_HOST"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`
	GinMode  string `env:"GIN_MODE,default=release"`

	FeedSource          string        `env:"FEED_SOURCE,default=coingecko"`
	CoinGeckoBaseURL    string        `env:"COINGECKO_BASE_URL,default=https://api.coingecko.com/api/v3"`
	CoinGeckoTimeout    time.Duration `env:"COINGECKO_TIMEOUT,default=10s"`
	CoinGeckoVsCurrency string        `env:"COINGECKO_VS_CURRENCY,default=usd"`
	PollSchedule        string        `env:"POLL_SCHEDULE,default=@every 30s"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC,default=price-ticks"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID,default=coinalert"`

	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID      int64  `env:"TELEGRAM_CHAT_ID"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`

	EmailWebhookURL string `env:"EMAIL_WEBHOOK_URL"`
	SMSWebhookURL   string `env:"SMS_WEBHOOK_URL"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisChannel    string `env:"REDIS_CHANNEL,default=coinalert:notifications"`

	// NOTIFY_CHANNELS empty allows every channel.
	NotifyPriceAlerts bool     `env:"NOTIFY_PRICE_ALERTS,default=true"`
	NotifyChannels    []string `env:"NOTIFY_CHANNELS"`

	DeliveryWorkers   int           `env:"DELIVERY_WORKERS,default=4"`
	DeliveryQueueSize int           `env:"DELIVERY_QUEUE_SIZE,default=256"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT,default=10s"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME,default=coinalert"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	LogFormat    string `env:"LOG_FORMAT,default=json"`
}

func Load(ctx context.Context) (Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper, e.g. envconfig.MapLookuper in tests.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.FeedSource = strings.ToLower(strings.TrimSpace(cfg.FeedSource))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("config: DB_HOST, DB_USER and DB_NAME are required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.FeedSource {
	case FeedCoinGecko:
		if c.CoinGeckoBaseURL == "" || c.PollSchedule == "" {
			return fmt.Errorf("config: COINGECKO_BASE_URL and POLL_SCHEDULE are required for the coingecko feed")
		}
	case FeedKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("config: KAFKA_BROKERS and KAFKA_TOPIC are required for the kafka feed")
		}
	case FeedNone:
	default:
		return fmt.Errorf("config: unknown FEED_SOURCE %q", c.FeedSource)
	}

	if _, err := c.NotificationPreferences(); err != nil {
		return fmt.Errorf("config: NOTIFY_CHANNELS: %w", err)
	}

	if c.DeliveryWorkers <= 0 || c.DeliveryQueueSize <= 0 {
		return fmt.Errorf("config: DELIVERY_WORKERS and DELIVERY_QUEUE_SIZE must be positive")
	}
	return nil
}

// PostgresDSN builds the libpq style connection string for the gorm postgres driver.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.DBHost,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBPort,
		c.DBSSLMode,
	)
}

// NotificationPreferences builds the delivery gate for fired price alerts.
func (c Config) NotificationPreferences() (domain.NotificationPreferences, error) {
	prefs := domain.NotificationPreferences{PriceAlerts: c.NotifyPriceAlerts, Channels: domain.AllChannels()}
	if len(c.NotifyChannels) == 0 {
		return prefs, nil
	}
	channels, err := domain.ParseChannelList(strings.Join(c.NotifyChannels, ","))
	if err != nil {
		return domain.NotificationPreferences{}, err
	}
	prefs.Channels = channels
	return prefs, nil
}
