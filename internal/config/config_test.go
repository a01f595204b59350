package config

import (
	"context"
	"testing"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != StoreMemory || cfg.FeedSource != FeedCoinGecko {
		t.Errorf("unexpected backends %q %q", cfg.StoreBackend, cfg.FeedSource)
	}
	if cfg.HTTPAddr != ":8080" || cfg.PollSchedule != "@every 30s" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.DeliveryTimeout != 10*time.Second || cfg.DeliveryQueueSize != 256 {
		t.Errorf("unexpected delivery defaults %+v", cfg)
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_BACKEND":    "Postgres",
		"DB_HOST":          "db",
		"DB_USER":          "alerts",
		"DB_NAME":          "alerts",
		"FEED_SOURCE":      "kafka",
		"KAFKA_BROKERS":    "k1:9092,k2:9092",
		"TELEGRAM_CHAT_ID": "-1001",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != StorePostgres {
		t.Errorf("expected postgres, got %q", cfg.StoreBackend)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.TelegramChatID != -1001 {
		t.Errorf("unexpected chat id %d", cfg.TelegramChatID)
	}
	want := "host=db user=alerts password= dbname=alerts port=5432 sslmode=disable TimeZone=UTC"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without host", map[string]string{"STORE_BACKEND": "postgres"}},
		{"unknown store", map[string]string{"STORE_BACKEND": "mongo"}},
		{"kafka without brokers", map[string]string{"FEED_SOURCE": "kafka"}},
		{"unknown feed", map[string]string{"FEED_SOURCE": "carrier-pigeon"}},
		{"no workers", map[string]string{"DELIVERY_WORKERS": "0"}},
		{"unknown notify channel", map[string]string{"NOTIFY_CHANNELS": "push,fax"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfig_NotificationPreferences(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		priceAlerts bool
		channels    []domain.Channel
	}{
		{"defaults", map[string]string{}, true, domain.AllChannels()},
		{"subset", map[string]string{"NOTIFY_CHANNELS": "sms,push"}, true, []domain.Channel{domain.ChannelPush, domain.ChannelSMS}},
		{"disabled", map[string]string{"NOTIFY_PRICE_ALERTS": "false"}, false, domain.AllChannels()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			prefs, err := cfg.NotificationPreferences()
			if err != nil {
				t.Fatalf("preferences: %v", err)
			}
			if prefs.PriceAlerts != tt.priceAlerts {
				t.Errorf("price alerts = %v, want %v", prefs.PriceAlerts, tt.priceAlerts)
			}
			if len(prefs.Channels) != len(tt.channels) {
				t.Fatalf("channels = %v, want %v", prefs.Channels, tt.channels)
			}
			for i := range tt.channels {
				if prefs.Channels[i] != tt.channels[i] {
					t.Errorf("channels = %v, want %v", prefs.Channels, tt.channels)
				}
			}
		})
	}
}
