package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/metrics"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TickHandler receives every decoded price tick.
type TickHandler func(ctx context.Context, tick domain.PriceTick) error

type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// PriceConsumer reads price ticks published by other services.
type PriceConsumer struct {
	reader *kafka.Reader
	handle TickHandler
	logger *zap.Logger
}

func NewPriceConsumer(cfg ReaderConfig, handle TickHandler, logger *zap.Logger) (*PriceConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	return &PriceConsumer{reader: reader, handle: handle, logger: logger}, nil
}

// Run consumes until ctx is cancelled. Malformed messages and rejected ticks
// are logged and committed so they are not redelivered.
func (c *PriceConsumer) Run(ctx context.Context) error {
	c.logger.Info("price consumer started", zap.String("topic", c.reader.Config().Topic))
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			metrics.FeedErrorsTotal.WithLabelValues("kafka").Inc()
			return fmt.Errorf("fetch price message: %w", err)
		}

		tick, err := DecodeTick(msg.Value)
		if err != nil {
			metrics.FeedErrorsTotal.WithLabelValues("kafka").Inc()
			c.logger.Warn("malformed price message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		} else if err := c.handle(ctx, tick); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("price tick rejected", zap.String("coin_id", tick.CoinID), zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn("commit price message failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (c *PriceConsumer) Close() error {
	return c.reader.Close()
}

type tickMessage struct {
	CoinID              string           `json:"coinId"`
	Price               *decimal.Decimal `json:"price"`
	ChangePercentage24h *decimal.Decimal `json:"changePercentage24h"`
	Timestamp           *time.Time       `json:"timestamp"`
}

// DecodeTick parses {"coinId","price","changePercentage24h","timestamp"}.
// Prices may be JSON numbers or quoted decimals.
func DecodeTick(data []byte) (domain.PriceTick, error) {
	var msg tickMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.PriceTick{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	coinID := strings.ToLower(strings.TrimSpace(msg.CoinID))
	if coinID == "" {
		return domain.PriceTick{}, fmt.Errorf("%w: message has no coinId", domain.ErrInvalidInput)
	}
	if msg.Price == nil {
		return domain.PriceTick{}, fmt.Errorf("%w: message for %s has no price", domain.ErrInvalidInput, coinID)
	}
	tick := domain.PriceTick{
		CoinID:       coinID,
		Price:        *msg.Price,
		ChangePct24h: msg.ChangePercentage24h,
	}
	if msg.Timestamp != nil {
		tick.ObservedAt = msg.Timestamp.UTC()
	}
	return tick, nil
}
