package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"go.uber.org/zap"
)

// Client reads spot prices from the CoinGecko markets endpoint.
type Client struct {
	baseURL    string
	vsCurrency string
	client     *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, vsCurrency string, timeout time.Duration, logger *zap.Logger) *Client {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		vsCurrency: strings.ToLower(vsCurrency),
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Markets(ctx context.Context, coinIDs []string) ([]domain.CoinMarket, error) {
	if len(coinIDs) == 0 {
		return []domain.CoinMarket{}, nil
	}

	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("ids", strings.Join(coinIDs, ","))
	endpoint := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, query.Encode())
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.Debug("coingecko request start", zap.Int("coins", len(coinIDs)), zap.String("url", endpoint))
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Error("coingecko request failed", zap.String("url", endpoint), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug(
		"coingecko request complete",
		zap.String("url", endpoint),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("coingecko error: status %d", response.StatusCode)
	}

	var rows []marketRow
	if err := json.NewDecoder(response.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("coingecko decode: %w", err)
	}

	markets := make([]domain.CoinMarket, 0, len(rows))
	for _, row := range rows {
		market := domain.CoinMarket{
			ID:                       row.ID,
			Symbol:                   strings.ToUpper(row.Symbol),
			Name:                     row.Name,
			CurrentPrice:             row.CurrentPrice.Ptr(),
			PriceChangePercentage24h: row.PriceChangePercentage24h.Ptr(),
		}
		if row.LastUpdated != nil {
			market.LastUpdated = row.LastUpdated.UTC()
		}
		markets = append(markets, market)
	}
	return markets, nil
}
