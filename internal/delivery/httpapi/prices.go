package httpapi

import (
	"net/http"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceHandler accepts price ticks pushed by external feeds.
type PriceHandler struct {
	Watcher *usecase.PriceWatcher
	Logger  *zap.Logger
}

func (h *PriceHandler) Register(r *gin.Engine) {
	r.POST("/api/prices", h.ingest)
}

type priceRequest struct {
	CoinID              string           `json:"coinId"`
	Price               *decimal.Decimal `json:"price"`
	ChangePercentage24h *decimal.Decimal `json:"changePercentage24h"`
	Timestamp           *time.Time       `json:"timestamp"`
}

func (h *PriceHandler) ingest(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Price == nil {
		Error(c, http.StatusBadRequest, "price required", nil)
		return
	}
	tick := domain.PriceTick{
		CoinID:       req.CoinID,
		Price:        *req.Price,
		ChangePct24h: req.ChangePercentage24h,
	}
	if req.Timestamp != nil {
		tick.ObservedAt = req.Timestamp.UTC()
	}

	result, err := h.Watcher.Ingest(c.Request.Context(), "api", tick)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, result, map[string]any{"fired": len(result.Fired)})
}
