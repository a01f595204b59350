package httpapi

import (
	"net/http"
	"strings"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AlertHandler struct {
	Manager *usecase.AlertManager
	Logger  *zap.Logger
}

func (h *AlertHandler) Register(r *gin.Engine) {
	group := r.Group("/api/alerts")
	group.GET("", h.list)
	group.GET("/stats", h.stats)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PATCH("/:id", h.update)
	group.DELETE("/:id", h.delete)
	group.POST("/:id/toggle", h.toggle)
	group.POST("/:id/dismiss", h.dismiss)
}

type createAlertRequest struct {
	CoinID              string           `json:"coinId"`
	CoinSymbol          string           `json:"coinSymbol"`
	CoinName            string           `json:"coinName"`
	Condition           string           `json:"condition"`
	TargetPrice         *decimal.Decimal `json:"targetPrice"`
	ChangePercentage    *decimal.Decimal `json:"changePercentage"`
	CurrentPrice        *decimal.Decimal `json:"currentPrice"`
	NotificationMethods []string         `json:"notificationMethods"`
	Note                string           `json:"note"`
}

type updateAlertRequest struct {
	CoinID              *string          `json:"coinId"`
	CoinSymbol          *string          `json:"coinSymbol"`
	CoinName            *string          `json:"coinName"`
	Condition           *string          `json:"condition"`
	TargetPrice         *decimal.Decimal `json:"targetPrice"`
	ChangePercentage    *decimal.Decimal `json:"changePercentage"`
	CurrentPrice        *decimal.Decimal `json:"currentPrice"`
	NotificationMethods *[]string        `json:"notificationMethods"`
	Note                *string          `json:"note"`
	IsActive            *bool            `json:"isActive"`
}

func (h *AlertHandler) list(c *gin.Context) {
	status, err := domain.ParseStatus(c.Query("status"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	sortBy, err := usecase.ParseSortKey(c.Query("sort"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	alerts, err := h.Manager.SortAndFilter(c.Request.Context(), usecase.Query{
		Status: status,
		CoinID: strings.TrimSpace(c.Query("coin")),
		Search: c.Query("q"),
		SortBy: sortBy,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, alerts, map[string]any{"count": len(alerts), "status": status, "sort": sortBy})
}

func (h *AlertHandler) stats(c *gin.Context) {
	stats, err := h.Manager.Stats(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, stats, nil)
}

func (h *AlertHandler) create(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	kind, err := domain.ParseConditionKind(req.Condition)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	alert, err := h.Manager.Create(c.Request.Context(), usecase.CreateAlertInput{
		CoinID:           req.CoinID,
		CoinSymbol:       req.CoinSymbol,
		CoinName:         req.CoinName,
		Condition:        kind,
		TargetPrice:      req.TargetPrice,
		ChangePercentage: req.ChangePercentage,
		CurrentPrice:     req.CurrentPrice,
		Channels:         toChannels(req.NotificationMethods),
		Note:             req.Note,
	})
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Created(c, alert)
}

func (h *AlertHandler) get(c *gin.Context) {
	alert, err := h.Manager.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, alert, nil)
}

func (h *AlertHandler) update(c *gin.Context) {
	var req updateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	patch := usecase.AlertPatch{
		CoinID:           req.CoinID,
		CoinSymbol:       req.CoinSymbol,
		CoinName:         req.CoinName,
		TargetPrice:      req.TargetPrice,
		ChangePercentage: req.ChangePercentage,
		CurrentPrice:     req.CurrentPrice,
		Note:             req.Note,
		Active:           req.IsActive,
	}
	if req.Condition != nil {
		kind, err := domain.ParseConditionKind(*req.Condition)
		if err != nil {
			fail(c, h.Logger, err)
			return
		}
		patch.Condition = &kind
	}
	if req.NotificationMethods != nil {
		channels := toChannels(*req.NotificationMethods)
		patch.Channels = &channels
	}

	alert, err := h.Manager.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, alert, nil)
}

func (h *AlertHandler) delete(c *gin.Context) {
	if err := h.Manager.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"id": c.Param("id")}, nil)
}

func (h *AlertHandler) toggle(c *gin.Context) {
	alert, err := h.Manager.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, alert, nil)
}

func (h *AlertHandler) dismiss(c *gin.Context) {
	alert, err := h.Manager.Dismiss(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	Ok(c, alert, nil)
}

func toChannels(methods []string) []domain.Channel {
	channels := make([]domain.Channel, 0, len(methods))
	for _, method := range methods {
		channels = append(channels, domain.Channel(method))
	}
	return channels
}
