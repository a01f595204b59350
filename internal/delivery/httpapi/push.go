package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PushHandler exposes the websocket notification stream.
type PushHandler struct {
	Hub http.Handler
}

func (h *PushHandler) Register(r *gin.Engine) {
	r.GET("/ws/notifications", gin.WrapH(h.Hub))
}
