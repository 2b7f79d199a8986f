package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thekim123/sns-maker-hub/internal/services"
)

type StatusHandler struct {
	service services.StatusService
}

func NewStatusHandler(service services.StatusService) *StatusHandler {
	return &StatusHandler{service: service}
}

func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStatus отдаёт сводку для дашборда одним снимком: счётчики и
// последние задачи/посты.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		zap.S().Errorf("[status][overview] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, overview)
}
