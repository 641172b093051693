package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/workers"
)

type SyncQueue interface {
	Enqueue(trigger string) bool
	Status() workers.SyncStatus
}

type SyncHandler struct {
	queue SyncQueue
}

func NewSyncHandler(queue SyncQueue) *SyncHandler {
	return &SyncHandler{queue: queue}
}

func (h *SyncHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sync", h.Trigger)
	r.GET("/sync/status", h.Status)
}

func (h *SyncHandler) Trigger(c *gin.Context) {
	if !h.queue.Enqueue("api") {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "sync already pending",
			"message": "a run is queued, retry once it completes",
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Status())
}
