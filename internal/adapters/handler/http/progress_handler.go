package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/duo-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/duo-sync-engine/internal/core/services"
)

const pathDateLayout = "2006-01-02"

type ProgressHandler struct {
	svc *services.ProgressService
}

func NewProgressHandler(svc *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

func (h *ProgressHandler) RegisterRoutes(r *gin.RouterGroup) {
	progress := r.Group("/progress")
	{
		progress.GET("", h.GetRange)
		progress.GET("/:date", h.GetDay)
	}
	r.GET("/statistics", h.GetStatistics)
}

// GetRange serves the history between the optional from and to query
// parameters, both canonical YYYY/MM/DD dates.
func (h *ProgressHandler) GetRange(c *gin.Context) {
	report, err := h.svc.GetRange(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ProgressHandler) GetDay(c *gin.Context) {
	day, err := time.Parse(pathDateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected YYYY-MM-DD"})
		return
	}

	entry, err := h.svc.GetDay(c.Request.Context(), domain.FormatDate(day))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ProgressHandler) GetStatistics(c *gin.Context) {
	stats, err := h.svc.GetStatistics(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected YYYY/MM/DD"})

	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrRangeTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrSchemaValidation):
		log.Printf("[ERROR] Stored document is invalid: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "stored progress is invalid",
			"message": "check the persisted documents for manual edits",
		})

	default:
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
