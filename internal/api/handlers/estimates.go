package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardwatch/cardwatch/internal/services"
)

type EstimateHandler struct {
	estimator     *services.EstimatorService
	refreshWorker *services.RefreshWorker
}

func NewEstimateHandler(estimator *services.EstimatorService, refreshWorker *services.RefreshWorker) *EstimateHandler {
	return &EstimateHandler{
		estimator:     estimator,
		refreshWorker: refreshWorker,
	}
}

// Estimate handles GET /api/estimate?name=&number= by querying the vendor
// APIs directly. Sources that fail are reported as unavailable alongside the
// partial estimate.
func (h *EstimateHandler) Estimate(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'name' is required"})
		return
	}

	estimate, err := h.estimator.Estimate(c.Request.Context(), name, c.Query("number"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, estimate)
}

// GetRefreshStatus handles GET /api/prices/status
func (h *EstimateHandler) GetRefreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.refreshWorker.Status())
}
