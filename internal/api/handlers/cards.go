package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cardwatch/cardwatch/internal/models"
	"github.com/cardwatch/cardwatch/internal/services"
)

type CardHandler struct {
	searchService *services.SearchService
	refreshWorker *services.RefreshWorker
}

func NewCardHandler(searchService *services.SearchService, refreshWorker *services.RefreshWorker) *CardHandler {
	return &CardHandler{
		searchService: searchService,
		refreshWorker: refreshWorker,
	}
}

// SearchCards handles GET /api/cards/search?serial_number=&name=&limit=
func (h *CardHandler) SearchCards(c *gin.Context) {
	serialNumber := c.Query("serial_number")
	name := c.Query("name")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	matches, err := h.searchService.Search(serialNumber, name, limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.CardSearchResult{
		Matches:    matches,
		TotalCount: len(matches),
	})
}

// LookupCard handles GET /api/cards/lookup?serial_number=&name=&sales_limit=
func (h *CardHandler) LookupCard(c *gin.Context) {
	serialNumber := c.Query("serial_number")
	name := c.Query("name")
	salesLimit, _ := strconv.Atoi(c.DefaultQuery("sales_limit", "0"))

	match, err := h.searchService.Lookup(serialNumber, name, salesLimit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQuery):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAmbiguousMatch):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, match)
}

// GetCard handles GET /api/cards/:id
func (h *CardHandler) GetCard(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card id must be numeric"})
		return
	}

	salesLimit, _ := strconv.Atoi(c.DefaultQuery("sales_limit", "0"))
	match, err := h.searchService.GetCard(uint(id), salesLimit)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, match)
}

// RefreshCardPrice handles POST /api/cards/:id/refresh-price by queueing the
// card for the next refresh cycle.
func (h *CardHandler) RefreshCardPrice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card id must be numeric"})
		return
	}

	// Verify the card exists before queueing.
	if _, err := h.searchService.GetCard(uint(id), 0); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	position := h.refreshWorker.QueueRefresh(uint(id))
	c.JSON(http.StatusAccepted, gin.H{"queued": true, "position": position})
}
