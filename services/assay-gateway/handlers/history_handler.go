package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/god-protocol/assay-verifier/services/assay-gateway/services"
)

// HistoryHandler serves the verification history and station clock state
type HistoryHandler struct {
	verificationService *services.VerificationService
	clockService        *services.EnhancedClockService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(verificationService *services.VerificationService, clockService *services.EnhancedClockService) *HistoryHandler {
	return &HistoryHandler{
		verificationService: verificationService,
		clockService:        clockService,
	}
}

// GetHistory handles verification history queries
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	page, limit := paginationParams(c)

	records, total, err := h.verificationService.GetHistory(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"records": records,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		},
	})
}

// GetRecord handles single record queries by sample ID
func (h *HistoryHandler) GetRecord(c *gin.Context) {
	sampleID := c.Param("id")
	if sampleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "sample ID is required",
		})
		return
	}

	record, err := h.verificationService.GetRecordBySample(c.Request.Context(), sampleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Verification record not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// GetStats handles verification statistics queries
func (h *HistoryHandler) GetStats(c *gin.Context) {
	stats, err := h.verificationService.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// ExportHistory writes the history log to a file on the station host
func (h *HistoryHandler) ExportHistory(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid request format: " + err.Error(),
			})
			return
		}
	}

	count, err := h.verificationService.ExportHistory(req.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"exported": count,
		},
	})
}

// ImportHistory replaces the history log from a file on the station host
func (h *HistoryHandler) ImportHistory(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid request format: " + err.Error(),
			})
			return
		}
	}

	count, err := h.verificationService.ImportHistory(req.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"imported": count,
		},
	})
}

// GetClockState returns the current station clock state
func (h *HistoryHandler) GetClockState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.clockService.GetClockState(),
	})
}

// GetClockEvents returns recent station clock events
func (h *HistoryHandler) GetClockEvents(c *gin.Context) {
	_, limit := paginationParams(c)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.clockService.GetClockEvents(limit),
	})
}
