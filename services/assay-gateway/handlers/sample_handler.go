package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/services"
)

// SampleHandler handles sample-related HTTP requests
type SampleHandler struct {
	verificationService *services.VerificationService
	batchAssayer        *services.BatchAssayer
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(verificationService *services.VerificationService, batchAssayer *services.BatchAssayer) *SampleHandler {
	return &SampleHandler{
		verificationService: verificationService,
		batchAssayer:        batchAssayer,
	}
}

// SubmitSample handles sample submission
func (h *SampleHandler) SubmitSample(c *gin.Context) {
	var req models.SampleSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format: " + err.Error(),
		})
		return
	}

	if req.UserWallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "user_wallet is required",
		})
		return
	}

	if req.SampleType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "sample_type is required",
		})
		return
	}

	if req.Payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "payload is required",
		})
		return
	}

	response, err := h.verificationService.SubmitSample(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if !response.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   response.Message,
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetSampleStatus handles sample status queries
func (h *SampleHandler) GetSampleStatus(c *gin.Context) {
	sampleID := c.Param("id")
	if sampleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "sample ID is required",
		})
		return
	}

	sample, err := h.verificationService.GetSample(c.Request.Context(), sampleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Sample not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sample,
	})
}

// GetUserSamples handles user sample history queries
func (h *SampleHandler) GetUserSamples(c *gin.Context) {
	userWallet := c.Param("wallet")
	if userWallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "user wallet is required",
		})
		return
	}

	page, limit := paginationParams(c)

	samples, total, err := h.verificationService.GetUserSamples(c.Request.Context(), userWallet, page, limit)
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
			"samples": samples,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		},
	})
}

// GetBatchQueueStats returns batch assayer queue statistics
func (h *SampleHandler) GetBatchQueueStats(c *gin.Context) {
	if h.batchAssayer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "batch assayer not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.batchAssayer.GetQueueStats(),
	})
}

// paginationParams extracts page/limit query parameters
func paginationParams(c *gin.Context) (int, int) {
	pageStr := c.DefaultQuery("page", "1")
	limitStr := c.DefaultQuery("limit", "20")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	return page, limit
}
