package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/services/analysis-service/services"
)

// AnalysisHandler handles analysis-related HTTP requests
type AnalysisHandler struct {
	analysisService *services.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// AnalyzeSample handles sample analysis requests
func (h *AnalysisHandler) AnalyzeSample(c *gin.Context) {
	var req protocol.AnalysisServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.AnalysisServiceResponse{
			Success: false,
			Error:   "Invalid request format: " + err.Error(),
		})
		return
	}

	if req.AnalysisRequest == nil {
		c.JSON(http.StatusBadRequest, protocol.AnalysisServiceResponse{
			Success: false,
			Error:   "analysis_request is required",
		})
		return
	}

	if req.AnalysisRequest.EventID == "" {
		c.JSON(http.StatusBadRequest, protocol.AnalysisServiceResponse{
			Success: false,
			Error:   "event_id is required",
		})
		return
	}

	if req.AnalysisRequest.SampleID == "" {
		c.JSON(http.StatusBadRequest, protocol.AnalysisServiceResponse{
			Success: false,
			Error:   "sample_id is required",
		})
		return
	}

	vote, err := h.analysisService.AnalyzeSample(c.Request.Context(), req.AnalysisRequest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, protocol.AnalysisServiceResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, protocol.AnalysisServiceResponse{
		Success: true,
		Vote:    vote,
		Message: "analysis complete",
	})
}

// GetConfig returns the analyst configuration
func (h *AnalysisHandler) GetConfig(c *gin.Context) {
	config := h.analysisService.GetAnalystInfo()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":         config.ID,
			"role":       config.Role,
			"weight":     config.Weight,
			"public_key": config.PublicKey,
		},
	})
}

// GetClockState returns the analyst's clock state
func (h *AnalysisHandler) GetClockState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.analysisService.GetClockState(),
	})
}

// Health handles basic health check
func (h *AnalysisHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "analysis-service",
	})
}
