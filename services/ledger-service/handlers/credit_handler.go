package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	gateway "github.com/god-protocol/assay-verifier/services/assay-gateway/models"
	"github.com/god-protocol/assay-verifier/services/ledger-service/models"
	"github.com/god-protocol/assay-verifier/services/ledger-service/services"
)

// CreditHandler handles backing-credit operations
type CreditHandler struct {
	creditService *services.CreditService
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// DistributeCredits allocates credits for a batch of verified samples
// POST /api/v1/credits/distribute
func (ch *CreditHandler) DistributeCredits(c *gin.Context) {
	var req models.CreditDistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := ch.validateDistributionRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	result, err := ch.creditService.DistributeCredits(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to distribute credits",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   result,
	})
}

// GetUserCredits returns a user's credit balance
// GET /api/v1/credits/user/:wallet_address
func (ch *CreditHandler) GetUserCredits(c *gin.Context) {
	walletAddress := c.Param("wallet_address")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Wallet address is required",
		})
		return
	}

	credits, err := ch.creditService.GetUserCredits(c.Request.Context(), walletAddress)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to get user credits",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"wallet_address": walletAddress,
			"total_credits":  credits,
		},
	})
}

// GetCreditHistory returns a user's credit history
// GET /api/v1/credits/history/:wallet_address?limit=50
func (ch *CreditHandler) GetCreditHistory(c *gin.Context) {
	walletAddress := c.Param("wallet_address")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Wallet address is required",
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}

	history, err := ch.creditService.GetCreditHistory(c.Request.Context(), walletAddress, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get credit history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"wallet_address": walletAddress,
			"history":        history,
			"count":          len(history),
		},
	})
}

// GetCreditStats returns ledger-wide statistics
// GET /api/v1/credits/stats
func (ch *CreditHandler) GetCreditStats(c *gin.Context) {
	stats, err := ch.creditService.GetCreditStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get credit statistics",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   stats,
	})
}

// GetConfig returns the pool configuration
// GET /api/v1/credits/config
func (ch *CreditHandler) GetConfig(c *gin.Context) {
	config := ch.creditService.GetConfig()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   config,
	})
}

// UpdateConfig replaces the pool configuration
// PUT /api/v1/credits/config
func (ch *CreditHandler) UpdateConfig(c *gin.Context) {
	var config models.CreditsConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid configuration format",
			"details": err.Error(),
		})
		return
	}

	if err := ch.validateConfig(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid configuration",
			"details": err.Error(),
		})
		return
	}

	ch.creditService.UpdateConfig(&config)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Configuration updated successfully",
		"data":    config,
	})
}

// validateDistributionRequest validates a distribution request
func (ch *CreditHandler) validateDistributionRequest(req *models.CreditDistributionRequest) error {
	if req.BatchID == "" {
		return fmt.Errorf("batch_id is required")
	}

	if len(req.Samples) == 0 {
		return fmt.Errorf("at least one sample is required")
	}

	for i, sample := range req.Samples {
		if sample.UserWallet == "" {
			return fmt.Errorf("sample[%d]: user_wallet is required", i)
		}
		if sample.MetalType != gateway.MetalTypeGold && sample.MetalType != gateway.MetalTypeSilver {
			return fmt.Errorf("sample[%d]: unknown metal type %d", i, sample.MetalType)
		}
		if sample.WeightGrams <= 0 {
			return fmt.Errorf("sample[%d]: weight_grams must be positive", i)
		}
		if sample.Purity <= 0 || sample.Purity > 1 {
			return fmt.Errorf("sample[%d]: purity must be within (0, 1]", i)
		}
		if sample.ClockValue < 0 {
			return fmt.Errorf("sample[%d]: clock_value cannot be negative", i)
		}
	}

	return nil
}

// validateConfig validates a pool configuration
func (ch *CreditHandler) validateConfig(config *models.CreditsConfig) error {
	if config.TotalPoolCredits <= 0 {
		return fmt.Errorf("total_pool_credits must be positive")
	}

	if config.GoldRatio < 0 || config.GoldRatio > 1 {
		return fmt.Errorf("gold_ratio must be between 0 and 1")
	}

	if config.SilverRatio < 0 || config.SilverRatio > 1 {
		return fmt.Errorf("silver_ratio must be between 0 and 1")
	}

	if config.GoldRatio+config.SilverRatio != 1.0 {
		return fmt.Errorf("gold_ratio + silver_ratio must equal 1.0")
	}

	if config.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}

	return nil
}

// RegisterRoutes registers HTTP routes
func (ch *CreditHandler) RegisterRoutes(router *gin.RouterGroup) {
	credits := router.Group("/credits")
	{
		credits.POST("/distribute", ch.DistributeCredits)

		credits.GET("/user/:wallet_address", ch.GetUserCredits)
		credits.GET("/history/:wallet_address", ch.GetCreditHistory)

		credits.GET("/stats", ch.GetCreditStats)

		credits.GET("/config", ch.GetConfig)
		credits.PUT("/config", ch.UpdateConfig)
	}
}
