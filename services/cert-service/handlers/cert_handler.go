package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/god-protocol/assay-verifier/services/cert-service/models"
	"github.com/god-protocol/assay-verifier/services/cert-service/services"
)

// CertHandler handles certificate HTTP requests
type CertHandler struct {
	metadataService   *services.MetadataService
	blockchainService *services.BlockchainService
}

// NewCertHandler creates a certificate handler
func NewCertHandler(metadataService *services.MetadataService, blockchainService *services.BlockchainService) *CertHandler {
	return &CertHandler{
		metadataService:   metadataService,
		blockchainService: blockchainService,
	}
}

// IssueCertificate pins metadata and mints a certificate token
// POST /api/v1/certificates
func (h *CertHandler) IssueCertificate(c *gin.Context) {
	var req models.IssueCertificateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"message": err.Error(),
		})
		return
	}

	if err := h.validateIssueRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"message": err.Error(),
		})
		return
	}

	tokenURI, ipfsHash, err := h.metadataService.IssueCertificate(c.Request.Context(), &req)
	if err != nil {
		if strings.Contains(err.Error(), "already issued") {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Certificate already issued",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build certificate metadata",
			"message": err.Error(),
		})
		return
	}

	tokenID, err := h.blockchainService.MintCertificate(c.Request.Context(), req.WalletAddress, req.VerificationID, tokenURI)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to mint certificate on blockchain",
			"message": err.Error(),
		})
		return
	}

	record := &models.CertificateRecord{
		VerificationID:  req.VerificationID,
		SampleID:        req.SampleID,
		WalletAddress:   req.WalletAddress,
		MetalType:       req.MetalType,
		WeightGrams:     req.WeightGrams,
		Purity:          req.Purity,
		Confidence:      req.Confidence,
		TokenURI:        tokenURI,
		TokenID:         tokenID.Int64(),
		IPFSHash:        ipfsHash,
		ContractAddress: h.contractAddress(),
		IssuedAt:        time.Now(),
	}

	if err := h.metadataService.SaveCertificate(c.Request.Context(), record); err != nil {
		// Token already minted, surface the record anyway
		c.JSON(http.StatusOK, models.IssueCertificateResponse{
			Status:          "partial",
			TokenURI:        tokenURI,
			TokenID:         tokenID.String(),
			ContractAddress: h.contractAddress(),
			Message:         fmt.Sprintf("minted but failed to persist record: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, models.IssueCertificateResponse{
		Status:          "ok",
		TokenURI:        tokenURI,
		TokenID:         tokenID.String(),
		ContractAddress: h.contractAddress(),
		Message:         "Certificate issued successfully",
	})
}

// GetCertificate returns one certificate record
// GET /api/v1/certificates/verification/:verification_id
func (h *CertHandler) GetCertificate(c *gin.Context) {
	verificationID := c.Param("verification_id")
	if verificationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Verification ID is required",
		})
		return
	}

	record, err := h.metadataService.GetCertificate(c.Request.Context(), verificationID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Certificate not found",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get certificate",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetUserCertificates lists a wallet's certificates
// GET /api/v1/certificates/user/:wallet
func (h *CertHandler) GetUserCertificates(c *gin.Context) {
	walletAddress := c.Param("wallet")
	if !isValidWalletAddress(walletAddress) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid wallet address",
			"message": "Wallet address must be a valid Ethereum address",
		})
		return
	}

	records, err := h.metadataService.GetUserCertificates(c.Request.Context(), walletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get certificates",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address": walletAddress,
		"certificates":   records,
		"count":          len(records),
	})
}

// validateIssueRequest validates an issuance request
func (h *CertHandler) validateIssueRequest(req *models.IssueCertificateRequest) error {
	if req.WalletAddress == "" {
		return fmt.Errorf("wallet_address is required")
	}

	if !isValidWalletAddress(req.WalletAddress) {
		return fmt.Errorf("invalid wallet address format")
	}

	if req.SampleID == "" {
		return fmt.Errorf("sample_id is required")
	}

	if req.VerificationID == "" {
		return fmt.Errorf("verification_id is required")
	}

	if req.MetalType != 1 && req.MetalType != 2 {
		return fmt.Errorf("unknown metal type: %d", req.MetalType)
	}

	if req.WeightGrams <= 0 {
		return fmt.Errorf("weight_grams must be positive")
	}

	if req.Purity <= 0 || req.Purity > 1 {
		return fmt.Errorf("purity must be in (0, 1]")
	}

	return nil
}

// isValidWalletAddress validates an Ethereum address
func isValidWalletAddress(address string) bool {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return false
	}

	for _, char := range address[2:] {
		if !((char >= '0' && char <= '9') ||
			(char >= 'a' && char <= 'f') ||
			(char >= 'A' && char <= 'F')) {
			return false
		}
	}

	return true
}

// contractAddress returns the configured contract address
func (h *CertHandler) contractAddress() string {
	return os.Getenv("CERT_CONTRACT_ADDRESS")
}
