package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/god-protocol/assay-verifier/services/cert-service/models"
)

func TestIsValidWalletAddress(t *testing.T) {
	assert.True(t, isValidWalletAddress("0x1234567890abcdefABCDEF1234567890abcdef12"))
	assert.False(t, isValidWalletAddress(""))
	assert.False(t, isValidWalletAddress("0x123"))
	assert.False(t, isValidWalletAddress("1234567890abcdefABCDEF1234567890abcdef1212"))
	assert.False(t, isValidWalletAddress("0x1234567890abcdefABCDEF1234567890abcdefZZ"))
}

func TestValidateIssueRequest(t *testing.T) {
	h := NewCertHandler(nil, nil)

	valid := func() *models.IssueCertificateRequest {
		return &models.IssueCertificateRequest{
			WalletAddress:  "0x1234567890abcdefABCDEF1234567890abcdef12",
			SampleID:       "sample-1",
			VerificationID: "abc123",
			MetalType:      1,
			WeightGrams:    100,
			Purity:         0.999,
		}
	}

	assert.NoError(t, h.validateIssueRequest(valid()))

	req := valid()
	req.WalletAddress = "not-an-address"
	assert.Error(t, h.validateIssueRequest(req))

	req = valid()
	req.VerificationID = ""
	assert.Error(t, h.validateIssueRequest(req))

	req = valid()
	req.MetalType = 5
	assert.Error(t, h.validateIssueRequest(req))

	req = valid()
	req.WeightGrams = 0
	assert.Error(t, h.validateIssueRequest(req))

	req = valid()
	req.Purity = 1.1
	assert.Error(t, h.validateIssueRequest(req))
}
