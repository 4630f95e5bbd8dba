package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/services/cert-service/models"
)

func TestBuildMetadata(t *testing.T) {
	ms := NewMetadataService(nil, nil, "http://gateway:8080")

	req := &models.IssueCertificateRequest{
		WalletAddress:  "0x1111111111111111111111111111111111111111",
		SampleID:       "sample-42",
		VerificationID: "abcdef0123456789abcdef0123456789",
		MetalType:      1,
		WeightGrams:    100,
		Purity:         0.999,
		Confidence:     0.87,
		VerifiedAt:     "2026-08-29T12:00:00Z",
	}

	metadata := ms.buildMetadata(req)

	assert.Equal(t, "Assay Certificate #abcdef01", metadata.Name)
	assert.Contains(t, metadata.Description, "Gold")
	assert.Contains(t, metadata.Description, "99.9%")
	assert.Equal(t, "http://gateway:8080/api/v1/history/record/sample-42", metadata.ExternalURL)
	assert.Equal(t, defaultSealImage, metadata.Image)

	byTrait := make(map[string]interface{})
	for _, attr := range metadata.Attributes {
		byTrait[attr.TraitType] = attr.Value
	}

	require.Contains(t, byTrait, "Metal")
	assert.Equal(t, "Gold", byTrait["Metal"])
	assert.Equal(t, req.VerificationID, byTrait["Verification ID"])
	assert.Equal(t, req.VerifiedAt, byTrait["Verified At"])
}

func TestBuildMetadataCustomImage(t *testing.T) {
	ms := NewMetadataService(nil, nil, "http://gateway:8080")

	req := &models.IssueCertificateRequest{
		VerificationID: "deadbeef",
		MetalType:      2,
		WeightGrams:    50,
		Purity:         0.925,
		ImageURL:       "ipfs://custom-seal",
	}

	metadata := ms.buildMetadata(req)

	assert.Equal(t, "ipfs://custom-seal", metadata.Image)
	assert.Contains(t, metadata.Description, "Silver")
}

func TestMetalName(t *testing.T) {
	assert.Equal(t, "Gold", metalName(1))
	assert.Equal(t, "Silver", metalName(2))
	assert.Equal(t, "Unknown", metalName(3))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdefgh", shortID("abcdefghij"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestFormatIPFSURI(t *testing.T) {
	assert.Equal(t, "ipfs://bafyhash", FormatIPFSURI("bafyhash"))
}
