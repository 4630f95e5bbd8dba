package verifiers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

func goldPayload() map[string]interface{} {
	return map[string]interface{}{
		"weight_grams": 100.0,
		"purity":       0.999,
	}
}

func TestValidatePayload(t *testing.T) {
	nv := NewNovaVerifier(models.GoldBarSample, "", "")

	assert.NoError(t, nv.ValidatePayload(goldPayload()))

	assert.Error(t, nv.ValidatePayload(map[string]interface{}{"purity": 0.999}))
	assert.Error(t, nv.ValidatePayload(map[string]interface{}{"weight_grams": -1.0, "purity": 0.999}))
	assert.Error(t, nv.ValidatePayload(map[string]interface{}{"weight_grams": 100.0, "purity": 1.5}))
	assert.Error(t, nv.ValidatePayload(map[string]interface{}{"weight_grams": 100.0, "purity": 0.0}))
	assert.Error(t, nv.ValidatePayload(map[string]interface{}{
		"weight_grams": 100.0,
		"purity":       0.999,
		"sensor_frame": "not-an-array",
	}))
}

func TestValidateSyncMockMode(t *testing.T) {
	nv := NewNovaVerifier(models.GoldBarSample, "", "")

	verified, proof, err := nv.ValidateSync(context.Background(), goldPayload())
	require.NoError(t, err)
	assert.True(t, verified)
	require.NotNil(t, proof)

	assert.Equal(t, "mock", proof.Provider)
	assert.Equal(t, models.GoldDensity, proof.Evidence["density"])
	assert.Equal(t, 0.999, proof.Evidence["purity"])
	assert.Equal(t, 0.85, proof.Evidence["ai_embedded_efficiency"])

	// Mock mode never hands out async watches
	_, err = nv.RegisterAsyncWatch(context.Background(), goldPayload())
	assert.Error(t, err)
}

func TestValidateSyncMiddleLayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify-sample", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "silver_bar", req["sample_type"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":         true,
			"verified":        true,
			"verification_id": "nova-123",
			"evidence": map[string]interface{}{
				"density": 10.4,
			},
			"signature": "deadbeef",
		})
	}))
	defer srv.Close()

	nv := NewNovaVerifier(models.SilverBarSample, srv.URL, "test-key")

	verified, proof, err := nv.ValidateSync(context.Background(), goldPayload())
	require.NoError(t, err)
	assert.True(t, verified)
	require.NotNil(t, proof)
	assert.Equal(t, "nova-middle-layer", proof.Provider)
	assert.Equal(t, "nova-123", proof.VerificationID)
}

func TestValidateSyncNotYetVerified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"verified": false,
		})
	}))
	defer srv.Close()

	nv := NewNovaVerifier(models.GoldBarSample, srv.URL, "k")

	verified, proof, err := nv.ValidateSync(context.Background(), goldPayload())
	require.NoError(t, err)
	assert.False(t, verified)
	assert.Nil(t, proof)
}

func TestCheckAsyncStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/watch-status/w-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":         true,
			"completed":       true,
			"verified":        true,
			"verification_id": "nova-456",
			"evidence":        map[string]interface{}{},
		})
	}))
	defer srv.Close()

	nv := NewNovaVerifier(models.GoldBarSample, srv.URL, "k")

	completed, proof, err := nv.CheckAsyncStatus(context.Background(), "w-1")
	require.NoError(t, err)
	assert.True(t, completed)
	require.NotNil(t, proof)
	assert.Equal(t, "nova-456", proof.VerificationID)
}

func TestVerifierRegistry(t *testing.T) {
	registry := NewVerifierRegistry()
	registry.Register(NewNovaVerifier(models.GoldBarSample, "", ""))
	registry.Register(NewNovaVerifier(models.SilverBarSample, "", ""))

	v, err := registry.GetVerifier(models.GoldBarSample)
	require.NoError(t, err)
	assert.Equal(t, models.GoldBarSample, v.GetSampleType())

	_, err = registry.GetVerifier(models.SampleType("platinum_bar"))
	assert.Error(t, err)

	assert.Len(t, registry.GetSupportedSampleTypes(), 2)
}
