package config

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/god-protocol/assay-verifier/pkg/crypto"
)

// Config holds all configuration for the assay gateway service
type Config struct {
	Port                string            `json:"port"`
	DatabaseURL         string            `json:"database_url"`
	DgraphURL           string            `json:"dgraph_url"`
	NovaMiddleLayerURL  string            `json:"nova_middle_layer_url"`
	NovaAPIKey          string            `json:"nova_api_key"`
	StationID           string            `json:"station_id"`
	StationPrivateKey   *ecdsa.PrivateKey `json:"-"`
	AnalystEndpoints    []AnalystEndpoint `json:"analyst_endpoints"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	CertServiceURL      string            `json:"cert_service_url"`
	LedgerServiceURL    string            `json:"ledger_service_url"`
	LogPath             string            `json:"log_path"`
	LogLevel            string            `json:"log_level"`
}

// AnalystEndpoint represents an analysis service endpoint
type AnalystEndpoint struct {
	ID       string  `json:"id"`
	Role     string  `json:"role"`
	URL      string  `json:"url"`
	Weight   float64 `json:"weight"`
	Priority int     `json:"priority"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DgraphURL:          getEnv("DGRAPH_URL", "localhost:9080"),
		NovaMiddleLayerURL: getEnv("NOVA_MIDDLE_LAYER_URL", ""),
		NovaAPIKey:         getEnv("NOVA_API_KEY", ""),
		StationID:          getEnv("STATION_ID", "station-1"),
		CertServiceURL:     getEnv("CERT_SERVICE_URL", ""),
		LedgerServiceURL:   getEnv("LEDGER_SERVICE_URL", "http://localhost:8087"),
		LogPath:            getEnv("VERIFICATION_LOG_PATH", "verification_log.json"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	// Load confidence threshold
	thresholdStr := getEnv("CONFIDENCE_THRESHOLD", "0.8")
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid confidence threshold: %v", err)
	}
	config.ConfidenceThreshold = threshold

	// Load private key
	privateKeyHex := getEnv("STATION_PRIVATE_KEY", "")
	if privateKeyHex == "" {
		return nil, fmt.Errorf("STATION_PRIVATE_KEY is required")
	}

	privateKey, err := crypto.LoadPrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %v", err)
	}
	config.StationPrivateKey = privateKey

	// Load analyst endpoints. An empty list puts the gateway in standalone
	// mode: built-in mock analysis instead of remote analyst fan-out.
	endpointsJSON := getEnv("ANALYST_ENDPOINTS", "")
	if endpointsJSON != "" {
		if err := json.Unmarshal([]byte(endpointsJSON), &config.AnalystEndpoints); err != nil {
			return nil, fmt.Errorf("failed to parse analyst endpoints: %v", err)
		}
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold >= 1 {
		return fmt.Errorf("confidence threshold must be between 0 and 1, got: %.2f", c.ConfidenceThreshold)
	}

	if len(c.AnalystEndpoints) > 0 {
		// Validate total weight
		totalWeight := 0.0
		for _, endpoint := range c.AnalystEndpoints {
			totalWeight += endpoint.Weight
		}

		if totalWeight < 0.99 || totalWeight > 1.01 { // Allow floating point error
			return fmt.Errorf("analyst weights must sum to 1.0, got: %.2f", totalWeight)
		}
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
