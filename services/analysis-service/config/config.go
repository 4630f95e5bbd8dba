package config

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strconv"

	"github.com/god-protocol/assay-verifier/pkg/crypto"
	"github.com/god-protocol/assay-verifier/services/analysis-service/models"
)

// Config holds all configuration for the analysis service
type Config struct {
	Port              string             `json:"port"`
	AnalystID         string             `json:"analyst_id"`
	AnalystRole       models.AnalystRole `json:"analyst_role"`
	AnalystWeight     float64            `json:"analyst_weight"`
	AnalystPrivateKey *ecdsa.PrivateKey  `json:"-"`
	StationPublicKey  string             `json:"station_public_key"`
	LogLevel          string             `json:"log_level"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Port:             getEnv("PORT", "8080"),
		AnalystID:        getEnv("ANALYST_ID", ""),
		StationPublicKey: getEnv("STATION_PUBLIC_KEY", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	// Load analyst role
	roleStr := getEnv("ANALYST_ROLE", "")
	switch roleStr {
	case "material_analyst":
		config.AnalystRole = models.MaterialAnalystRole
	case "quantum_analyst":
		config.AnalystRole = models.QuantumAnalystRole
	default:
		return nil, fmt.Errorf("invalid analyst role: %s", roleStr)
	}

	// Load weight
	weightStr := getEnv("ANALYST_WEIGHT", "")
	if weightStr == "" {
		return nil, fmt.Errorf("ANALYST_WEIGHT is required")
	}

	weight, err := strconv.ParseFloat(weightStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid analyst weight: %v", err)
	}
	config.AnalystWeight = weight

	// Load private key
	privateKeyHex := getEnv("ANALYST_PRIVATE_KEY", "")
	if privateKeyHex == "" {
		return nil, fmt.Errorf("ANALYST_PRIVATE_KEY is required")
	}

	privateKey, err := crypto.LoadPrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %v", err)
	}
	config.AnalystPrivateKey = privateKey

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AnalystID == "" {
		return fmt.Errorf("ANALYST_ID is required")
	}

	if c.AnalystWeight <= 0 || c.AnalystWeight > 1 {
		return fmt.Errorf("analyst weight must be between 0 and 1, got: %.2f", c.AnalystWeight)
	}

	return nil
}

// GetAnalystConfig returns the analyst configuration
func (c *Config) GetAnalystConfig() *models.AnalystConfig {
	return &models.AnalystConfig{
		ID:               c.AnalystID,
		Role:             c.AnalystRole,
		Weight:           c.AnalystWeight,
		PrivateKey:       c.AnalystPrivateKey,
		PublicKey:        crypto.PublicKeyToHex(&c.AnalystPrivateKey.PublicKey),
		StationPublicKey: c.StationPublicKey,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
