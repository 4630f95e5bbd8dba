package models

import (
	"crypto/ecdsa"
)

// AnalystRole defines the role of an analyst node
type AnalystRole string

const (
	MaterialAnalystRole AnalystRole = "material_analyst" // Density and purity analysis
	QuantumAnalystRole  AnalystRole = "quantum_analyst"  // Quantum sensor verification
)

// Analysis tolerances for the material analyst
const (
	DensityTolerance = 1.0  // g/cm3 allowed deviation from the reference density
	PurityTolerance  = 0.05 // Allowed deviation from the claimed purity
)

// AnalystConfig represents analyst node configuration
type AnalystConfig struct {
	ID               string            `json:"id"`     // Analyst ID
	Role             AnalystRole       `json:"role"`   // Analyst role
	Weight           float64           `json:"weight"` // Voting weight
	PrivateKey       *ecdsa.PrivateKey `json:"-"`      // Private key (not serialized)
	PublicKey        string            `json:"public_key"`
	StationPublicKey string            `json:"station_public_key"` // Gateway's public key for request verification
}

// AssessmentResult is the outcome of one analysis plugin run
type AssessmentResult struct {
	Accept     bool               `json:"accept"`
	Confidence float64            `json:"confidence"` // 0.0-1.0
	Reason     string             `json:"reason"`
	Readings   map[string]float64 `json:"readings"`
}
