package models

import (
	"time"

	"github.com/god-protocol/assay-verifier/pkg/clock"
	"github.com/god-protocol/assay-verifier/pkg/sensor"
)

// SampleType defines the kind of precious-metal sample a station can verify
type SampleType string

const (
	GoldBarSample    SampleType = "gold_bar"
	SilverBarSample  SampleType = "silver_bar"
	BatchAssaySample SampleType = "batch_assay" // Re-verification of a batch of recorded samples
)

// Metal type codes carried on-chain and in verification identifiers
const (
	MetalTypeGold   = 1
	MetalTypeSilver = 2
)

// Reference densities in g/cm3 for pure metals
const (
	GoldDensity   = 19.3
	SilverDensity = 10.5
)

// MetalType returns the numeric metal code for the sample type
func (st SampleType) MetalType() int {
	switch st {
	case GoldBarSample:
		return MetalTypeGold
	case SilverBarSample:
		return MetalTypeSilver
	default:
		return 0
	}
}

// ExpectedDensity returns the reference density for the sample type
func (st SampleType) ExpectedDensity() float64 {
	switch st {
	case GoldBarSample:
		return GoldDensity
	case SilverBarSample:
		return SilverDensity
	default:
		return 0
	}
}

// SampleStatus tracks a sample through the verification pipeline
type SampleStatus string

const (
	SampleSubmitted           SampleStatus = "SUBMITTED"
	SamplePendingVerification SampleStatus = "PENDING_VERIFICATION"
	SampleProcessing          SampleStatus = "PROCESSING"
	SampleVerified            SampleStatus = "VERIFIED"
	SampleRejected            SampleStatus = "REJECTED"
	SampleFailed              SampleStatus = "FAILED"
)

// Sample represents a submitted precious-metal sample
type Sample struct {
	ID          string                 `json:"id"`
	UserWallet  string                 `json:"user_wallet"`
	SampleType  SampleType             `json:"sample_type"`
	MetalType   int                    `json:"metal_type"`
	WeightGrams float64                `json:"weight_grams"`
	Purity      float64                `json:"purity"`
	SensorFrame sensor.Frame           `json:"sensor_frame,omitempty"`
	Status      SampleStatus           `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	Proof       *AssayProof            `json:"proof,omitempty"`
	Clock       *clock.StationClock    `json:"clock,omitempty"`
	EventID     string                 `json:"event_id,omitempty"`
	Attempts    int                    `json:"attempts"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// AssayProof represents external assay proof from the NOVA middle layer
type AssayProof struct {
	Provider       string                 `json:"provider"`
	VerifiedAt     time.Time              `json:"verified_at"`
	Evidence       map[string]interface{} `json:"evidence"`
	VerificationID string                 `json:"verification_id"`
	Signature      string                 `json:"signature"`
}

// VerificationRecord is the full outcome of one verification attempt.
// Every attempt lands in the history log, verified or not.
type VerificationRecord struct {
	SampleID            string              `json:"sample_id"`
	Verified            bool                `json:"verified"`
	Confidence          float64             `json:"confidence"`
	MetalType           int                 `json:"metal_type"`
	WeightGrams         float64             `json:"weight_grams"`
	Purity              float64             `json:"purity"`
	VerificationID      string              `json:"verification_id,omitempty"`
	Timestamp           string              `json:"timestamp"`
	AIAnalysis          map[string]float64  `json:"ai_analysis"`
	QuantumVerification map[string]float64  `json:"quantum_verification"`
	AIConfidence        float64             `json:"ai_confidence"`
	QuantumConfidence   float64             `json:"quantum_confidence"`
	BlockchainReady     bool                `json:"blockchain_ready"`
	Clock               *clock.StationClock `json:"clock,omitempty"`
	Error               string              `json:"error,omitempty"`
}
