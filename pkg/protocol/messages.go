package protocol

import (
	"time"

	"github.com/god-protocol/assay-verifier/pkg/clock"
	"github.com/god-protocol/assay-verifier/pkg/sensor"
)

// MessageType represents the type of message
type MessageType string

const (
	AnalysisRequestMessage MessageType = "analysis_request"
	AnalystVoteMessage     MessageType = "analyst_vote"
	ConsensusResultMessage MessageType = "consensus_result"
	HeartbeatMessage       MessageType = "heartbeat"
)

// BaseMessage represents the base structure for all messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	MessageID string      `json:"message_id"`
	Timestamp time.Time   `json:"timestamp"`
	Signature string      `json:"signature"`
}

// SampleClaim carries the claimed physical properties of a submitted sample
type SampleClaim struct {
	MetalType   int     `json:"metal_type"`   // 1 = gold, 2 = silver
	WeightGrams float64 `json:"weight_grams"` // Weight in grams
	Purity      float64 `json:"purity"`       // Purity as decimal (0.999 = 99.9%)
}

// AnalysisRequest represents a sample analysis request sent to analyst services
type AnalysisRequest struct {
	BaseMessage

	// Core fields
	SampleID  string              `json:"sample_id"`
	StationID string              `json:"station_id"`
	EventID   string              `json:"event_id"`
	Clock     *clock.StationClock `json:"clock"`

	// Sample data
	Claim       SampleClaim  `json:"claim"`
	SensorFrame sensor.Frame `json:"sensor_frame,omitempty"`
	Proof       *AssayProof  `json:"proof,omitempty"`

	// Network fields
	RequestID string `json:"request_id"` // For tracking requests
}

// AssayProof represents external assay verification proof from the NOVA middle layer
type AssayProof struct {
	Provider       string                 `json:"provider"`        // "nova-middle-layer"
	VerifiedAt     time.Time              `json:"verified_at"`     // Verification time
	Evidence       map[string]interface{} `json:"evidence"`        // Evidence snapshot
	VerificationID string                 `json:"verification_id"` // Middle-layer verification ID
	Signature      string                 `json:"signature"`       // Middle-layer signature
}

// AnalystVoteResponse represents an analyst's vote on a sample
type AnalystVoteResponse struct {
	BaseMessage

	// Vote fields
	EventID     string              `json:"event_id"`
	AnalystID   string              `json:"analyst_id"`
	AnalystRole string              `json:"analyst_role"` // "material_analyst" or "quantum_analyst"
	Vote        string              `json:"vote"`         // "accept" or "reject"
	Confidence  float64             `json:"confidence"`   // Analyst confidence 0.0-1.0
	Weight      float64             `json:"weight"`       // Combination weight
	Reason      string              `json:"reason"`       // Voting reason
	Readings    map[string]float64  `json:"readings"`     // Derived analysis readings
	ClockState  *clock.StationClock `json:"clock_state"`  // Current station clock state

	// Network fields
	RequestID string `json:"request_id"` // Corresponding request ID
}

// ConsensusResult represents the combined verification decision
type ConsensusResult struct {
	BaseMessage

	EventID        string                 `json:"event_id"`
	SampleID       string                 `json:"sample_id"`
	Votes          []*AnalystVoteResponse `json:"votes"`
	Confidence     float64                `json:"confidence"` // Weighted overall confidence
	Threshold      float64                `json:"threshold"`
	Verified       bool                   `json:"verified"`
	VerificationID string                 `json:"verification_id,omitempty"`
	StationID      string                 `json:"station_id"`
}

// HeartbeatRequest represents heartbeat message
type HeartbeatRequest struct {
	BaseMessage
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"` // "gateway", "analyst", "ledger", "cert"
	Status   string `json:"status"`    // "healthy", "degraded", "error"
}

// HeartbeatResponse represents heartbeat response
type HeartbeatResponse struct {
	BaseMessage
	NodeID string `json:"node_id"`
	Status string `json:"status"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	BaseMessage
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// Analyst roles
const (
	RoleMaterialAnalyst = "material_analyst"
	RoleQuantumAnalyst  = "quantum_analyst"
)

// Default combination weights when votes are merged into an overall
// confidence. Material analysis carries more weight than quantum
// verification.
const (
	MaterialWeight = 0.6
	QuantumWeight  = 0.4
)

// API endpoints constants
const (
	// Analyst endpoints
	AnalyzeEndpoint = "/api/v1/analyze"
	ConfigEndpoint  = "/api/v1/config"
	HealthEndpoint  = "/api/v1/health"

	// Gateway endpoints
	SampleSubmitEndpoint = "/api/v1/samples"
	SampleStatusEndpoint = "/api/v1/samples/status"

	// Ledger endpoints
	DistributeCreditsEndpoint = "/api/v1/credits/distribute"

	// Certificate endpoints
	IssueCertificateEndpoint = "/api/v1/certificates"
)

// HTTP Status codes for protocol
const (
	StatusSuccess            = 200
	StatusBadRequest         = 400
	StatusUnauthorized       = 401
	StatusNotFound           = 404
	StatusValidationFailed   = 422
	StatusInternalError      = 500
	StatusServiceUnavailable = 503
)

// Analysis request/response envelopes for the analyst service
type AnalysisServiceRequest struct {
	AnalysisRequest *AnalysisRequest `json:"analysis_request" validate:"required"`
}

type AnalysisServiceResponse struct {
	Success bool                 `json:"success"`
	Vote    *AnalystVoteResponse `json:"vote,omitempty"`
	Message string               `json:"message"`
	Error   string               `json:"error,omitempty"`
}

// Network configuration
type NetworkConfig struct {
	// Analyst endpoints
	AnalystEndpoints []AnalystEndpoint `json:"analyst_endpoints"`

	// Certificate service endpoint for verified samples
	CertServiceEndpoint string `json:"cert_service_endpoint"`

	// Timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ResponseTimeout time.Duration `json:"response_timeout"`

	// Retry policy
	MaxRetries    int           `json:"max_retries"`
	RetryInterval time.Duration `json:"retry_interval"`

	// Security
	TLSEnabled bool   `json:"tls_enabled"`
	CertFile   string `json:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty"`
}

type AnalystEndpoint struct {
	ID       string  `json:"id"`       // analyst-1, analyst-2, etc.
	Role     string  `json:"role"`     // material_analyst, quantum_analyst
	URL      string  `json:"url"`      // http://analyst-1:8080
	Weight   float64 `json:"weight"`   // 0.6, 0.4
	Priority int     `json:"priority"` // 1 (highest) to N (lowest)
}
