package models

// AuditEvent represents a verification event in the assay audit graph
type AuditEvent struct {
	UID            string      `json:"uid,omitempty"`
	ID             string      `json:"id,omitempty"`
	Name           string      `json:"name,omitempty"`
	Clock          string      `json:"clock,omitempty"`
	Depth          int         `json:"depth,omitempty"`
	Parent         []ParentRef `json:"parent,omitempty"`
	SampleID       string      `json:"sample_id,omitempty"`
	MetalType      int         `json:"metal_type,omitempty"`
	Confidence     float64     `json:"confidence,omitempty"`
	Verified       bool        `json:"verified"`
	VerificationID string      `json:"verification_id,omitempty"`
	Station        string      `json:"station,omitempty"`
}

// ParentRef represents a reference to a parent event
type ParentRef struct {
	UID string `json:"uid,omitempty"`
}

// AuditEventInfo holds information about an event for graph reconstruction
type AuditEventInfo struct {
	SampleID       string
	VerificationID string
	EventName      string
	Confidence     float64
	StationID      uint64
}
