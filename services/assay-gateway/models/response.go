package models

// SampleSubmitRequest represents a sample submission request
type SampleSubmitRequest struct {
	UserWallet string                 `json:"user_wallet" binding:"required"`
	SampleType string                 `json:"sample_type" binding:"required"`
	Payload    map[string]interface{} `json:"payload" binding:"required"`
}

// SampleSubmitResponse represents a sample submission response
type SampleSubmitResponse struct {
	Success    bool   `json:"success"`
	SampleID   string `json:"sample_id,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	ClockValue int    `json:"clock_value,omitempty"`
}

// ErrorResponse represents a generic error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
