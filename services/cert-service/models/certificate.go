package models

import (
	"time"
)

// CertificateMetadata is the token metadata pinned to IPFS for one certificate
type CertificateMetadata struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Image           string      `json:"image"`        // IPFS seal image link
	ExternalURL     string      `json:"external_url"` // Verification record API endpoint
	Attributes      []Attribute `json:"attributes"`
	BackgroundColor string      `json:"background_color,omitempty"`
}

// Attribute is one metadata attribute
type Attribute struct {
	TraitType   string      `json:"trait_type"`
	Value       interface{} `json:"value"`
	DisplayType string      `json:"display_type,omitempty"` // "date", "number", etc.
}

// IssueCertificateRequest asks for an on-chain certificate for a verified sample
type IssueCertificateRequest struct {
	WalletAddress  string  `json:"wallet_address" validate:"required"`
	SampleID       string  `json:"sample_id" validate:"required"`
	VerificationID string  `json:"verification_id" validate:"required"`
	MetalType      int     `json:"metal_type"` // 1 = gold, 2 = silver
	WeightGrams    float64 `json:"weight_grams"`
	Purity         float64 `json:"purity"`
	Confidence     float64 `json:"confidence"`
	VerifiedAt     string  `json:"verified_at"` // RFC 3339
	ImageURL       string  `json:"image_url,omitempty"`
}

// IssueCertificateResponse is the issuance outcome
type IssueCertificateResponse struct {
	Status          string `json:"status"`
	TokenURI        string `json:"token_uri"`
	TokenID         string `json:"token_id"`
	ContractAddress string `json:"contract_address"`
	Message         string `json:"message"`
}

// CertificateRecord is one issued certificate as stored in the database
type CertificateRecord struct {
	VerificationID  string    `json:"verification_id" db:"verification_id"`
	SampleID        string    `json:"sample_id" db:"sample_id"`
	WalletAddress   string    `json:"wallet_address" db:"wallet_address"`
	MetalType       int       `json:"metal_type" db:"metal_type"`
	WeightGrams     float64   `json:"weight_grams" db:"weight_grams"`
	Purity          float64   `json:"purity" db:"purity"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	TokenURI        string    `json:"token_uri" db:"token_uri"`
	TokenID         int64     `json:"token_id" db:"token_id"`
	IPFSHash        string    `json:"ipfs_hash" db:"ipfs_hash"`
	ContractAddress string    `json:"contract_address" db:"contract_address"`
	IssuedAt        time.Time `json:"issued_at" db:"issued_at"`
}

// PinataUploadRequest is the pinJSONToIPFS request body
type PinataUploadRequest struct {
	PinataContent  interface{}     `json:"pinataContent"`
	PinataMetadata *PinataMetadata `json:"pinataMetadata,omitempty"`
	PinataOptions  *PinataOptions  `json:"pinataOptions,omitempty"`
}

// PinataMetadata names a pinned object
type PinataMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

// PinataOptions carries pin options
type PinataOptions struct {
	CidVersion int `json:"cidVersion,omitempty"`
}

// PinataResponse is Pinata's pin result
type PinataResponse struct {
	IpfsHash  string    `json:"IpfsHash"`
	PinSize   int       `json:"PinSize"`
	Timestamp time.Time `json:"Timestamp"`
}
