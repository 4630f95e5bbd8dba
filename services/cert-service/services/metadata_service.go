package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/god-protocol/assay-verifier/services/cert-service/models"
)

// Default seal image pinned once and shared by all certificates
const defaultSealImage = "ipfs://bafkreibxq5i3kyt7kmjmlyzzrb7qvtfrz3rrwmxkvtzmdxgoyjvgcrzlxm"

// MetadataService builds and stores certificate metadata
type MetadataService struct {
	db            *sql.DB
	pinataService *PinataService
	baseURL       string // Base API URL for external_url
}

// NewMetadataService creates a metadata service
func NewMetadataService(db *sql.DB, pinataService *PinataService, baseURL string) *MetadataService {
	return &MetadataService{
		db:            db,
		pinataService: pinataService,
		baseURL:       baseURL,
	}
}

// IssueCertificate pins certificate metadata to IPFS and records it. The
// on-chain mint happens afterwards in the handler.
func (ms *MetadataService) IssueCertificate(ctx context.Context, req *models.IssueCertificateRequest) (string, string, error) {
	exists, err := ms.certificateExists(ctx, req.VerificationID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check certificate existence: %v", err)
	}
	if exists {
		return "", "", fmt.Errorf("certificate already issued for verification %s", req.VerificationID)
	}

	metadata := ms.buildMetadata(req)

	pinName := fmt.Sprintf("certificate_%s", shortID(req.VerificationID))
	pinResp, err := ms.pinataService.UploadJSON(ctx, metadata, pinName)
	if err != nil {
		return "", "", fmt.Errorf("failed to pin metadata: %v", err)
	}

	tokenURI := FormatIPFSURI(pinResp.IpfsHash)
	return tokenURI, pinResp.IpfsHash, nil
}

// SaveCertificate records an issued certificate
func (ms *MetadataService) SaveCertificate(ctx context.Context, record *models.CertificateRecord) error {
	query := `
		INSERT INTO certificates (
			verification_id, sample_id, wallet_address, metal_type,
			weight_grams, purity, confidence, token_uri, token_id,
			ipfs_hash, contract_address, issued_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := ms.db.ExecContext(ctx, query,
		record.VerificationID, record.SampleID, record.WalletAddress, record.MetalType,
		record.WeightGrams, record.Purity, record.Confidence, record.TokenURI, record.TokenID,
		record.IPFSHash, record.ContractAddress, record.IssuedAt,
	)

	return err
}

// GetCertificate looks up a certificate by verification ID
func (ms *MetadataService) GetCertificate(ctx context.Context, verificationID string) (*models.CertificateRecord, error) {
	query := `
		SELECT verification_id, sample_id, wallet_address, metal_type,
		       weight_grams, purity, confidence, token_uri, token_id,
		       ipfs_hash, contract_address, issued_at
		FROM certificates WHERE verification_id = ?
	`

	var record models.CertificateRecord
	err := ms.db.QueryRowContext(ctx, query, verificationID).Scan(
		&record.VerificationID, &record.SampleID, &record.WalletAddress, &record.MetalType,
		&record.WeightGrams, &record.Purity, &record.Confidence, &record.TokenURI, &record.TokenID,
		&record.IPFSHash, &record.ContractAddress, &record.IssuedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("certificate not found: %s", verificationID)
		}
		return nil, fmt.Errorf("failed to get certificate: %v", err)
	}

	return &record, nil
}

// GetUserCertificates lists a wallet's certificates, newest first
func (ms *MetadataService) GetUserCertificates(ctx context.Context, walletAddress string) ([]models.CertificateRecord, error) {
	query := `
		SELECT verification_id, sample_id, wallet_address, metal_type,
		       weight_grams, purity, confidence, token_uri, token_id,
		       ipfs_hash, contract_address, issued_at
		FROM certificates WHERE wallet_address = ?
		ORDER BY issued_at DESC
	`

	rows, err := ms.db.QueryContext(ctx, query, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %v", err)
	}
	defer rows.Close()

	var records []models.CertificateRecord
	for rows.Next() {
		var record models.CertificateRecord
		err := rows.Scan(
			&record.VerificationID, &record.SampleID, &record.WalletAddress, &record.MetalType,
			&record.WeightGrams, &record.Purity, &record.Confidence, &record.TokenURI, &record.TokenID,
			&record.IPFSHash, &record.ContractAddress, &record.IssuedAt,
		)
		if err != nil {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// buildMetadata assembles the token metadata for one verified sample
func (ms *MetadataService) buildMetadata(req *models.IssueCertificateRequest) *models.CertificateMetadata {
	externalURL := fmt.Sprintf("%s/api/v1/history/record/%s", ms.baseURL, req.SampleID)

	image := req.ImageURL
	if image == "" {
		image = defaultSealImage
	}

	attributes := []models.Attribute{
		{
			TraitType: "Metal",
			Value:     metalName(req.MetalType),
		},
		{
			TraitType:   "Weight (g)",
			Value:       req.WeightGrams,
			DisplayType: "number",
		},
		{
			TraitType:   "Purity",
			Value:       req.Purity,
			DisplayType: "number",
		},
		{
			TraitType:   "Confidence",
			Value:       req.Confidence,
			DisplayType: "number",
		},
		{
			TraitType: "Verification ID",
			Value:     req.VerificationID,
		},
	}

	if req.VerifiedAt != "" {
		attributes = append(attributes, models.Attribute{
			TraitType:   "Verified At",
			Value:       req.VerifiedAt,
			DisplayType: "date",
		})
	}

	return &models.CertificateMetadata{
		Name:        fmt.Sprintf("Assay Certificate #%s", shortID(req.VerificationID)),
		Description: fmt.Sprintf("Verified %s sample of %.2f g at %.1f%% purity.", metalName(req.MetalType), req.WeightGrams, req.Purity*100),
		Image:       image,
		ExternalURL: externalURL,
		Attributes:  attributes,
	}
}

func (ms *MetadataService) certificateExists(ctx context.Context, verificationID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM certificates WHERE verification_id = ?"
	err := ms.db.QueryRowContext(ctx, query, verificationID).Scan(&count)
	return count > 0, err
}

func metalName(metalType int) string {
	switch metalType {
	case 1:
		return "Gold"
	case 2:
		return "Silver"
	default:
		return "Unknown"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
