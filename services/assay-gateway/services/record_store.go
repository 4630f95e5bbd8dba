package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// RecordStore persists samples and verification records. Samples and records
// go to MySQL; the verification history is additionally mirrored to a JSON
// log file so a station can be audited without database access.
type RecordStore struct {
	db      *sql.DB
	logPath string

	logMu  sync.Mutex
	logged []*models.VerificationRecord
}

// NewRecordStore creates a record store and loads any existing history log
func NewRecordStore(db *sql.DB, logPath string) (*RecordStore, error) {
	rs := &RecordStore{
		db:      db,
		logPath: logPath,
		logged:  make([]*models.VerificationRecord, 0),
	}

	if err := rs.loadLog(); err != nil {
		return nil, fmt.Errorf("failed to load verification log: %v", err)
	}

	return rs, nil
}

// Sample operations

// SaveSample inserts a new sample record
func (rs *RecordStore) SaveSample(ctx context.Context, sample *models.Sample) error {
	payloadJSON, _ := json.Marshal(sample.Payload)

	query := `
		INSERT INTO samples (id, user_wallet, sample_type, metal_type, weight_grams, purity, status, payload, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := rs.db.ExecContext(ctx, query,
		sample.ID, sample.UserWallet, sample.SampleType, sample.MetalType,
		sample.WeightGrams, sample.Purity, sample.Status,
		payloadJSON, sample.Attempts, sample.CreatedAt, sample.UpdatedAt,
	)

	return err
}

// UpdateSample updates a sample after verification work
func (rs *RecordStore) UpdateSample(ctx context.Context, sample *models.Sample) error {
	payloadJSON, _ := json.Marshal(sample.Payload)
	proofJSON, _ := json.Marshal(sample.Proof)
	clockJSON, _ := json.Marshal(sample.Clock)

	query := `
		UPDATE samples
		SET status = ?, payload = ?, proof = ?, updated_at = ?, event_id = ?, station_clock = ?
		WHERE id = ?
	`

	_, err := rs.db.ExecContext(ctx, query,
		sample.Status, payloadJSON, proofJSON, sample.UpdatedAt,
		sample.EventID, clockJSON, sample.ID,
	)

	return err
}

// UpdateSampleStatus updates only the status of a sample
func (rs *RecordStore) UpdateSampleStatus(ctx context.Context, sampleID string, status models.SampleStatus) error {
	query := `UPDATE samples SET status = ?, updated_at = ? WHERE id = ?`
	_, err := rs.db.ExecContext(ctx, query, status, time.Now(), sampleID)
	return err
}

// UpdateSampleStatusWithProof updates a sample's status and proof payload
func (rs *RecordStore) UpdateSampleStatusWithProof(ctx context.Context, sampleID string, status models.SampleStatus, proof []byte) error {
	if proof == nil {
		return rs.UpdateSampleStatus(ctx, sampleID, status)
	}

	query := `UPDATE samples SET status = ?, proof = ?, updated_at = ?, completed_at = ? WHERE id = ?`
	completedAt := sql.NullTime{}
	if status == models.SampleVerified || status == models.SampleFailed {
		completedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	_, err := rs.db.ExecContext(ctx, query, status, proof, time.Now(), completedAt, sampleID)
	return err
}

// GetSample retrieves a sample by ID
func (rs *RecordStore) GetSample(ctx context.Context, sampleID string) (*models.Sample, error) {
	query := `
		SELECT id, user_wallet, sample_type, metal_type, weight_grams, purity, status,
		       payload, proof, attempts, created_at, updated_at, completed_at, event_id, station_clock
		FROM samples
		WHERE id = ?
	`

	row := rs.db.QueryRowContext(ctx, query, sampleID)

	var sample models.Sample
	var payloadJSON, proofJSON []byte
	var completedAt sql.NullTime
	var eventID, clockJSON sql.NullString

	err := row.Scan(
		&sample.ID, &sample.UserWallet, &sample.SampleType, &sample.MetalType,
		&sample.WeightGrams, &sample.Purity, &sample.Status,
		&payloadJSON, &proofJSON, &sample.Attempts,
		&sample.CreatedAt, &sample.UpdatedAt, &completedAt, &eventID, &clockJSON,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payloadJSON, &sample.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %v", err)
	}

	if len(proofJSON) > 0 {
		if err := json.Unmarshal(proofJSON, &sample.Proof); err != nil {
			return nil, fmt.Errorf("failed to unmarshal proof: %v", err)
		}
	}

	if clockJSON.Valid && len(clockJSON.String) > 0 {
		if err := json.Unmarshal([]byte(clockJSON.String), &sample.Clock); err != nil {
			return nil, fmt.Errorf("failed to unmarshal station_clock: %v", err)
		}
	}

	if completedAt.Valid {
		sample.CompletedAt = &completedAt.Time
	}

	if eventID.Valid {
		sample.EventID = eventID.String
	}

	return &sample, nil
}

// GetUserSamples retrieves samples for a user with pagination
func (rs *RecordStore) GetUserSamples(ctx context.Context, userWallet string, page, limit int) ([]*models.Sample, int, error) {
	offset := (page - 1) * limit

	countQuery := `SELECT COUNT(*) FROM samples WHERE user_wallet = ?`
	var total int
	if err := rs.db.QueryRowContext(ctx, countQuery, userWallet).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_wallet, sample_type, metal_type, weight_grams, purity, status,
		       payload, attempts, created_at, updated_at
		FROM samples
		WHERE user_wallet = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := rs.db.QueryContext(ctx, query, userWallet, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var samples []*models.Sample
	for rows.Next() {
		var sample models.Sample
		var payloadJSON []byte

		err := rows.Scan(
			&sample.ID, &sample.UserWallet, &sample.SampleType, &sample.MetalType,
			&sample.WeightGrams, &sample.Purity, &sample.Status,
			&payloadJSON, &sample.Attempts, &sample.CreatedAt, &sample.UpdatedAt,
		)
		if err != nil {
			continue // Skip failed records
		}

		if err := json.Unmarshal(payloadJSON, &sample.Payload); err != nil {
			continue
		}

		samples = append(samples, &sample)
	}

	return samples, total, nil
}

// Verification record operations

// SaveRecord persists one verification attempt. The record always lands in
// the log, whether verification succeeded, failed, or errored.
func (rs *RecordStore) SaveRecord(ctx context.Context, record *models.VerificationRecord) error {
	aiJSON, _ := json.Marshal(record.AIAnalysis)
	quantumJSON, _ := json.Marshal(record.QuantumVerification)
	clockJSON, _ := json.Marshal(record.Clock)

	query := `
		INSERT INTO verifications (sample_id, verified, confidence, metal_type, weight_grams, purity,
		                           verification_id, timestamp, ai_analysis, quantum_verification,
		                           ai_confidence, quantum_confidence, blockchain_ready, station_clock, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := rs.db.ExecContext(ctx, query,
		record.SampleID, record.Verified, record.Confidence, record.MetalType,
		record.WeightGrams, record.Purity, record.VerificationID, record.Timestamp,
		aiJSON, quantumJSON, record.AIConfidence, record.QuantumConfidence,
		record.BlockchainReady, clockJSON, record.Error,
	); err != nil {
		return err
	}

	return rs.appendToLog(record)
}

// GetRecordBySample retrieves the latest verification record for a sample
func (rs *RecordStore) GetRecordBySample(ctx context.Context, sampleID string) (*models.VerificationRecord, error) {
	query := `
		SELECT sample_id, verified, confidence, metal_type, weight_grams, purity,
		       verification_id, timestamp, ai_analysis, quantum_verification,
		       ai_confidence, quantum_confidence, blockchain_ready, station_clock, error
		FROM verifications
		WHERE sample_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	row := rs.db.QueryRowContext(ctx, query, sampleID)
	return scanRecord(row)
}

// GetHistory retrieves verification records with pagination
func (rs *RecordStore) GetHistory(ctx context.Context, page, limit int) ([]*models.VerificationRecord, int, error) {
	offset := (page - 1) * limit

	countQuery := `SELECT COUNT(*) FROM verifications`
	var total int
	if err := rs.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT sample_id, verified, confidence, metal_type, weight_grams, purity,
		       verification_id, timestamp, ai_analysis, quantum_verification,
		       ai_confidence, quantum_confidence, blockchain_ready, station_clock, error
		FROM verifications
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := rs.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*models.VerificationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			continue // Skip failed records
		}
		records = append(records, record)
	}

	return records, total, nil
}

// GetStats returns aggregate verification statistics
func (rs *RecordStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN verified THEN 1 ELSE 0 END) as verified,
			AVG(confidence) as avg_confidence
		FROM verifications
	`

	var total, verified int
	var avgConfidence sql.NullFloat64

	if err := rs.db.QueryRowContext(ctx, query).Scan(&total, &verified, &avgConfidence); err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"total":    total,
		"verified": verified,
		"rejected": total - verified,
	}

	if avgConfidence.Valid {
		stats["avg_confidence"] = avgConfidence.Float64
	} else {
		stats["avg_confidence"] = 0.0
	}

	if total > 0 {
		stats["success_rate"] = float64(verified) / float64(total) * 100
	} else {
		stats["success_rate"] = 0.0
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.VerificationRecord, error) {
	var record models.VerificationRecord
	var aiJSON, quantumJSON []byte
	var clockJSON sql.NullString

	err := row.Scan(
		&record.SampleID, &record.Verified, &record.Confidence, &record.MetalType,
		&record.WeightGrams, &record.Purity, &record.VerificationID, &record.Timestamp,
		&aiJSON, &quantumJSON, &record.AIConfidence, &record.QuantumConfidence,
		&record.BlockchainReady, &clockJSON, &record.Error,
	)
	if err != nil {
		return nil, err
	}

	if len(aiJSON) > 0 {
		if err := json.Unmarshal(aiJSON, &record.AIAnalysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ai_analysis: %v", err)
		}
	}

	if len(quantumJSON) > 0 {
		if err := json.Unmarshal(quantumJSON, &record.QuantumVerification); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quantum_verification: %v", err)
		}
	}

	if clockJSON.Valid && len(clockJSON.String) > 0 {
		if err := json.Unmarshal([]byte(clockJSON.String), &record.Clock); err != nil {
			return nil, fmt.Errorf("failed to unmarshal station_clock: %v", err)
		}
	}

	return &record, nil
}

// JSON history log

// loadLog loads the existing verification log from disk
func (rs *RecordStore) loadLog() error {
	rs.logMu.Lock()
	defer rs.logMu.Unlock()

	if rs.logPath == "" {
		return nil
	}

	data, err := os.ReadFile(rs.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, &rs.logged)
}

// appendToLog appends a record and rewrites the log file
func (rs *RecordStore) appendToLog(record *models.VerificationRecord) error {
	rs.logMu.Lock()
	defer rs.logMu.Unlock()

	rs.logged = append(rs.logged, record)

	if rs.logPath == "" {
		return nil
	}

	data, err := json.MarshalIndent(rs.logged, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(rs.logPath, data, 0644)
}

// LoggedRecords returns a copy of the in-memory history log
func (rs *RecordStore) LoggedRecords() []*models.VerificationRecord {
	rs.logMu.Lock()
	defer rs.logMu.Unlock()

	out := make([]*models.VerificationRecord, len(rs.logged))
	copy(out, rs.logged)
	return out
}

// ExportLog writes the in-memory history log to the given path. An empty
// path falls back to the configured log path.
func (rs *RecordStore) ExportLog(path string) (int, error) {
	rs.logMu.Lock()
	defer rs.logMu.Unlock()

	if path == "" {
		path = rs.logPath
	}
	if path == "" {
		return 0, fmt.Errorf("no export path configured")
	}

	data, err := json.MarshalIndent(rs.logged, "", "  ")
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, err
	}

	return len(rs.logged), nil
}

// ImportLog replaces the in-memory history log with the records found at
// the given path and rewrites the configured log file.
func (rs *RecordStore) ImportLog(path string) (int, error) {
	rs.logMu.Lock()
	defer rs.logMu.Unlock()

	if path == "" {
		path = rs.logPath
	}
	if path == "" {
		return 0, fmt.Errorf("no import path configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var records []*models.VerificationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("failed to parse history log: %v", err)
	}

	rs.logged = records

	if rs.logPath != "" && rs.logPath != path {
		if err := os.WriteFile(rs.logPath, data, 0644); err != nil {
			return len(records), fmt.Errorf("imported %d records but failed to rewrite log: %v", len(records), err)
		}
	}

	return len(records), nil
}
