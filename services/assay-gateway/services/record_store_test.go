package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

func TestRecordStoreLogRoundTrip(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "verification_log.json")

	rs := &RecordStore{logPath: logPath}
	require.NoError(t, rs.loadLog())
	assert.Empty(t, rs.LoggedRecords())

	records := []*models.VerificationRecord{
		{
			SampleID:        "s1",
			Verified:        true,
			Confidence:      0.87,
			MetalType:       models.MetalTypeGold,
			WeightGrams:     100,
			Purity:          0.999,
			VerificationID:  "abc123",
			Timestamp:       "2026-01-02T15:04:05Z",
			BlockchainReady: true,
		},
		{
			SampleID:   "s2",
			Verified:   false,
			Confidence: 0.42,
			MetalType:  models.MetalTypeSilver,
			Error:      "density out of tolerance",
		},
	}

	for _, r := range records {
		require.NoError(t, rs.appendToLog(r))
	}

	// A fresh store picks the history back up from disk
	reloaded := &RecordStore{logPath: logPath}
	require.NoError(t, reloaded.loadLog())

	got := reloaded.LoggedRecords()
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].SampleID)
	assert.True(t, got[0].Verified)
	assert.Equal(t, "abc123", got[0].VerificationID)
	assert.Equal(t, "s2", got[1].SampleID)
	assert.False(t, got[1].Verified)
	assert.Equal(t, "density out of tolerance", got[1].Error)
}

func TestRecordStoreLogMissingFile(t *testing.T) {
	rs := &RecordStore{logPath: filepath.Join(t.TempDir(), "missing.json")}
	require.NoError(t, rs.loadLog())
	assert.Empty(t, rs.LoggedRecords())
}

func TestRecordStoreLogCorruptFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "verification_log.json")
	require.NoError(t, os.WriteFile(logPath, []byte("{not json"), 0644))

	rs := &RecordStore{logPath: logPath}
	assert.Error(t, rs.loadLog())
}

func TestExportImportLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "verification_log.json")
	exportPath := filepath.Join(dir, "export.json")

	rs := &RecordStore{logPath: logPath}
	require.NoError(t, rs.appendToLog(&models.VerificationRecord{SampleID: "s1", Verified: true}))
	require.NoError(t, rs.appendToLog(&models.VerificationRecord{SampleID: "s2", Error: "rejected"}))

	count, err := rs.ExportLog(exportPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A fresh store with a separate log file imports the exported history
	otherLog := filepath.Join(dir, "other_log.json")
	other := &RecordStore{logPath: otherLog}
	require.NoError(t, other.loadLog())

	count, err = other.ImportLog(exportPath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got := other.LoggedRecords()
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].SampleID)
	assert.Equal(t, "rejected", got[1].Error)

	// The import also rewrites the store's own log file
	data, err := os.ReadFile(otherLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "s2")
}

func TestExportLogWithoutPath(t *testing.T) {
	rs := &RecordStore{}
	_, err := rs.ExportLog("")
	assert.Error(t, err)
}

func TestImportLogMissingFile(t *testing.T) {
	rs := &RecordStore{logPath: filepath.Join(t.TempDir(), "log.json")}
	_, err := rs.ImportLog(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoggedRecordsReturnsCopy(t *testing.T) {
	rs := &RecordStore{}
	require.NoError(t, rs.appendToLog(&models.VerificationRecord{SampleID: "s1"}))

	got := rs.LoggedRecords()
	got[0] = &models.VerificationRecord{SampleID: "tampered"}

	assert.Equal(t, "s1", rs.LoggedRecords()[0].SampleID)
}
