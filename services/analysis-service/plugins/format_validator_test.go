package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/pkg/sensor"
)

func TestValidateFormat(t *testing.T) {
	validator := NewSampleFormatValidator()

	base := func() *protocol.AnalysisRequest {
		return &protocol.AnalysisRequest{
			SampleID:  "sample-1",
			StationID: "station-1",
			Claim: protocol.SampleClaim{
				MetalType:   1,
				WeightGrams: 100,
				Purity:      0.999,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*protocol.AnalysisRequest)
		valid  bool
	}{
		{"valid gold claim", func(r *protocol.AnalysisRequest) {}, true},
		{"valid silver claim", func(r *protocol.AnalysisRequest) { r.Claim.MetalType = 2 }, true},
		{"missing sample id", func(r *protocol.AnalysisRequest) { r.SampleID = "" }, false},
		{"missing station id", func(r *protocol.AnalysisRequest) { r.StationID = "" }, false},
		{"unknown metal type", func(r *protocol.AnalysisRequest) { r.Claim.MetalType = 3 }, false},
		{"zero weight", func(r *protocol.AnalysisRequest) { r.Claim.WeightGrams = 0 }, false},
		{"negative weight", func(r *protocol.AnalysisRequest) { r.Claim.WeightGrams = -1 }, false},
		{"purity above one", func(r *protocol.AnalysisRequest) { r.Claim.Purity = 1.2 }, false},
		{"purity exactly one", func(r *protocol.AnalysisRequest) { r.Claim.Purity = 1.0 }, true},
		{"valid frame", func(r *protocol.AnalysisRequest) { r.SensorFrame = sensor.FlatFrame(8, 0.4) }, true},
		{"bad frame", func(r *protocol.AnalysisRequest) { r.SensorFrame = sensor.Frame{2.0} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := base()
			tt.mutate(request)

			result := validator.ValidateFormat(request)
			assert.Equal(t, tt.valid, result.Valid, result.Reason)
		})
	}
}
