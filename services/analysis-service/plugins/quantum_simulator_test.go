package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/pkg/sensor"
)

func TestVerifyFlatFrameScoresPerfectly(t *testing.T) {
	simulator := NewFrameQuantumSimulator()

	request := &protocol.AnalysisRequest{
		SampleID:    "sample-1",
		SensorFrame: sensor.FlatFrame(16, 0.5),
	}

	result := simulator.Verify(request)

	require.True(t, result.Accept)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.InDelta(t, 1.0, result.Readings["quantum_stability"], 1e-9)
	assert.InDelta(t, 1.0, result.Readings["entanglement_score"], 1e-9)
	assert.InDelta(t, 0.5, result.Readings["frame_mean"], 1e-9)
	assert.InDelta(t, 16, result.Readings["frame_size"], 1e-9)
}

func TestVerifyNoisyFrameLowersStability(t *testing.T) {
	simulator := NewFrameQuantumSimulator()

	// Alternating extremes give the widest possible spread
	frame := make(sensor.Frame, 16)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 1
		}
	}

	result := simulator.Verify(&protocol.AnalysisRequest{SensorFrame: frame})

	require.True(t, result.Accept)
	assert.InDelta(t, 0.0, result.Readings["quantum_stability"], 1e-9)
	assert.Less(t, result.Confidence, 0.5)
}

func TestVerifyRejectsMissingFrame(t *testing.T) {
	simulator := NewFrameQuantumSimulator()

	result := simulator.Verify(&protocol.AnalysisRequest{})

	assert.False(t, result.Accept)
	assert.Zero(t, result.Confidence)
}

func TestVerifyRejectsOutOfRangeFrame(t *testing.T) {
	simulator := NewFrameQuantumSimulator()

	result := simulator.Verify(&protocol.AnalysisRequest{
		SensorFrame: sensor.Frame{0.5, 1.5, 0.5},
	})

	assert.False(t, result.Accept)
	assert.Zero(t, result.Confidence)
}
