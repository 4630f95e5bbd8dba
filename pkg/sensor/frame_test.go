package sensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyntheticFrame(t *testing.T) {
	frame := NewSyntheticFrame(DefaultFrameSize)
	require.Len(t, frame, DefaultFrameSize)
	assert.NoError(t, frame.Validate())

	// Non-positive sizes fall back to the default sweep length
	assert.Len(t, NewSyntheticFrame(0), DefaultFrameSize)
	assert.Len(t, NewSyntheticFrame(-5), DefaultFrameSize)
}

func TestFlatFrame(t *testing.T) {
	frame := FlatFrame(1024, 0.5)
	require.Len(t, frame, 1024)
	assert.InDelta(t, 0.5, frame.Mean(), 1e-12)
	assert.Equal(t, 0.5, frame.Peak())
}

func TestValidate(t *testing.T) {
	assert.Error(t, Frame{}.Validate())
	assert.Error(t, Frame{0.2, 1.5}.Validate())
	assert.Error(t, Frame{-0.1}.Validate())
	assert.Error(t, Frame{math.NaN()}.Validate())
	assert.NoError(t, Frame{0, 0.5, 1}.Validate())
}

func TestMeanAndPeak(t *testing.T) {
	frame := Frame{0.1, 0.2, 0.9}
	assert.InDelta(t, 0.4, frame.Mean(), 1e-12)
	assert.Equal(t, 0.9, frame.Peak())

	assert.Equal(t, 0.0, Frame{}.Mean())
}

func TestNormalize(t *testing.T) {
	frame := Frame{0.3, 0.4}
	unit := frame.Normalize()

	var sum float64
	for _, v := range unit {
		sum += v * v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// Zero vector stays untouched
	zero := Frame{0, 0}
	assert.Equal(t, zero, zero.Normalize())
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 0.5, Dot(Frame{0.5, 0.5}, Frame{0.5, 0.5}), 1e-12)
	assert.Equal(t, 0.0, Dot(Frame{1}, Frame{1, 2}), "mismatched lengths")
}
