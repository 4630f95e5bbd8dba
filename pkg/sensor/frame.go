package sensor

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultFrameSize is the number of readings captured per embedded-sensor sweep.
const DefaultFrameSize = 256

// Frame holds one sweep of readings from an AI-embedded material sensor.
// Each reading is normalized to [0, 1).
type Frame []float64

// NewSyntheticFrame generates a synthetic frame of n random readings.
// Used when a sample arrives without captured sensor data.
func NewSyntheticFrame(n int) Frame {
	if n <= 0 {
		n = DefaultFrameSize
	}

	frame := make(Frame, n)
	for i := range frame {
		frame[i] = rand.Float64()
	}
	return frame
}

// FlatFrame returns a frame of n identical readings. Used as the neutral
// quantum input state when no sensor capture is available.
func FlatFrame(n int, value float64) Frame {
	frame := make(Frame, n)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

// Validate checks that the frame is non-empty and every reading is in [0, 1]
func (f Frame) Validate() error {
	if len(f) == 0 {
		return fmt.Errorf("frame cannot be empty")
	}

	for i, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("reading %d is not finite", i)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("reading %d out of range: %f", i, v)
		}
	}

	return nil
}

// Mean returns the arithmetic mean of the readings
func (f Frame) Mean() float64 {
	if len(f) == 0 {
		return 0
	}

	var sum float64
	for _, v := range f {
		sum += v
	}
	return sum / float64(len(f))
}

// Peak returns the largest reading
func (f Frame) Peak() float64 {
	var peak float64
	for _, v := range f {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Normalize scales the frame to unit length
func (f Frame) Normalize() Frame {
	var sum float64
	for _, v := range f {
		sum += v * v
	}
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return f
	}

	result := make(Frame, len(f))
	for i, v := range f {
		result[i] = v / magnitude
	}
	return result
}

// Dot returns the dot product of two frames of equal length
func Dot(a, b Frame) float64 {
	if len(a) != len(b) {
		return 0
	}

	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
