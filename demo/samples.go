package demo

import (
	"time"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/pkg/sensor"
	gateway "github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// SampleScenario is one predefined demo submission: the claimed properties,
// the captured sensor frame and the optional assay proof
type SampleScenario struct {
	Description string
	Claim       protocol.SampleClaim
	Frame       sensor.Frame
	Proof       *protocol.AssayProof
}

// demoScenarios returns the predefined demo batch. The batch mixes clean
// verifications with each of the standard rejection modes.
func demoScenarios() []SampleScenario {
	return []SampleScenario{
		{
			Description: "gold bar with embedded assay evidence",
			Claim:       protocol.SampleClaim{MetalType: gateway.MetalTypeGold, WeightGrams: 100, Purity: 0.999},
			Frame:       sensor.FlatFrame(sensor.DefaultFrameSize, 0.5),
			Proof: novaProof(map[string]interface{}{
				"density":                   gateway.GoldDensity,
				"purity":                    0.998,
				"ai_embedded_efficiency":    0.9,
				"thermal_stability":         0.8,
				"neural_interface_strength": 0.7,
			}),
		},
		{
			Description: "sterling silver bar without assay proof",
			Claim:       protocol.SampleClaim{MetalType: gateway.MetalTypeSilver, WeightGrams: 250, Purity: 0.925},
			Frame:       sensor.FlatFrame(sensor.DefaultFrameSize, 0.5),
		},
		{
			Description: "gold bar with purity drift",
			Claim:       protocol.SampleClaim{MetalType: gateway.MetalTypeGold, WeightGrams: 50, Purity: 0.999},
			Frame:       sensor.FlatFrame(sensor.DefaultFrameSize, 0.5),
			Proof: novaProof(map[string]interface{}{
				"purity": 0.90,
			}),
		},
		{
			Description: "silver bar with off-reference density",
			Claim:       protocol.SampleClaim{MetalType: gateway.MetalTypeSilver, WeightGrams: 500, Purity: 0.999},
			Frame:       sensor.FlatFrame(sensor.DefaultFrameSize, 0.5),
			Proof: novaProof(map[string]interface{}{
				"density": gateway.SilverDensity + 2.0,
			}),
		},
		{
			Description: "unknown metal code",
			Claim:       protocol.SampleClaim{MetalType: 3, WeightGrams: 100, Purity: 0.999},
			Frame:       sensor.FlatFrame(sensor.DefaultFrameSize, 0.5),
		},
		{
			Description: "gold bar with unstable sensor frame",
			Claim:       protocol.SampleClaim{MetalType: gateway.MetalTypeGold, WeightGrams: 100, Purity: 0.999},
			Frame:       noisyFrame(sensor.DefaultFrameSize),
		},
		{
			Description: "high-grade gold bar with strong evidence",
			Claim:       protocol.SampleClaim{MetalType: gateway.MetalTypeGold, WeightGrams: 1000, Purity: 0.9999},
			Frame:       sensor.FlatFrame(sensor.DefaultFrameSize, 0.5),
			Proof: novaProof(map[string]interface{}{
				"density":                   gateway.GoldDensity,
				"purity":                    0.9997,
				"ai_embedded_efficiency":    0.95,
				"thermal_stability":         0.92,
				"neural_interface_strength": 0.96,
			}),
		},
	}
}

// novaProof wraps evidence readings in a middle-layer proof envelope
func novaProof(evidence map[string]interface{}) *protocol.AssayProof {
	return &protocol.AssayProof{
		Provider:   "nova-middle-layer",
		VerifiedAt: time.Now(),
		Evidence:   evidence,
	}
}

// noisyFrame alternates between low and high readings to simulate an
// unstable capture
func noisyFrame(n int) sensor.Frame {
	frame := make(sensor.Frame, n)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 0.2
		} else {
			frame[i] = 0.8
		}
	}
	return frame
}
