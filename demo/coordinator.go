// Package demo implements a self-contained demonstration of the assay
// verification pipeline.
//
// The coordinator runs the full flow in-process with hardcoded sample
// scenarios: a sampling station submits claims, a material analyst and a
// quantum analyst assess each one, and a weighted consensus decides whether
// the sample is verified. Audit events are buffered for Dgraph the same way
// the gateway buffers its own, so the causal history can be visualized when
// a Dgraph instance is reachable.
//
// The scenarios cover both clean verifications and the standard rejection
// modes: purity drift, density mismatch, unknown metal codes and unstable
// sensor frames.
package demo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/god-protocol/assay-verifier/dgraph"
	"github.com/god-protocol/assay-verifier/pkg/clock"
	"github.com/god-protocol/assay-verifier/pkg/crypto"
	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/services/analysis-service/plugins"
)

// Coordinator orchestrates the in-process demonstration: one sampling
// station, one material analyst and one quantum analyst, all wired directly
// without HTTP in between.
type Coordinator struct {
	StationID    string
	stationClock *clock.StationClock
	threshold    float64

	formatValidator  plugins.FormatValidator
	materialAssessor plugins.MaterialAssessor
	quantumSimulator plugins.QuantumSimulator

	AuditGraph *dgraph.AuditGraph

	scenarios   []SampleScenario
	lastEventID string

	verifiedCount int
	rejectedCount int
}

// NewCoordinator creates a demo coordinator with the standard analyst
// plugins and the predefined sample scenarios
func NewCoordinator(stationID string) *Coordinator {
	return &Coordinator{
		StationID:        stationID,
		stationClock:     clock.New(1),
		threshold:        0.8,
		formatValidator:  plugins.NewSampleFormatValidator(),
		materialAssessor: plugins.NewNovaMaterialAssessor(),
		quantumSimulator: plugins.NewFrameQuantumSimulator(),
		AuditGraph:       dgraph.NewAuditGraph(1, stationID),
		scenarios:        demoScenarios(),
	}
}

// RunDemo processes every scenario and prints a summary
func (c *Coordinator) RunDemo() {
	fmt.Printf("=== Starting Assay Verification Demo ===\n")
	fmt.Printf("Station ID: %s\n", c.StationID)
	fmt.Printf("Analysts: material (weight %.1f), quantum (weight %.1f)\n",
		protocol.MaterialWeight, protocol.QuantumWeight)
	fmt.Printf("Confidence threshold: %.2f\n\n", c.threshold)

	for i, scenario := range c.scenarios {
		fmt.Printf("--- Processing Sample %d: %s ---\n", i+1, scenario.Description)
		c.processSample(scenario)
		fmt.Println()
		time.Sleep(200 * time.Millisecond)
	}

	c.printSummary()
}

// processSample runs one scenario through format validation, both analysts
// and the consensus decision
func (c *Coordinator) processSample(scenario SampleScenario) {
	sampleID := uuid.New().String()

	// The station ticks its clock for each sample intake
	c.stationClock.Tick()
	fmt.Printf("Station clock: %s\n", c.stationClock.String())

	request := &protocol.AnalysisRequest{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.AnalysisRequestMessage,
			MessageID: uuid.New().String(),
			Timestamp: time.Now(),
		},
		SampleID:    sampleID,
		StationID:   c.StationID,
		EventID:     uuid.New().String(),
		Clock:       c.stationClock.Copy(),
		Claim:       scenario.Claim,
		SensorFrame: scenario.Frame,
		Proof:       scenario.Proof,
	}

	if result := c.formatValidator.ValidateFormat(request); !result.Valid {
		fmt.Printf("Format validation failed: %s\n", result.Reason)
		c.rejectedCount++
		c.recordOutcome(sampleID, "", 0, false, scenario.Claim.MetalType)
		return
	}

	material := c.materialAssessor.Assess(request)
	fmt.Printf("Material analyst: accept=%v confidence=%.2f (%s)\n",
		material.Accept, material.Confidence, material.Reason)

	quantum := c.quantumSimulator.Verify(request)
	fmt.Printf("Quantum analyst:  accept=%v confidence=%.2f (%s)\n",
		quantum.Accept, quantum.Confidence, quantum.Reason)

	confidence := protocol.MaterialWeight*material.Confidence +
		protocol.QuantumWeight*quantum.Confidence
	verified := confidence > c.threshold

	verificationID := ""
	if verified {
		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		verificationID = crypto.MintVerificationID(
			scenario.Claim.MetalType, scenario.Claim.WeightGrams, scenario.Claim.Purity, timestamp)
		c.verifiedCount++
		fmt.Printf("Consensus: VERIFIED (confidence %.3f > %.2f)\n", confidence, c.threshold)
		fmt.Printf("Verification ID: %s\n", verificationID)
	} else {
		c.rejectedCount++
		fmt.Printf("Consensus: REJECTED (confidence %.3f <= %.2f)\n", confidence, c.threshold)
	}

	c.recordOutcome(sampleID, verificationID, confidence, verified, scenario.Claim.MetalType)
}

// recordOutcome appends an audit event linked to the previous one so the
// graph carries the causal order of the run
func (c *Coordinator) recordOutcome(sampleID, verificationID string, confidence float64, verified bool, metalType int) {
	var parents []string
	if c.lastEventID != "" {
		parents = []string{c.lastEventID}
	}

	c.lastEventID = c.AuditGraph.AddEvent(
		"demo_verify", sampleID, verificationID, confidence, verified, metalType,
		c.stationClock.Values, parents)
}

// printSummary prints the final state of the demo run
func (c *Coordinator) printSummary() {
	fmt.Printf("=== Demo Summary ===\n")
	fmt.Printf("Samples processed: %d\n", len(c.scenarios))
	fmt.Printf("Verified: %d\n", c.verifiedCount)
	fmt.Printf("Rejected: %d\n", c.rejectedCount)
	fmt.Printf("Final station clock: %s\n", c.stationClock.String())
	fmt.Printf("Audit events buffered: %d\n", len(c.AuditGraph.Events))
}
