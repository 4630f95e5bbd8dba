package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/god-protocol/assay-verifier/pkg/clock"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// ClockService manages the station's logical clock
type ClockService struct {
	clock *clock.StationClock
	mutex sync.RWMutex
}

// NewClockService creates a new clock service
func NewClockService() *ClockService {
	return &ClockService{
		clock: clock.New(1), // Station ID = 1
	}
}

// TickStationClock increments the station's logical clock
func (cs *ClockService) TickStationClock() *clock.StationClock {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.clock.Tick()
	return cs.clock.Copy()
}

// GetCurrentClock returns a copy of the current clock
func (cs *ClockService) GetCurrentClock() *clock.StationClock {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return cs.clock.Copy()
}

// UpdateClock merges a clock received from a peer station
func (cs *ClockService) UpdateClock(receivedClock *clock.StationClock) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.clock.Update(receivedClock)
}

// GetClockValue returns the current clock value for a specific station
func (cs *ClockService) GetClockValue(stationID int) int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return cs.clock.GetValue(stationID)
}

// GetClockState returns the current state of the station clock
func (cs *ClockService) GetClockState() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	// Copy so the caller never serializes the live map while Tick mutates it
	return map[string]interface{}{
		"station_id": cs.clock.StationID,
		"values":     cs.clock.Copy().Values,
		"timestamp":  time.Now(),
	}
}

// ClockStrategy defines when and how the station clock ticks for different sample types
type ClockStrategy interface {
	ShouldTickOnSubmission(sampleType models.SampleType) bool
	ShouldTickOnVerification(sampleType models.SampleType) bool
	GetTickCount(sampleType models.SampleType, payload map[string]interface{}) int
	GetEventDescription(sampleType models.SampleType, stage string) string
}

// DefaultClockStrategy implements the default tick strategy
type DefaultClockStrategy struct{}

// NewDefaultClockStrategy creates a new default clock strategy
func NewDefaultClockStrategy() *DefaultClockStrategy {
	return &DefaultClockStrategy{}
}

// ShouldTickOnSubmission determines if the clock ticks when a sample is submitted
func (dcs *DefaultClockStrategy) ShouldTickOnSubmission(sampleType models.SampleType) bool {
	// Intake alone is not verified work; the clock advances only once a
	// verification decision lands.
	return false
}

// ShouldTickOnVerification determines if the clock ticks when a sample is verified
func (dcs *DefaultClockStrategy) ShouldTickOnVerification(sampleType models.SampleType) bool {
	return true
}

// GetTickCount determines how far the clock advances
func (dcs *DefaultClockStrategy) GetTickCount(sampleType models.SampleType, payload map[string]interface{}) int {
	switch sampleType {
	case models.BatchAssaySample:
		// Batch re-verification advances the clock per sample processed
		if samples, ok := payload["samples"].([]interface{}); ok {
			count := len(samples)
			// Minimum 1, maximum 10 (avoid the clock growing too fast)
			if count > 10 {
				return 10
			}
			if count < 1 {
				return 1
			}
			return count
		}
		return 1
	default:
		return 1
	}
}

// GetEventDescription provides a description for the clock tick event
func (dcs *DefaultClockStrategy) GetEventDescription(sampleType models.SampleType, stage string) string {
	switch sampleType {
	case models.GoldBarSample:
		if stage == "verification" {
			return "Gold bar verified"
		}
		return "Gold bar submitted"
	case models.SilverBarSample:
		if stage == "verification" {
			return "Silver bar verified"
		}
		return "Silver bar submitted"
	case models.BatchAssaySample:
		if stage == "verification" {
			return "Batch assay completed"
		}
		return "Batch assay submitted"
	default:
		return fmt.Sprintf("%s %s", sampleType, stage)
	}
}

// ClockEvent represents a clock tick event
type ClockEvent struct {
	SampleID    string                 `json:"sample_id"`
	SampleType  models.SampleType      `json:"sample_type"`
	Stage       string                 `json:"stage"` // "submission" or "verification"
	Description string                 `json:"description"`
	Ticks       int                    `json:"ticks"`
	ClockBefore *clock.StationClock    `json:"clock_before"`
	ClockAfter  *clock.StationClock    `json:"clock_after"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// EnhancedClockService extends ClockService with strategy-based ticks
type EnhancedClockService struct {
	*ClockService
	strategy ClockStrategy
	mu       sync.Mutex
	events   []ClockEvent // Clock event history
}

// NewEnhancedClockService creates a new enhanced clock service
func NewEnhancedClockService(strategy ClockStrategy) *EnhancedClockService {
	return &EnhancedClockService{
		ClockService: NewClockService(),
		strategy:     strategy,
		events:       make([]ClockEvent, 0),
	}
}

// TickForSample advances the clock based on sample type and pipeline stage
func (ecs *EnhancedClockService) TickForSample(
	ctx context.Context,
	sampleID string,
	sampleType models.SampleType,
	stage string,
	payload map[string]interface{},
) *clock.StationClock {
	shouldTick := false
	switch stage {
	case "submission":
		shouldTick = ecs.strategy.ShouldTickOnSubmission(sampleType)
	case "verification":
		shouldTick = ecs.strategy.ShouldTickOnVerification(sampleType)
	}

	if !shouldTick {
		return ecs.GetCurrentClock()
	}

	tickCount := ecs.strategy.GetTickCount(sampleType, payload)

	clockBefore := ecs.GetCurrentClock()

	var clockAfter *clock.StationClock
	for i := 0; i < tickCount; i++ {
		clockAfter = ecs.TickStationClock()
	}

	event := ClockEvent{
		SampleID:    sampleID,
		SampleType:  sampleType,
		Stage:       stage,
		Description: ecs.strategy.GetEventDescription(sampleType, stage),
		Ticks:       tickCount,
		ClockBefore: clockBefore,
		ClockAfter:  clockAfter,
		Payload:     payload,
	}

	ecs.mu.Lock()
	ecs.events = append(ecs.events, event)
	// Limit event history length
	if len(ecs.events) > 1000 {
		ecs.events = ecs.events[len(ecs.events)-1000:]
	}
	ecs.mu.Unlock()

	return clockAfter
}

// GetClockEvents returns recent clock events
func (ecs *EnhancedClockService) GetClockEvents(limit int) []ClockEvent {
	ecs.mu.Lock()
	defer ecs.mu.Unlock()

	if limit <= 0 || limit > len(ecs.events) {
		return ecs.events
	}

	start := len(ecs.events) - limit
	return ecs.events[start:]
}

// GetClockEventsForSample returns clock events for a specific sample
func (ecs *EnhancedClockService) GetClockEventsForSample(sampleID string) []ClockEvent {
	ecs.mu.Lock()
	defer ecs.mu.Unlock()

	var sampleEvents []ClockEvent
	for _, event := range ecs.events {
		if event.SampleID == sampleID {
			sampleEvents = append(sampleEvents, event)
		}
	}
	return sampleEvents
}
