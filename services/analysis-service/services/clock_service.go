package services

import (
	"strconv"
	"sync"
	"time"

	"github.com/god-protocol/assay-verifier/pkg/clock"
)

// ClockService tracks the analyst's own logical clock and its view of the
// station's clock
type ClockService struct {
	clock        *clock.StationClock
	stationClock *clock.StationClock // Tracked gateway clock state
	mutex        sync.RWMutex
}

// NewClockService creates a new clock service for an analyst
func NewClockService(analystID string) *ClockService {
	// Extract numeric part from analyst ID as clock slot
	slot := slotForAnalystID(analystID)

	return &ClockService{
		clock:        clock.New(slot),
		stationClock: clock.New(1), // Gateway fixed as station ID 1
	}
}

// ValidateClockSequence validates the clock progression reported by the station
func (cs *ClockService) ValidateClockSequence(stationClock *clock.StationClock, stationID int) bool {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if stationClock == nil || len(stationClock.Values) == 0 {
		return false
	}

	// The station's own component must advance
	if stationClock.GetValue(stationID) <= cs.stationClock.GetValue(stationID) {
		return false
	}

	// Check for causality violations
	for id, value := range cs.stationClock.Values {
		if id != stationID && stationClock.GetValue(id) < value {
			return false
		}
	}

	return true
}

// UpdateStationClock merges the station's reported clock into the tracked state
func (cs *ClockService) UpdateStationClock(stationClock *clock.StationClock) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if stationClock != nil {
		cs.stationClock.Merge(stationClock)
	}
}

// TickAnalystClock advances the analyst's own clock
func (cs *ClockService) TickAnalystClock() *clock.StationClock {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.clock.Tick()
	return cs.clock.Copy()
}

// GetCurrentClock returns the analyst's current clock
func (cs *ClockService) GetCurrentClock() *clock.StationClock {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return cs.clock.Copy()
}

// GetStationClock returns the tracked station clock
func (cs *ClockService) GetStationClock() *clock.StationClock {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return cs.stationClock.Copy()
}

// GetCurrentClockState returns both clocks for inspection
func (cs *ClockService) GetCurrentClockState() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	// Copy so the caller never serializes the live maps while they tick
	return map[string]interface{}{
		"analyst_clock": map[string]interface{}{
			"station_id": cs.clock.StationID,
			"values":     cs.clock.Copy().Values,
		},
		"station_clock": map[string]interface{}{
			"station_id": cs.stationClock.StationID,
			"values":     cs.stationClock.Copy().Values,
		},
		"timestamp": time.Now(),
	}
}

// slotForAnalystID maps an analyst ID to a clock slot.
// analyst-1 -> 2, analyst-2 -> 3, etc. Slot 1 is reserved for the station.
func slotForAnalystID(analystID string) int {
	const prefix = "analyst-"
	if len(analystID) > len(prefix) && analystID[:len(prefix)] == prefix {
		if id, err := strconv.Atoi(analystID[len(prefix):]); err == nil {
			return id + 1
		}
	}

	// Safe default slot
	return 2
}
