package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/god-protocol/assay-verifier/pkg/clock"
)

func TestSlotForAnalystID(t *testing.T) {
	assert.Equal(t, 2, slotForAnalystID("analyst-1"))
	assert.Equal(t, 3, slotForAnalystID("analyst-2"))
	assert.Equal(t, 2, slotForAnalystID("quantum-node"))
	assert.Equal(t, 2, slotForAnalystID(""))
}

func TestGetCurrentClockStateSafeDuringTicks(t *testing.T) {
	cs := NewClockService("analyst-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			cs.TickAnalystClock()

			station := clock.New(1)
			station.Tick()
			cs.UpdateStationClock(station)
		}
	}()

	// Serializing the state must not touch the live clock maps
	for i := 0; i < 200; i++ {
		state := cs.GetCurrentClockState()
		_, err := json.Marshal(state)
		assert.NoError(t, err)
	}
	<-done
}

func TestValidateClockSequence(t *testing.T) {
	cs := NewClockService("analyst-1")

	assert.False(t, cs.ValidateClockSequence(nil, 1))
	assert.False(t, cs.ValidateClockSequence(clock.New(1), 1))

	advanced := clock.New(1)
	advanced.Tick()
	assert.True(t, cs.ValidateClockSequence(advanced, 1))

	cs.UpdateStationClock(advanced)

	// Same value is no longer an advance
	assert.False(t, cs.ValidateClockSequence(advanced, 1))

	again := advanced.Copy()
	again.Tick()
	assert.True(t, cs.ValidateClockSequence(again, 1))
}

func TestValidateClockSequenceCausality(t *testing.T) {
	cs := NewClockService("analyst-1")

	// Track a clock that has seen analyst slot 2 at value 3
	seen := clock.New(1)
	seen.Tick()
	seen.Values[2] = 3
	cs.UpdateStationClock(seen)

	// A later clock that regresses slot 2 violates causality
	regressed := clock.New(1)
	regressed.Tick()
	regressed.Tick()
	regressed.Values[2] = 1
	assert.False(t, cs.ValidateClockSequence(regressed, 1))

	regressed.Values[2] = 3
	assert.True(t, cs.ValidateClockSequence(regressed, 1))
}
