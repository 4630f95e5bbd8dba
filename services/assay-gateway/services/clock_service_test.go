package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/pkg/clock"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

func TestClockServiceTickAndMerge(t *testing.T) {
	cs := NewClockService()

	assert.Equal(t, 0, cs.GetClockValue(1))

	cs.TickStationClock()
	cs.TickStationClock()
	assert.Equal(t, 2, cs.GetClockValue(1))

	peerClock := clock.New(2)
	for i := 0; i < 5; i++ {
		peerClock.Tick()
	}

	cs.UpdateClock(peerClock)
	assert.Equal(t, 2, cs.GetClockValue(1))
	assert.Equal(t, 5, cs.GetClockValue(2))
}

func TestGetClockStateSafeDuringTicks(t *testing.T) {
	cs := NewClockService()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			cs.TickStationClock()
		}
	}()

	// Serializing the state must not touch the live clock map
	for i := 0; i < 200; i++ {
		state := cs.GetClockState()
		_, err := json.Marshal(state)
		require.NoError(t, err)
	}
	<-done

	values, ok := cs.GetClockState()["values"].(map[int]int)
	require.True(t, ok)
	assert.Equal(t, 200, values[1])
}

func TestDefaultStrategyTickRules(t *testing.T) {
	strategy := NewDefaultClockStrategy()

	assert.False(t, strategy.ShouldTickOnSubmission(models.GoldBarSample))
	assert.False(t, strategy.ShouldTickOnSubmission(models.BatchAssaySample))
	assert.True(t, strategy.ShouldTickOnVerification(models.GoldBarSample))
	assert.True(t, strategy.ShouldTickOnVerification(models.SilverBarSample))
}

func TestDefaultStrategyBatchTickCount(t *testing.T) {
	strategy := NewDefaultClockStrategy()

	assert.Equal(t, 1, strategy.GetTickCount(models.GoldBarSample, nil))

	threeSamples := map[string]interface{}{
		"samples": []interface{}{"a", "b", "c"},
	}
	assert.Equal(t, 3, strategy.GetTickCount(models.BatchAssaySample, threeSamples))

	bigBatch := make([]interface{}, 25)
	assert.Equal(t, 10, strategy.GetTickCount(models.BatchAssaySample, map[string]interface{}{
		"samples": bigBatch,
	}), "batch ticks are capped at 10")

	assert.Equal(t, 1, strategy.GetTickCount(models.BatchAssaySample, map[string]interface{}{
		"samples": []interface{}{},
	}))

	assert.Equal(t, 1, strategy.GetTickCount(models.BatchAssaySample, map[string]interface{}{}))
}

func TestEnhancedClockServiceTickForSample(t *testing.T) {
	ecs := NewEnhancedClockService(NewDefaultClockStrategy())
	ctx := context.Background()

	// Submission does not advance the clock
	after := ecs.TickForSample(ctx, "s1", models.GoldBarSample, "submission", nil)
	assert.Equal(t, 0, after.GetValue(1))
	assert.Empty(t, ecs.GetClockEvents(0))

	// Verification advances by one
	after = ecs.TickForSample(ctx, "s1", models.GoldBarSample, "verification", nil)
	assert.Equal(t, 1, after.GetValue(1))

	events := ecs.GetClockEvents(0)
	require.Len(t, events, 1)
	assert.Equal(t, "s1", events[0].SampleID)
	assert.Equal(t, "Gold bar verified", events[0].Description)
	assert.Equal(t, 1, events[0].Ticks)
	assert.Equal(t, 0, events[0].ClockBefore.GetValue(1))
	assert.Equal(t, 1, events[0].ClockAfter.GetValue(1))
}

func TestEnhancedClockServiceBatchVerification(t *testing.T) {
	ecs := NewEnhancedClockService(NewDefaultClockStrategy())
	ctx := context.Background()

	payload := map[string]interface{}{
		"samples": []interface{}{"a", "b", "c", "d"},
	}

	after := ecs.TickForSample(ctx, "batch-1", models.BatchAssaySample, "verification", payload)
	assert.Equal(t, 4, after.GetValue(1))

	events := ecs.GetClockEventsForSample("batch-1")
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Ticks)
	assert.Equal(t, "Batch assay completed", events[0].Description)
}
