package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoScenarioOutcomes(t *testing.T) {
	c := NewCoordinator("test-station")

	for _, scenario := range c.scenarios {
		c.processSample(scenario)
	}

	assert.Equal(t, 3, c.verifiedCount)
	assert.Equal(t, 4, c.rejectedCount)
	assert.Len(t, c.AuditGraph.Events, len(c.scenarios))
}

func TestDemoClockAdvancesPerSample(t *testing.T) {
	c := NewCoordinator("test-station")

	for _, scenario := range c.scenarios {
		c.processSample(scenario)
	}

	assert.Equal(t, len(c.scenarios), c.stationClock.GetValue(1))
}

func TestDemoAuditEventsCarryCausalParents(t *testing.T) {
	c := NewCoordinator("test-station")
	require.NotEmpty(t, c.scenarios)

	for _, scenario := range c.scenarios {
		c.processSample(scenario)
	}

	events := c.AuditGraph.Events
	require.Len(t, events, len(c.scenarios))

	// The first event has no parent, every later one links back
	assert.Empty(t, events[0].Parent)
	for _, event := range events[1:] {
		assert.Len(t, event.Parent, 1)
	}
}
