package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickAndGetValue(t *testing.T) {
	sc := New(1)
	assert.True(t, sc.IsEmpty())

	sc.Tick()
	sc.Tick()

	assert.Equal(t, 2, sc.GetValue(1))
	assert.Equal(t, 0, sc.GetValue(2))
	assert.False(t, sc.IsEmpty())
}

func TestUpdateMergesAndTicks(t *testing.T) {
	local := New(1)
	local.Tick() // {1:1}

	remote := New(2)
	remote.Tick()
	remote.Tick() // {2:2}

	local.Update(remote)

	assert.Equal(t, 2, local.GetValue(1), "local component ticks on merge")
	assert.Equal(t, 2, local.GetValue(2), "remote component taken at max")
}

func TestMergeDoesNotTick(t *testing.T) {
	observer := New(2)

	station := New(1)
	station.Tick()
	station.Tick() // {1:2}

	observer.Merge(station)

	assert.Equal(t, 2, observer.GetValue(1), "station component taken at max")
	assert.Equal(t, 0, observer.GetValue(2), "own component untouched")
}

func TestCompareOrdering(t *testing.T) {
	a := New(1)
	a.Tick()

	b := a.Copy()
	b.Tick()

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.True(t, a.HappensBefore(b))
	assert.True(t, b.HappensAfter(a))

	// Concurrent: each station ahead on its own component
	c := New(1)
	c.Tick()
	d := New(2)
	d.Tick()
	assert.Equal(t, 0, c.Compare(d))
	assert.True(t, c.IsConcurrent(d))

	// Nil comparison treated as strictly earlier
	assert.Equal(t, 1, a.Compare(nil))
}

func TestCopyIsIndependent(t *testing.T) {
	sc := New(3)
	sc.Tick()

	cp := sc.Copy()
	cp.Tick()

	assert.Equal(t, 1, sc.GetValue(3))
	assert.Equal(t, 2, cp.GetValue(3))
}

func TestJSONRoundTrip(t *testing.T) {
	sc := New(2)
	sc.Tick()
	sc.Update(New(5))

	data, err := sc.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, sc.StationID, restored.StationID)
	assert.Equal(t, sc.GetValue(2), restored.GetValue(2))
	assert.NoError(t, restored.Validate())
}

func TestValidate(t *testing.T) {
	sc := New(0)
	assert.Error(t, sc.Validate(), "station ID must be positive")

	sc = New(1)
	assert.Error(t, sc.Validate(), "local component missing before first tick")

	sc.Tick()
	assert.NoError(t, sc.Validate())

	sc.Values[4] = -1
	assert.Error(t, sc.Validate())
}
