package clock

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// StationClock is a vector logical clock tracking causal order of verification
// events across assay stations. Each station ticks its own component when it
// verifies a sample and merges remote components when records arrive from peers.
type StationClock struct {
	StationID int          `json:"station_id"`
	Values    map[int]int  `json:"values"`
	mutex     sync.RWMutex `json:"-"`
	Timestamp time.Time    `json:"timestamp"`
}

// New creates a new clock for the given station
func New(stationID int) *StationClock {
	return &StationClock{
		StationID: stationID,
		Values:    make(map[int]int),
		Timestamp: time.Now(),
	}
}

// Tick increments the clock for the local station
func (sc *StationClock) Tick() {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	sc.Values[sc.StationID]++
	sc.Timestamp = time.Now()
}

// Update merges a received clock and ticks the local component
func (sc *StationClock) Update(other *StationClock) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	for stationID, value := range other.Values {
		if currentValue, exists := sc.Values[stationID]; !exists || value > currentValue {
			sc.Values[stationID] = value
		}
	}

	sc.Values[sc.StationID]++
	sc.Timestamp = time.Now()
}

// Merge takes the component-wise maximum with another clock without
// advancing the local component. Used by observers that track a remote
// clock rather than participate in it.
func (sc *StationClock) Merge(other *StationClock) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	for stationID, value := range other.Values {
		if currentValue, exists := sc.Values[stationID]; !exists || value > currentValue {
			sc.Values[stationID] = value
		}
	}
	sc.Timestamp = time.Now()
}

// GetValue returns the clock value for a specific station
func (sc *StationClock) GetValue(stationID int) int {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if value, exists := sc.Values[stationID]; exists {
		return value
	}
	return 0
}

// Copy creates a deep copy of the clock
func (sc *StationClock) Copy() *StationClock {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	newClock := &StationClock{
		StationID: sc.StationID,
		Values:    make(map[int]int),
		Timestamp: sc.Timestamp,
	}

	for stationID, value := range sc.Values {
		newClock.Values[stationID] = value
	}

	return newClock
}

// Compare compares two clocks
// Returns: -1 if sc < other, 0 if concurrent, 1 if sc > other
func (sc *StationClock) Compare(other *StationClock) int {
	if other == nil {
		return 1
	}

	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	other.mutex.RLock()
	defer other.mutex.RUnlock()

	allStations := make(map[int]bool)
	for stationID := range sc.Values {
		allStations[stationID] = true
	}
	for stationID := range other.Values {
		allStations[stationID] = true
	}

	lessThan := false
	greaterThan := false

	for stationID := range allStations {
		scValue := sc.Values[stationID]
		otherValue := other.Values[stationID]

		if scValue < otherValue {
			lessThan = true
		} else if scValue > otherValue {
			greaterThan = true
		}
	}

	if lessThan && !greaterThan {
		return -1
	} else if !lessThan && greaterThan {
		return 1
	}
	return 0
}

// HappensBefore checks if this event happened before another
func (sc *StationClock) HappensBefore(other *StationClock) bool {
	return sc.Compare(other) == -1
}

// HappensAfter checks if this event happened after another
func (sc *StationClock) HappensAfter(other *StationClock) bool {
	return sc.Compare(other) == 1
}

// IsConcurrent checks if two events are concurrent
func (sc *StationClock) IsConcurrent(other *StationClock) bool {
	return sc.Compare(other) == 0
}

// String returns a string representation of the clock
func (sc *StationClock) String() string {
	data, _ := json.Marshal(sc)
	return string(data)
}

// ToJSON converts the clock to JSON bytes
func (sc *StationClock) ToJSON() ([]byte, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	return json.Marshal(sc)
}

// FromJSON creates a clock from JSON bytes
func FromJSON(data []byte) (*StationClock, error) {
	var sc StationClock
	err := json.Unmarshal(data, &sc)
	if err != nil {
		return nil, err
	}

	if sc.Values == nil {
		sc.Values = make(map[int]int)
	}

	return &sc, nil
}

// Validate validates the clock structure
func (sc *StationClock) Validate() error {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if sc.Values == nil {
		return fmt.Errorf("values map cannot be nil")
	}

	if sc.StationID <= 0 {
		return fmt.Errorf("station ID must be positive")
	}

	if _, exists := sc.Values[sc.StationID]; !exists {
		return fmt.Errorf("missing clock value for local station %d", sc.StationID)
	}

	for stationID, value := range sc.Values {
		if value < 0 {
			return fmt.Errorf("negative clock value for station %d: %d", stationID, value)
		}
	}

	return nil
}

// Stations returns all station IDs in the clock
func (sc *StationClock) Stations() []int {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	stations := make([]int, 0, len(sc.Values))
	for stationID := range sc.Values {
		stations = append(stations, stationID)
	}

	return stations
}

// IsEmpty checks if the clock has no entries
func (sc *StationClock) IsEmpty() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	return len(sc.Values) == 0
}
