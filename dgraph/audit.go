package dgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/dgo/v210/protos/api"
	"github.com/god-protocol/assay-verifier/models"
)

// AuditGraph buffers verification events and commits them to Dgraph in batches
type AuditGraph struct {
	Events      []models.AuditEvent
	UIDMap      map[string]string
	EventMu     sync.RWMutex
	Depth       int
	StationID   int
	StationAddr string
}

// NewAuditGraph creates a new audit graph instance for a station
func NewAuditGraph(stationID int, stationAddr string) *AuditGraph {
	return &AuditGraph{
		Events:      make([]models.AuditEvent, 0),
		UIDMap:      make(map[string]string),
		Depth:       0,
		StationID:   stationID,
		StationAddr: stationAddr,
	}
}

// ClockToString converts a station clock value map to JSON string
func ClockToString(values map[int]int) string {
	b, _ := json.Marshal(values)
	return string(b)
}

// AddEvent records a verification event in the graph buffer and returns its event ID
func (ag *AuditGraph) AddEvent(name string, sampleID string, verificationID string, confidence float64, verified bool, metalType int, clockValues map[int]int, parentIDs []string) string {
	ag.EventMu.Lock()
	defer ag.EventMu.Unlock()

	ag.Depth++
	eventID := fmt.Sprintf("e%d_%d", ag.StationID, ag.Depth)

	eventUID := fmt.Sprintf("_:%s_%s_%d", name, sampleID, ag.Depth)

	for id, uid := range ag.UIDMap {
		if strings.Contains(uid, eventUID) {
			return id
		}
	}

	event := models.AuditEvent{
		UID:            eventUID,
		ID:             eventID,
		Name:           name,
		Clock:          ClockToString(clockValues),
		Depth:          ag.Depth,
		SampleID:       sampleID,
		MetalType:      metalType,
		Confidence:     confidence,
		Verified:       verified,
		VerificationID: verificationID,
		Station:        ag.StationAddr,
	}

	if len(parentIDs) > 0 {
		event.Parent = make([]models.ParentRef, 0, len(parentIDs))
		for _, id := range parentIDs {
			if uid, ok := ag.UIDMap[id]; ok {
				event.Parent = append(event.Parent, models.ParentRef{UID: uid})
			}
		}
	}

	ag.Events = append(ag.Events, event)
	ag.UIDMap[eventID] = event.UID

	return eventID
}

// CommitToGraph commits all pending events to Dgraph
func (ag *AuditGraph) CommitToGraph() error {
	ag.EventMu.Lock()
	defer ag.EventMu.Unlock()

	if len(ag.Events) == 0 {
		return nil
	}

	mutationJSON, err := json.Marshal(ag.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %v", err)
	}

	txn := Dg.NewTxn()
	defer txn.Discard(context.Background())

	mu := &api.Mutation{
		SetJson:   mutationJSON,
		CommitNow: true,
	}

	if _, err := txn.Mutate(context.Background(), mu); err != nil {
		return fmt.Errorf("failed to commit events to Dgraph: %v", err)
	}

	ag.Events = make([]models.AuditEvent, 0)

	log.Println("Assay audit graph committed to Dgraph")
	return nil
}

// StartAutoCommit starts automatic periodic commits to Dgraph
func (ag *AuditGraph) StartAutoCommit(interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := ag.CommitToGraph(); err != nil {
					log.Printf("Auto-commit error: %v", err)
				}
			case <-done:
				return
			}
		}
	}()

	return done
}
