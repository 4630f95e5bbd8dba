package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dgraph-io/dgo/v210"
	"github.com/dgraph-io/dgo/v210/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is the typed Dgraph store for verification decisions. It keeps the
// per-event vote breakdown queryable by sample, event or wallet, alongside
// the flat audit event stream the dgraph package maintains.
type Client struct {
	dg *dgo.Dgraph
}

// NewClient connects to Dgraph at the given gRPC address
func NewClient(dgraphURL string) (*Client, error) {
	conn, err := grpc.Dial(dgraphURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Dgraph: %v", err)
	}

	return &Client{dg: dgo.NewDgraphClient(api.NewDgraphClient(conn))}, nil
}

// SampleNode is a submitted sample in the graph
type SampleNode struct {
	UID         string  `json:"uid,omitempty"`
	Type        string  `json:"dgraph.type"`
	SampleID    string  `json:"sample_id"`
	UserWallet  string  `json:"user_wallet"`
	SampleType  string  `json:"sample_type"`
	MetalType   int     `json:"metal_type"`
	WeightGrams float64 `json:"weight_grams"`
	Purity      float64 `json:"purity"`
	Status      string  `json:"status"`
	EventID     string  `json:"event_id,omitempty"`
	Attempts    int     `json:"attempts"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// AnalysisNode is one analyst vote in the graph
type AnalysisNode struct {
	UID         string  `json:"uid,omitempty"`
	Type        string  `json:"dgraph.type"`
	EventID     string  `json:"event_id"`
	AnalystID   string  `json:"analyst_id"`
	AnalystRole string  `json:"analyst_role"`
	Vote        string  `json:"vote"`
	Confidence  float64 `json:"confidence"`
	Weight      float64 `json:"weight"`
	Timestamp   string  `json:"timestamp"`
}

// VerificationNode is a combined verification decision with its sample and
// vote breakdown
type VerificationNode struct {
	UID            string         `json:"uid,omitempty"`
	Type           string         `json:"dgraph.type"`
	EventID        string         `json:"event_id"`
	VerificationID string         `json:"verification_id,omitempty"`
	Confidence     float64        `json:"confidence"`
	Threshold      float64        `json:"threshold"`
	Verified       bool           `json:"verified"`
	Timestamp      string         `json:"timestamp"`
	SampleRef      SampleNode     `json:"sample_ref"`
	Analyses       []AnalysisNode `json:"analyses"`
}

// mutate marshals v and commits it as a single set mutation
func (c *Client) mutate(ctx context.Context, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %v", err)
	}

	txn := c.dg.NewTxn()
	defer txn.Discard(ctx)

	_, err = txn.Mutate(ctx, &api.Mutation{SetJson: payload, CommitNow: true})
	return err
}

// query runs a read-only query with variables and unmarshals the response
// into out
func (c *Client) query(ctx context.Context, q string, vars map[string]string, out interface{}) error {
	resp, err := c.dg.NewReadOnlyTxn().QueryWithVars(ctx, q, vars)
	if err != nil {
		return err
	}

	return json.Unmarshal(resp.Json, out)
}

// StoreSample stores a sample node on its own, before any decision exists
func (c *Client) StoreSample(ctx context.Context, sample *SampleNode) error {
	sample.Type = "Sample"

	if err := c.mutate(ctx, sample); err != nil {
		return fmt.Errorf("failed to store sample: %v", err)
	}

	log.Printf("Sample stored in graph: %s", sample.SampleID)
	return nil
}

// StoreVerification stores a decision with its sample and analyses attached
func (c *Client) StoreVerification(ctx context.Context, verification *VerificationNode) error {
	verification.Type = "Verification"
	verification.SampleRef.Type = "Sample"
	for i := range verification.Analyses {
		verification.Analyses[i].Type = "Analysis"
	}

	if err := c.mutate(ctx, verification); err != nil {
		return fmt.Errorf("failed to store verification: %v", err)
	}

	log.Printf("Verification stored in graph: %s", verification.EventID)
	return nil
}

const sampleFields = `
	uid
	sample_id
	user_wallet
	sample_type
	metal_type
	weight_grams
	purity
	status
	event_id
	created_at
	updated_at
`

// GetSample retrieves a sample by sample ID
func (c *Client) GetSample(ctx context.Context, sampleID string) (*SampleNode, error) {
	q := `query getSample($sampleID: string) {
		sample(func: eq(sample_id, $sampleID)) {` + sampleFields + `}
	}`

	var result struct {
		Sample []SampleNode `json:"sample"`
	}
	if err := c.query(ctx, q, map[string]string{"$sampleID": sampleID}, &result); err != nil {
		return nil, fmt.Errorf("failed to query sample: %v", err)
	}

	if len(result.Sample) == 0 {
		return nil, fmt.Errorf("sample not found: %s", sampleID)
	}

	return &result.Sample[0], nil
}

// GetVerification retrieves a verification decision by event ID, with its
// sample and vote breakdown
func (c *Client) GetVerification(ctx context.Context, eventID string) (*VerificationNode, error) {
	q := `query getVerification($eventID: string) {
		verification(func: eq(event_id, $eventID)) @filter(type(Verification)) {
			uid
			event_id
			verification_id
			confidence
			threshold
			verified
			timestamp
			sample_ref {` + sampleFields + `}
			analyses {
				analyst_id
				analyst_role
				vote
				confidence
				weight
				timestamp
			}
		}
	}`

	var result struct {
		Verification []VerificationNode `json:"verification"`
	}
	if err := c.query(ctx, q, map[string]string{"$eventID": eventID}, &result); err != nil {
		return nil, fmt.Errorf("failed to query verification: %v", err)
	}

	if len(result.Verification) == 0 {
		return nil, fmt.Errorf("verification not found: %s", eventID)
	}

	return &result.Verification[0], nil
}

// GetUserSamples retrieves samples submitted by a wallet, oldest first
func (c *Client) GetUserSamples(ctx context.Context, userWallet string, limit int) ([]SampleNode, error) {
	q := `query getUserSamples($userWallet: string, $limit: int) {
		samples(func: eq(user_wallet, $userWallet), first: $limit, orderasc: created_at) {` + sampleFields + `}
	}`

	vars := map[string]string{
		"$userWallet": userWallet,
		"$limit":      fmt.Sprintf("%d", limit),
	}

	var result struct {
		Samples []SampleNode `json:"samples"`
	}
	if err := c.query(ctx, q, vars, &result); err != nil {
		return nil, fmt.Errorf("failed to query user samples: %v", err)
	}

	return result.Samples, nil
}

// GetVerificationStats counts a wallet's decisions by outcome
func (c *Client) GetVerificationStats(ctx context.Context, userWallet string) (map[string]interface{}, error) {
	q := `query getVerificationStats($userWallet: string) {
		total(func: type(Verification)) @filter(eq(user_wallet, $userWallet)) {
			count(uid)
		}
		verified(func: type(Verification)) @filter(eq(verified, true)) @cascade {
			count(uid)
			sample_ref @filter(eq(user_wallet, $userWallet))
		}
	}`

	var result map[string]interface{}
	if err := c.query(ctx, q, map[string]string{"$userWallet": userWallet}, &result); err != nil {
		return nil, fmt.Errorf("failed to query verification stats: %v", err)
	}

	return result, nil
}

// SetupSchema installs the predicate and type schema for the typed store
func (c *Client) SetupSchema(ctx context.Context) error {
	schema := `
		sample_id: string @index(exact) .
		user_wallet: string @index(exact) .
		sample_type: string @index(exact) .
		status: string @index(exact) .
		event_id: string @index(exact) .
		analyst_id: string @index(exact) .
		analyst_role: string @index(exact) .
		vote: string @index(exact) .
		verification_id: string @index(exact) .
		metal_type: int .
		weight_grams: float .
		purity: float .
		confidence: float .
		weight: float .
		threshold: float .
		verified: bool @index(bool) .
		attempts: int .
		created_at: string .
		updated_at: string .
		completed_at: string .
		timestamp: string .
		sample_ref: uid .
		analyses: [uid] .

		type Sample {
			sample_id
			user_wallet
			sample_type
			metal_type
			weight_grams
			purity
			status
			event_id
			attempts
			created_at
			updated_at
			completed_at
		}

		type Analysis {
			event_id
			analyst_id
			analyst_role
			vote
			confidence
			weight
			timestamp
		}

		type Verification {
			event_id
			verification_id
			confidence
			threshold
			verified
			timestamp
			sample_ref
			analyses
		}
	`

	return c.dg.Alter(ctx, &api.Operation{Schema: schema})
}
