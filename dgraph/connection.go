package dgraph

import (
	"context"
	"fmt"
	"log"

	"github.com/dgraph-io/dgo/v210"
	"github.com/dgraph-io/dgo/v210/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dg is the global Dgraph client instance
var Dg *dgo.Dgraph

// InitDgraph initializes the connection to Dgraph and installs the audit schema
func InitDgraph(address string) error {
	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to Dgraph: %v", err)
	}

	dc := api.NewDgraphClient(conn)
	Dg = dgo.NewDgraphClient(dc)

	op := &api.Operation{
		Schema: `
			id: string @index(exact) .
			name: string .
			clock: string .
			depth: int .
			sample_id: string @index(exact) .
			metal_type: int .
			confidence: float .
			verified: bool .
			verification_id: string @index(exact) .
			station: string .
			parent: [uid] .
			type AuditEvent {
				id
				name
				clock
				depth
				parent
				sample_id
				metal_type
				confidence
				verified
				verification_id
				station
			}
		`,
	}

	if err := Dg.Alter(context.Background(), op); err != nil {
		return fmt.Errorf("failed to set audit schema: %v", err)
	}

	log.Println("Connected to Dgraph and assay audit schema set successfully")
	return nil
}
