// Assay verification pipeline demo.
//
// This is the standalone entry point for the sample verification network. It
// runs the complete verification flow in a single process: a sampling
// station submits a batch of metal samples, a material analyst and a quantum
// analyst assess each one, and a weighted consensus decides the outcome.
//
// Architecture:
//   - Station: captures sensor frames and submits sample claims
//   - Material analyst: checks density and purity against assay evidence
//   - Quantum analyst: scores sensor frame stability and entanglement
//   - Station clock: vector clock keeping the batch causally ordered
//   - Audit graph: per-sample events committed to Dgraph when available
//
// The networked deployment of the same pipeline lives under services/.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/god-protocol/assay-verifier/demo"
	"github.com/god-protocol/assay-verifier/dgraph"
)

// waitForDgraph probes the local Dgraph HTTP endpoint until it answers
func waitForDgraph() error {
	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		resp, err := http.Get("http://localhost:8080/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}

		fmt.Printf("Dgraph not ready yet (attempt %d/%d), waiting %v...\n", i+1, maxRetries, retryInterval)
		time.Sleep(retryInterval)
	}

	return fmt.Errorf("dgraph not ready after %d attempts", maxRetries)
}

func main() {
	fmt.Println("=== Assay Verification Pipeline Demo ===")
	fmt.Println("Architecture: in-process station, analysts and consensus")
	fmt.Println("")

	// Graph visualization is optional: the demo runs with or without a
	// local Dgraph instance
	graphAvailable := false
	if os.Getenv("SKIP_DGRAPH") == "true" {
		fmt.Println("Skipping Dgraph (SKIP_DGRAPH=true)")
	} else {
		fmt.Println("Waiting for Dgraph to be ready...")
		if err := waitForDgraph(); err != nil {
			fmt.Printf("Dgraph not available: %v\n", err)
			fmt.Println("Running demo without graph visualization...")
		} else {
			fmt.Println("Initializing Dgraph connection...")
			if err := dgraph.InitDgraph("localhost:9080"); err != nil {
				fmt.Printf("Dgraph initialization failed: %v\n", err)
				fmt.Println("Running demo without graph visualization...")
			} else {
				graphAvailable = true
			}
		}
	}
	fmt.Println("")

	coordinator := demo.NewCoordinator("demo-station-001")
	coordinator.RunDemo()

	if graphAvailable {
		fmt.Println("")
		fmt.Println("=== Committing Audit Graph to Dgraph ===")
		if err := coordinator.AuditGraph.CommitToGraph(); err != nil {
			fmt.Printf("Error committing audit graph: %v\n", err)
			fmt.Println("")
			fmt.Println("Troubleshooting:")
			fmt.Println("- Start Dgraph: docker run --rm -d --name dgraph-standalone -p 8080:8080 -p 9080:9080 -p 8000:8000 dgraph/standalone")
			fmt.Println("- Check status: docker ps | grep dgraph")
		} else {
			fmt.Println("Audit graph committed successfully!")
			fmt.Println("")
			fmt.Println("Visualization Access:")
			fmt.Println("- Ratel UI: http://localhost:8000")
			fmt.Println("- GraphQL: http://localhost:8080/graphql")
		}
	}

	fmt.Println("")
	fmt.Println("Demo complete.")
}
