package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"github.com/god-protocol/assay-verifier/dgraph"
	"github.com/god-protocol/assay-verifier/pkg/cert"
	"github.com/god-protocol/assay-verifier/pkg/graph"
	"github.com/god-protocol/assay-verifier/pkg/ledger"
	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/config"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/handlers"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/middleware"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/services"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/verifiers"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize database
	db, err := sql.Open("mysql", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// 3. Initialize the audit graph and typed graph store (optional)
	var auditGraph *dgraph.AuditGraph
	var graphClient *graph.Client
	if cfg.DgraphURL != "" {
		if err := dgraph.InitDgraph(cfg.DgraphURL); err != nil {
			log.Printf("Warning: audit graph unavailable, continuing without it: %v", err)
		} else {
			auditGraph = dgraph.NewAuditGraph(1, cfg.DgraphURL)
			stopCommit := auditGraph.StartAutoCommit(30 * time.Second)
			defer close(stopCommit)

			graphClient, err = graph.NewClient(cfg.DgraphURL)
			if err != nil {
				log.Printf("Warning: typed graph store unavailable: %v", err)
			} else if err := graphClient.SetupSchema(context.Background()); err != nil {
				log.Printf("Warning: failed to set graph schema: %v", err)
				graphClient = nil
			}
		}
	}

	// 4. Initialize intake verifier registry
	verifierRegistry := verifiers.NewVerifierRegistry()
	verifierRegistry.Register(verifiers.NewNovaVerifier(models.GoldBarSample, cfg.NovaMiddleLayerURL, cfg.NovaAPIKey))
	verifierRegistry.Register(verifiers.NewNovaVerifier(models.SilverBarSample, cfg.NovaMiddleLayerURL, cfg.NovaAPIKey))
	verifierRegistry.Register(verifiers.NewBatchAssayVerifier())

	// 5. Initialize services
	clockService := services.NewEnhancedClockService(services.NewDefaultClockStrategy())

	store, err := services.NewRecordStore(db, cfg.LogPath)
	if err != nil {
		log.Fatalf("Failed to initialize record store: %v", err)
	}

	// Analyst fan-out is only wired up when endpoints are configured;
	// otherwise the gateway runs standalone with built-in analysis
	var analystClient *services.AnalystClient
	if len(cfg.AnalystEndpoints) > 0 {
		var protocolEndpoints []protocol.AnalystEndpoint
		for _, ep := range cfg.AnalystEndpoints {
			protocolEndpoints = append(protocolEndpoints, protocol.AnalystEndpoint{
				ID:       ep.ID,
				Role:     ep.Role,
				URL:      ep.URL,
				Weight:   ep.Weight,
				Priority: ep.Priority,
			})
		}

		networkConfig := &protocol.NetworkConfig{
			AnalystEndpoints: protocolEndpoints,
			RequestTimeout:   30 * time.Second,
			MaxRetries:       3,
			RetryInterval:    5 * time.Second,
		}

		analystClient = services.NewAnalystClient(networkConfig, cfg.StationID, cfg.StationPrivateKey)
	}

	var ledgerClient *ledger.Client
	if cfg.LedgerServiceURL != "" {
		ledgerClient = ledger.NewClient(cfg.LedgerServiceURL)
	}

	var certClient *cert.Client
	if cfg.CertServiceURL != "" {
		certClient = cert.NewClient(cfg.CertServiceURL)
	}

	verificationService := services.NewVerificationService(
		store,
		verifierRegistry,
		clockService,
		analystClient,
		auditGraph,
		graphClient,
		ledgerClient,
		certClient,
		cfg.StationPrivateKey,
		cfg.StationID,
		cfg.ConfidenceThreshold,
	)

	// 6. Initialize async services
	batchAssayer := services.NewBatchAssayer(store, clockService, cfg.LedgerServiceURL, 5) // 5 workers

	ctx := context.Background()
	if err := batchAssayer.Start(ctx); err != nil {
		log.Fatalf("Failed to start batch assayer: %v", err)
	}
	verificationService.SetBatchAssayer(batchAssayer)

	// 7. Initialize handlers
	sampleHandler := handlers.NewSampleHandler(verificationService, batchAssayer)
	historyHandler := handlers.NewHistoryHandler(verificationService, clockService)
	healthHandler := handlers.NewHealthHandler(db)

	router := setupRoutes(sampleHandler, historyHandler, healthHandler)

	// 8. Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	log.Printf("AssayGateway server started on port %s", cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown Server ...")

	batchAssayer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}

func setupRoutes(
	sampleHandler *handlers.SampleHandler,
	historyHandler *handlers.HistoryHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit())

	// Health check
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API routes
	v1 := router.Group("/api/v1")
	{
		samples := v1.Group("/samples")
		{
			samples.POST("", sampleHandler.SubmitSample)
			samples.GET("/status/:id", sampleHandler.GetSampleStatus)
			samples.GET("/user/:wallet", sampleHandler.GetUserSamples)
		}

		history := v1.Group("/history")
		{
			history.GET("", historyHandler.GetHistory)
			history.GET("/record/:id", historyHandler.GetRecord)
			history.GET("/stats", historyHandler.GetStats)
			history.POST("/export", historyHandler.ExportHistory)
			history.POST("/import", historyHandler.ImportHistory)
		}

		clock := v1.Group("/clock")
		{
			clock.GET("/state", historyHandler.GetClockState)
			clock.GET("/events", historyHandler.GetClockEvents)
		}

		batch := v1.Group("/batch")
		{
			batch.GET("/queue", sampleHandler.GetBatchQueueStats)
		}
	}

	return router
}
