package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/god-protocol/assay-verifier/services/analysis-service/config"
	"github.com/god-protocol/assay-verifier/services/analysis-service/handlers"
	"github.com/god-protocol/assay-verifier/services/analysis-service/middleware"
	"github.com/god-protocol/assay-verifier/services/analysis-service/plugins"
	"github.com/god-protocol/assay-verifier/services/analysis-service/services"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize services
	// The analyst keeps all state in memory: clocks, the replay guard and
	// its signing key. There is no database behind this service.
	clockService := services.NewClockService(cfg.AnalystID)

	analystConfig := cfg.GetAnalystConfig()

	formatValidator := plugins.NewSampleFormatValidator()
	materialAssessor := plugins.NewNovaMaterialAssessor()
	quantumSimulator := plugins.NewFrameQuantumSimulator()

	analysisService := services.NewAnalysisService(analystConfig, clockService, materialAssessor, quantumSimulator, formatValidator)

	// 3. Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// 4. Setup routes
	router := setupRoutes(analysisHandler)

	// 5. Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	log.Printf("Analysis server (%s, role %s) started on port %s", cfg.AnalystID, cfg.AnalystRole, cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}

func setupRoutes(analysisHandler *handlers.AnalysisHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check
	router.GET("/health", analysisHandler.Health)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", analysisHandler.AnalyzeSample)
		v1.GET("/config", analysisHandler.GetConfig)
		v1.GET("/clock", analysisHandler.GetClockState)
		v1.GET("/health", analysisHandler.Health)
	}

	return router
}
