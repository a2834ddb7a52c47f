package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ServerwaveHost/wave-server-bundler/internal/bundle"
	"github.com/ServerwaveHost/wave-server-bundler/internal/cache"
	"github.com/ServerwaveHost/wave-server-bundler/internal/handlers"
	"github.com/ServerwaveHost/wave-server-bundler/internal/mcjars"
	"github.com/ServerwaveHost/wave-server-bundler/internal/modrinth"
	"github.com/ServerwaveHost/wave-server-bundler/internal/service"
	"github.com/ServerwaveHost/wave-server-bundler/internal/wiki"
)

const defaultUserAgent = "wave-server-bundler/1.0.0 (https://github.com/ServerwaveHost/wave-server-bundler)"

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Get port from environment or default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	userAgent := os.Getenv("USER_AGENT")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	// Initialize caches
	cacheConfig := cache.DefaultConfig()
	c, err := cache.New(cacheConfig)
	if err != nil {
		log.Printf("Warning: Cache initialization error: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	assetCache, err := cache.NewBytes(cacheConfig)
	if err != nil {
		log.Printf("Warning: Asset cache initialization error: %v", err)
	}
	defer func() {
		_ = assetCache.Close()
	}()

	// Initialize API clients
	content := modrinth.NewClient(os.Getenv("MODRINTH_API"), userAgent)
	jars := mcjars.NewClient(os.Getenv("MCJARS_API"), userAgent)
	rules := wiki.NewClient(os.Getenv("WIKI_API"), userAgent, wiki.HistoryParser{})

	// Initialize pipeline
	pipeline := bundle.New(jars, bundle.NewHTTPFetcher(userAgent, assetCache))
	if concStr := os.Getenv("DOWNLOAD_CONCURRENCY"); concStr != "" {
		if conc, err := strconv.Atoi(concStr); err == nil {
			pipeline.SetConcurrency(conc)
		}
	}

	// Initialize service
	svc := service.NewBundlerService(content, rules, pipeline, c)

	// Initialize handlers
	h := handlers.NewHandler(svc)

	// Setup router
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type")
		c.Header("Access-Control-Max-Age", "300")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health routes
	r.GET("/", h.HealthCheck)
	r.GET("/health", h.HealthCheck)

	// Content catalog
	r.GET("/tags/game_versions", h.GetGameVersions)
	r.GET("/tags/loaders", h.GetLoaders)
	r.GET("/tags/categories", h.GetCategories)
	r.GET("/search", h.Search)
	r.GET("/projects", h.GetProjects)
	r.GET("/project/:id/versions", h.GetProjectVersions)

	// Configuration engines
	r.POST("/compatibility", h.CheckCompatibility)
	r.GET("/properties/:version", h.GetProperties)
	r.POST("/properties/:version", h.SynthesizeProperties)
	r.GET("/gamerules/:version", h.GetGamerules)

	// Bundle assembly
	r.POST("/build", h.Build)

	// Create server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
