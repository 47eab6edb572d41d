package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hoardermap/internal/api"
	"hoardermap/internal/config"
	"hoardermap/internal/db"
	"hoardermap/internal/engine"
	"hoardermap/internal/processor"
	"hoardermap/internal/track"
	"hoardermap/internal/units"
)

var (
	listen       = flag.String("listen", ":8080", "Listen address")
	processorURL = flag.String("processor", "http://localhost:8000", "Processor base URL")
	dataDir      = flag.String("data", "./data", "Directory of per-device track files")
	dbFile       = flag.String("db", "hoardermap.db", "Path to the sqlite database")
	configFile   = flag.String("config", "", "Optional tuning config (JSON)")
	speedUnits   = flag.String("units", units.MPS, "Speed units for the API (mps, mph, kmph, kph)")
	staticDir    = flag.String("static", "", "Optional static UI directory served at /")
	migrations   = flag.String("migrations", "", "Optional migrations directory to apply on startup")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q, must be one of %v", *speedUnits, units.ValidUnits)
	}

	var tuning *config.TuningConfig
	if *configFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		log.Printf("loaded tuning config from %s", *configFile)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if *migrations != "" {
		if err := database.MigrateUp(*migrations); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	proc := processor.New(*processorURL, nil)
	session := engine.NewSession(proc, track.NewDirSource(*dataDir), engine.NewMemorySurface(),
		nil, engine.SessionConfigFromTuning(tuning))
	defer session.Dispose()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(proc, session, database, *dataDir, *speedUnits).ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/data/", apiMux)
		if *staticDir != "" {
			mux.Handle("/", http.FileServer(http.Dir(*staticDir)))
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s (processor %s)", *listen, *processorURL)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
