package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"hoardermap/internal/aggregate"
	"hoardermap/internal/config"
	"hoardermap/internal/db"
	"hoardermap/internal/processor"
)

var (
	processorURL = flag.String("processor", "http://localhost:8000", "Processor base URL")
	dataDir      = flag.String("data", "./data", "Directory to write per-device track files")
	chartsDir    = flag.String("charts", "", "Optional directory for per-device profile charts")
	dbFile       = flag.String("db", "hoardermap.db", "Path to the sqlite database")
	configFile   = flag.String("config", "", "Optional tuning config (JSON)")
	interval     = flag.Duration("interval", 0, "Re-run cadence; zero runs a single pass")
)

func main() {
	flag.Parse()

	var tuning *config.TuningConfig
	if *configFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	agg := &aggregate.Aggregator{
		Proc:      processor.New(*processorURL, nil),
		DB:        database,
		DataDir:   *dataDir,
		ChartsDir: *chartsDir,
		Pipeline:  aggregate.PipelineFromTuning(tuning),
		PageLimit: tuning.GetHistoryPageLimit(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func() {
		started := time.Now()
		if err := agg.Run(ctx); err != nil {
			log.Printf("aggregation pass failed: %v", err)
			return
		}
		log.Printf("aggregation pass finished in %s", time.Since(started).Round(time.Millisecond))
	}

	run()
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("aggregator stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
