package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propscrape/config"
	"propscrape/httputil"
	"propscrape/logging"
	"propscrape/scheduler"
	"propscrape/scraper"
	"propscrape/storage"
	"propscrape/workers"
)

var (
	scrapeNow  = flag.Bool("scrape", false, "Run scrape once and exit")
	scrapeSite = flag.String("site", "", "Limit -scrape to one site ID")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting propscrape...")
	log.Printf("Loaded %d site configs", len(cfg.Sites))
	for id, site := range cfg.Sites {
		log.Printf("  - %s (%s)", site.Name, id)
	}

	clients := httputil.NewClients()

	ctx := context.Background()

	pgStore, err := storage.NewPostgresStore(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()
	log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Postgres.URL))

	opsStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer opsStore.Close()
	log.Printf("Operational database: %s", cfg.DBPath)

	orchestrator := scraper.NewOrchestrator(cfg, pgStore, opsStore, clients)
	defer orchestrator.Close()

	if *scrapeNow {
		log.Println("Running scrape...")
		if *scrapeSite != "" {
			err = orchestrator.RunSite(ctx, *scrapeSite)
		} else {
			err = orchestrator.RunAll(ctx)
		}
		if err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
		log.Println("Scrape complete!")
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, orchestrator)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	var uploader workers.S3Uploader = workers.NewNoOpUploader()
	if cfg.S3.Enabled {
		s3up, err := storage.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			log.Printf("Warning: S3 uploader unavailable, images stay unmirrored: %v", err)
		} else {
			uploader = s3up
			log.Printf("Mirroring images to bucket %s", cfg.S3.Bucket)
		}
	}

	mediaWorker := workers.NewMediaWorker(pgStore, clients, uploader)
	go mediaWorker.Run(ctx, 20, 2*time.Minute)
	log.Println("Media worker started")

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	sched.Stop()
	log.Println("Goodbye!")
}

// maskConnectionString masks the password in a connection string before
// it reaches the logs.
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
