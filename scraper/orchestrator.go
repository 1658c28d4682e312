package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"propscrape/config"
	"propscrape/extract"
	"propscrape/httputil"
	"propscrape/models"
	"propscrape/page"
	"propscrape/services"
	"propscrape/storage"
)

// Orchestrator runs scrape cycles across all configured sites. Each site
// gets its own handler and listing service; detail pages are worked by a
// pool so a slow page does not stall the whole run.
type Orchestrator struct {
	cfg      *config.Config
	ops      *storage.SQLiteStore
	store    *storage.PostgresStore
	handlers map[string]Handler
	services map[string]*services.ListingService
}

func NewOrchestrator(cfg *config.Config, store *storage.PostgresStore, ops *storage.SQLiteStore, clients *httputil.Clients) *Orchestrator {
	handlers := make(map[string]Handler)
	svcs := make(map[string]*services.ListingService)
	for id, siteCfg := range cfg.Sites {
		handlers[id] = NewHandler(siteCfg, clients)
		svcs[id] = services.NewListingService(store, ops, extract.New(siteCfg.Extraction), id)
	}

	return &Orchestrator{
		cfg:      cfg,
		ops:      ops,
		store:    store,
		handlers: handlers,
		services: svcs,
	}
}

func (o *Orchestrator) Close() {
	for _, h := range o.handlers {
		h.Close()
	}
}

func (o *Orchestrator) RunAll(ctx context.Context) error {
	for siteID := range o.cfg.Sites {
		if err := o.RunSite(ctx, siteID); err != nil {
			log.Printf("Error running site %s: %v", siteID, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) RunSite(ctx context.Context, siteID string) error {
	siteCfg, ok := o.cfg.Sites[siteID]
	if !ok {
		return fmt.Errorf("unknown site: %s", siteID)
	}
	handler := o.handlers[siteID]
	svc := o.services[siteID]

	run := &models.ScrapeRun{
		SiteID:    siteID,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := o.ops.CreateRun(run)
	if err != nil {
		return err
	}
	run.ID = runID

	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s", siteCfg.Name), siteID)

	stats := &services.ProcessStats{}
	var mu sync.Mutex

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		stats.ApplyTo(run)
		if err := o.ops.UpdateRun(run); err != nil {
			log.Printf("Warning: failed to update run: %v", err)
		}
		if err := o.ops.UpdateSiteStats(siteID); err != nil {
			log.Printf("Warning: failed to update site stats: %v", err)
		}
	}()

	urls, err := handler.Discover(ctx)
	if err != nil {
		o.log(run.ID, models.LogLevelError, fmt.Sprintf("Discovery failed: %v", err), siteID)
		run.Status = models.RunStatusFailed
		stats.Errors++
		return err
	}

	stats.URLsFound = len(urls)
	o.log(run.ID, models.LogLevelInfo, fmt.Sprintf("Discovered %d listing URLs", len(urls)), siteID)

	workers := o.cfg.Scraper.Workers
	if workers < 1 {
		workers = 1
	}
	delay := time.Duration(siteCfg.RateLimitMS) * time.Millisecond

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rawURL := range jobs {
				if ctx.Err() != nil {
					continue
				}
				o.visitOne(ctx, handler, svc, rawURL, &run.ID, stats, &mu)
				time.Sleep(delay)
			}
		}()
	}

	for _, rawURL := range urls {
		if ctx.Err() != nil {
			break
		}
		jobs <- rawURL
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		run.Status = models.RunStatusFailed
		return ctx.Err()
	}

	run.Status = models.RunStatusCompleted
	o.log(run.ID, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d found, %d created, %d updated, %d skipped, %d errors",
			stats.URLsFound, stats.Created, stats.Updated, stats.Skipped, stats.Errors), siteID)

	return nil
}

func (o *Orchestrator) visitOne(ctx context.Context, handler Handler, svc *services.ListingService, rawURL string, runID *int64, stats *services.ProcessStats, mu *sync.Mutex) {
	err := handler.Visit(ctx, rawURL, func(ctx context.Context, p page.Page) error {
		result, err := svc.ProcessListing(ctx, p, runID)
		if err != nil {
			return err
		}
		mu.Lock()
		stats.Aggregate(result)
		mu.Unlock()
		return nil
	})
	if err == nil {
		return
	}

	mu.Lock()
	stats.Errors++
	mu.Unlock()

	var loadErr *page.LoadError
	if errors.As(err, &loadErr) {
		svc.MarkFailed(ctx, rawURL, err, runID)
		return
	}
	o.log(*runID, models.LogLevelError, fmt.Sprintf("Process error for %s: %v", rawURL, err), handler.ID())
}

func (o *Orchestrator) log(runID int64, level models.LogLevel, message, siteID string) {
	log.Printf("[%s] %s: %s", level, siteID, message)
	if err := o.ops.Log(&runID, level, message, siteID); err != nil {
		log.Printf("Warning: failed to write scrape log: %v", err)
	}
}

func (o *Orchestrator) GetSiteIDs() []string {
	var ids []string
	for id := range o.cfg.Sites {
		ids = append(ids, id)
	}
	return ids
}
