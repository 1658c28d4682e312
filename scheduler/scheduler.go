package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"propscrape/config"
	"propscrape/scraper"
)

// Scheduler drives recurring scrape cycles. A cron expression wins over
// a plain interval when both are configured.
type Scheduler struct {
	cfg          *config.Config
	orchestrator *scraper.Orchestrator
	cron         *cron.Cron
	ticker       *time.Ticker
	stopCh       chan struct{}
}

func New(cfg *config.Config, orchestrator *scraper.Orchestrator) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			if err := s.orchestrator.RunAll(ctx); err != nil {
				log.Printf("Scheduled run error: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
		return nil
	}

	if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					if err := s.orchestrator.RunAll(ctx); err != nil {
						log.Printf("Scheduled run error: %v", err)
					}
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}

	log.Println("No schedule configured, daemon idles until stopped")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) TriggerNow(ctx context.Context) error {
	return s.orchestrator.RunAll(ctx)
}
