// Package scheduler regenerates the sitemap on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/romangod6/sitemapgen/internal/logger"
	"github.com/romangod6/sitemapgen/internal/sitemap"
)

// Runner is the part of sitemap.Generator the scheduler drives.
type Runner interface {
	Run(ctx context.Context, opts sitemap.Options) (*sitemap.Result, error)
}

type Scheduler struct {
	logger   logger.Logger
	runner   Runner
	opts     sitemap.Options
	schedule string

	cron    *cron.Cron
	parser  cron.Parser
	entryID cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New validates the 5-field cron expression and returns a stopped scheduler.
func New(log logger.Logger, runner Runner, schedule string, opts sitemap.Options) (*Scheduler, error) {
	if log == nil {
		log = logger.NewNop()
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("failed to parse cron expression %q: %w", schedule, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		logger:   log,
		runner:   runner,
		opts:     opts,
		schedule: schedule,
		parser:   parser,
		cron:     cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		ctx:      ctx,
		cancel:   cancel,
	}

	id, err := s.cron.AddFunc(schedule, s.Trigger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Sitemap scheduler started",
		logger.String("schedule", s.schedule),
		logger.String("next_run", s.Next(time.Now()).Format("2006-01-02 15:04:05")),
	)
}

// Stop cancels an in-flight run and waits for it to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping sitemap scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Sitemap scheduler stopped")
}

// Next returns the first scheduled run after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	schedule, err := s.parser.Parse(s.schedule)
	if err != nil {
		return time.Time{}
	}
	return schedule.Next(t)
}

// Trigger runs one regeneration with the scheduler's options. It is what
// the cron entry calls; a run already in progress is skipped.
func (s *Scheduler) Trigger() {
	s.wg.Add(1)
	defer s.wg.Done()

	if s.ctx.Err() != nil {
		return
	}

	s.logger.Info("Cron triggered sitemap generation", logger.String("schedule", s.schedule))
	_, err := s.runner.Run(s.ctx, s.opts)
	switch {
	case errors.Is(err, sitemap.ErrRunInProgress):
		s.logger.Warn("Skipping scheduled generation, a run is already in progress")
	case err != nil:
		s.logger.Error("Scheduled generation failed", logger.Error(err))
	}
}
