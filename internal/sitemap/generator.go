package sitemap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/romangod6/sitemapgen/internal/hooks"
	"github.com/romangod6/sitemapgen/internal/logger"
	"github.com/romangod6/sitemapgen/internal/metrics"
)

// ErrRunInProgress is returned when Run is called while another run of the
// same Generator has not finished.
var ErrRunInProgress = errors.New("sitemap: generation already running")

// Result describes a finished run.
type Result struct {
	RunID      string        `json:"run_id"`
	Entries    int           `json:"entries"`
	TotalPages int           `json:"total_pages"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration"`
}

type GeneratorConfig struct {
	URLsPerPage int
	Hooks       *hooks.Registry
	Metrics     *metrics.Metrics
	Logger      logger.Logger
	Clock       func() time.Time
}

// Generator runs a build followed by a write. Runs are serialized within the
// process; separate processes must be kept apart by whoever schedules them.
type Generator struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	running atomic.Bool
	last    atomic.Pointer[Result]

	builder *Builder
	writer  *Writer
	config  GeneratorConfig
}

func NewGenerator(builder *Builder, writer *Writer, config GeneratorConfig) *Generator {
	if config.URLsPerPage <= 0 {
		config.URLsPerPage = DefaultURLsPerPage
	}
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Generator{builder: builder, writer: writer, config: config}
}

// Running reports whether a run is in progress.
func (g *Generator) Running() bool {
	return g.running.Load()
}

// LastResult returns the most recent successful run, nil before the first.
func (g *Generator) LastResult() *Result {
	return g.last.Load()
}

// URLsPerPage returns the configured page size after hooks.
func (g *Generator) URLsPerPage() int {
	return hooks.Apply(g.config.Hooks, hooks.URLsPerPage, g.config.URLsPerPage)
}

// Run builds and writes the sitemap, returning ErrRunInProgress without
// waiting when another run holds the generator.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	if !g.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer g.mu.Unlock()

	g.running.Store(true)
	defer g.running.Store(false)
	return g.run(ctx, opts)
}

// Start claims the generator before returning and runs in the background.
// Cancelling ctx stops the build; a write that has begun is completed.
func (g *Generator) Start(ctx context.Context, opts Options) error {
	if !g.mu.TryLock() {
		return ErrRunInProgress
	}
	g.running.Store(true)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.mu.Unlock()
		defer g.running.Store(false)
		// failures are logged and counted by run
		_, _ = g.run(ctx, opts)
	}()
	return nil
}

// Wait blocks until every run launched by Start has returned.
func (g *Generator) Wait() {
	g.wg.Wait()
}

func (g *Generator) run(ctx context.Context, opts Options) (*Result, error) {
	started := g.config.Clock()
	res := &Result{RunID: uuid.NewString(), Started: started}
	log := g.config.Logger.With(logger.String("run_id", res.RunID))

	perPage := g.URLsPerPage()
	opts.URLsPerPage = perPage

	log.Info("Sitemap generation started",
		logger.String("range", opts.Range.String()),
		logger.Int("urls_per_page", perPage),
	)

	entries, err := g.builder.Build(ctx, opts)
	g.config.Metrics.ObserveBuild(g.config.Clock().Sub(started))
	if err != nil {
		g.finish(log, res, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		g.finish(log, res, err)
		return nil, err
	}
	res.Entries = len(entries)

	// Cancellation does not cut a write short.
	writeStarted := g.config.Clock()
	total, err := g.writer.Write(context.WithoutCancel(ctx), entries, perPage)
	g.config.Metrics.ObserveWrite(g.config.Clock().Sub(writeStarted))
	if err != nil {
		g.finish(log, res, err)
		return nil, err
	}
	res.TotalPages = total

	g.finish(log, res, nil)
	g.last.Store(res)
	return res, nil
}

func (g *Generator) finish(log logger.Logger, res *Result, err error) {
	end := g.config.Clock()
	res.Duration = end.Sub(res.Started)
	g.config.Metrics.RunFinished(err, res.TotalPages, end)

	if err != nil {
		log.Error("Sitemap generation failed", logger.Error(err), logger.Duration("duration", res.Duration))
		return
	}
	log.Info("Sitemap generation finished",
		logger.Int("entries", res.Entries),
		logger.Int("total_pages", res.TotalPages),
		logger.Duration("duration", res.Duration),
	)
}
