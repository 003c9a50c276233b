package sitemap_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/romangod6/sitemapgen/internal/content"
	"github.com/romangod6/sitemapgen/internal/hooks"
	"github.com/romangod6/sitemapgen/internal/logger"
	"github.com/romangod6/sitemapgen/internal/metrics"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/sitemap"
	"github.com/romangod6/sitemapgen/internal/storage"
)

func newGenerator(t *testing.T, repo content.Repository, store storage.Store, reg *hooks.Registry, m *metrics.Metrics) *sitemap.Generator {
	t.Helper()
	b := newBuilder(t, repo, sitemap.BuilderConfig{Hooks: reg, Metrics: m})
	w := sitemap.NewWriter(store, sitemap.Sink{}, m)
	return sitemap.NewGenerator(b, w, sitemap.GeneratorConfig{
		URLsPerPage: 2,
		Hooks:       reg,
		Metrics:     m,
		Clock:       fixedClock,
	})
}

func seededRepo() *content.MemoryRepository {
	repo := testRepo()
	for i := int64(1); i <= 4; i++ {
		addPost(repo, i, fmt.Sprintf("post-%d", i), buildTime.Add(-time.Duration(i)*time.Hour),
			`<img src="/wp-content/uploads/a.jpg"><img src="/wp-content/uploads/b.jpg" alt="B">`)
	}
	repo.AddTerm(models.Term{ID: 1, Taxonomy: "category", Slug: "news", Count: 4})
	return repo
}

func TestGenerator_Run(t *testing.T) {
	store := storage.NewMemoryStore(storage.Options{})
	m := metrics.New(prometheus.NewRegistry())
	g := newGenerator(t, seededRepo(), store, nil, m)

	res, err := g.Run(context.Background(), sitemap.DefaultOptions())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 6, res.Entries)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, buildTime, res.Started)
	assert.Same(t, res, g.LastResult())
	assert.False(t, g.Running())

	pages := sitemap.NewPages(store)
	ready, err := pages.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.EntriesAdded.WithLabelValues(sitemap.KindPost)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntriesAdded.WithLabelValues(sitemap.KindTerm)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntriesDropped.WithLabelValues(sitemap.KindArchive)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TotalPages))
}

func TestGenerator_Idempotent(t *testing.T) {
	repo := seededRepo()
	first := storage.NewMemoryStore(storage.Options{})
	second := storage.NewMemoryStore(storage.Options{})

	g := newGenerator(t, repo, first, nil, nil)
	_, err := g.Run(context.Background(), sitemap.DefaultOptions())
	require.NoError(t, err)

	g = newGenerator(t, repo, second, nil, nil)
	_, err = g.Run(context.Background(), sitemap.DefaultOptions())
	require.NoError(t, err)

	ctx := context.Background()
	require.Equal(t, first.Keys(), second.Keys())

	a, err := first.Get(ctx, sitemap.TotalPagesKey)
	require.NoError(t, err)
	b, err := second.Get(ctx, sitemap.TotalPagesKey)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for i := 1; i <= 3; i++ {
		a, err := first.Get(ctx, sitemap.PageKey(i))
		require.NoError(t, err)
		b, err := second.Get(ctx, sitemap.PageKey(i))
		require.NoError(t, err)
		assert.Equal(t, a, b, "page %d", i)
	}
}

func TestGenerator_URLsPerPageHook(t *testing.T) {
	reg := hooks.NewRegistry()
	reg.Add(hooks.URLsPerPage, func(v any, _ ...any) any { return v.(int) * 5 })

	store := storage.NewMemoryStore(storage.Options{})
	g := newGenerator(t, seededRepo(), store, reg, nil)
	assert.Equal(t, 10, g.URLsPerPage())

	res, err := g.Run(context.Background(), sitemap.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalPages)
}

// blockingRepo stalls the first post batch until released.
type blockingRepo struct {
	*content.MemoryRepository
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingRepo) ListPosts(ctx context.Context, q content.PostQuery) ([]models.Post, error) {
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	return r.MemoryRepository.ListPosts(ctx, q)
}

func TestGenerator_RejectsOverlappingRun(t *testing.T) {
	repo := &blockingRepo{
		MemoryRepository: seededRepo(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	g := newGenerator(t, repo, storage.NewMemoryStore(storage.Options{}), nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := g.Run(context.Background(), sitemap.DefaultOptions())
		done <- err
	}()

	<-repo.entered
	assert.True(t, g.Running())
	_, err := g.Run(context.Background(), sitemap.DefaultOptions())
	assert.ErrorIs(t, err, sitemap.ErrRunInProgress)

	close(repo.release)
	require.NoError(t, <-done)

	_, err = g.Run(context.Background(), sitemap.DefaultOptions())
	assert.NoError(t, err)
}

func TestGenerator_StartClaimsRunBeforeReturning(t *testing.T) {
	repo := &blockingRepo{
		MemoryRepository: seededRepo(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	store := storage.NewMemoryStore(storage.Options{})
	g := newGenerator(t, repo, store, nil, nil)

	require.NoError(t, g.Start(context.Background(), sitemap.DefaultOptions()))
	assert.True(t, g.Running())
	assert.ErrorIs(t, g.Start(context.Background(), sitemap.DefaultOptions()), sitemap.ErrRunInProgress)

	<-repo.entered
	waited := make(chan struct{})
	go func() {
		g.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while a run was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.release)
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after the run finished")
	}

	assert.False(t, g.Running())
	require.NotNil(t, g.LastResult())
	total, err := sitemap.NewPages(store).TotalPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestGenerator_StartCancelledBeforeWrite(t *testing.T) {
	repo := &blockingRepo{
		MemoryRepository: seededRepo(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	store := storage.NewMemoryStore(storage.Options{})
	g := newGenerator(t, repo, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, g.Start(ctx, sitemap.DefaultOptions()))

	<-repo.entered
	cancel()
	close(repo.release)
	g.Wait()

	assert.Nil(t, g.LastResult())
	assert.Zero(t, store.Keys())
	assert.NoError(t, g.Start(context.Background(), sitemap.DefaultOptions()))
	g.Wait()
	assert.NotNil(t, g.LastResult())
}

func TestGenerator_FailureIsRecorded(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	store := storage.NewMemoryStore(storage.Options{MaxValueBytes: 16})
	core, logs := observer.New(zapcore.InfoLevel)

	b := newBuilder(t, seededRepo(), sitemap.BuilderConfig{})
	g := sitemap.NewGenerator(b, sitemap.NewWriter(store, sitemap.Sink{}, m), sitemap.GeneratorConfig{
		Metrics: m,
		Logger:  logger.FromZap(zap.New(core)),
	})

	_, err := g.Run(context.Background(), sitemap.DefaultOptions())
	require.ErrorIs(t, err, storage.ErrValueTooLarge)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failed")))
	assert.Equal(t, 1, logs.FilterMessage("Sitemap generation failed").Len())
	failed := logs.FilterMessage("Sitemap generation failed").All()[0]
	assert.NotEmpty(t, failed.ContextMap()["run_id"])
}

func TestLoggerSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := sitemap.LoggerSink(logger.FromZap(zap.New(core)))

	sink.Success("done")
	sink.Debug("batch")
	sink.Warning("dropped")
	sink.Notice("added")

	all := logs.All()
	require.Len(t, all, 4)
	assert.Equal(t, zapcore.InfoLevel, all[0].Level)
	assert.Equal(t, "success", all[0].ContextMap()["slot"])
	assert.Equal(t, zapcore.DebugLevel, all[1].Level)
	assert.Equal(t, zapcore.WarnLevel, all[2].Level)
	assert.Equal(t, "notice", all[3].ContextMap()["slot"])
}
