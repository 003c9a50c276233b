package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemapgen/internal/sitemap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "wp_", cfg.Site.TablePrefix)
	assert.Equal(t, 1, cfg.Site.BlogID)
	assert.Equal(t, []string{"post", "page", "attachment"}, cfg.Site.PostTypes)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 200, cfg.Sitemap.URLsPerPage)
	assert.Equal(t, 500, cfg.Sitemap.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.GetFetchTimeout())
	assert.Equal(t, uint64(sitemap.DefaultHeapLimit), cfg.HeapLimit())
	assert.Equal(t, "0 3 * * *", cfg.Schedule.Cron)

	opts, err := cfg.SitemapOptions()
	require.NoError(t, err)
	assert.True(t, opts.Range.All())
	assert.True(t, opts.IncludePostTypes)
	assert.True(t, opts.IncludeTerms)
	assert.False(t, opts.IncludeAuthors)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
site:
  homeurl: https://example.com
  blogid: 3
  archiveposttypes: [product]
storage:
  driver: redis
  redis:
    address: localhost:6379
    db: 2
sitemap:
  range: "6"
  urlsperpage: 50
  fetchtimeout: 5s
  memorylimitmb: 64
  indexauthors: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", cfg.Links().Home)
	assert.Equal(t, []string{"product"}, cfg.Links().ArchiveTypes)
	assert.Equal(t, 3, cfg.PostgresOptions().BlogID)
	assert.Equal(t, 5*time.Second, cfg.GetFetchTimeout())
	assert.Equal(t, uint64(64<<20), cfg.HeapLimit())

	sc := cfg.StorageConfig()
	assert.Equal(t, "redis", sc.Driver)
	assert.Equal(t, "localhost:6379", sc.RedisAddress)
	assert.Equal(t, 2, sc.RedisDB)

	opts, err := cfg.SitemapOptions()
	require.NoError(t, err)
	assert.Equal(t, 6, opts.Range.Months)
	assert.Equal(t, 50, opts.URLsPerPage)
	assert.True(t, opts.IncludeAuthors)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("SITEMAPGEN_SERVER_PORT", "9090")
	t.Setenv("SITEMAPGEN_SITEMAP_RANGE", "forever")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)

	_, err = cfg.SitemapOptions()
	assert.ErrorIs(t, err, sitemap.ErrInvalidRange)
}

func TestGetFetchTimeout_Fallback(t *testing.T) {
	cfg := &Config{}
	cfg.Sitemap.FetchTimeout = "soon"
	assert.Equal(t, 30*time.Second, cfg.GetFetchTimeout())
}
