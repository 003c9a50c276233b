package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/romangod6/sitemapgen/internal/content"
	"github.com/romangod6/sitemapgen/internal/sitemap"
	"github.com/romangod6/sitemapgen/internal/storage"
)

type Config struct {
	Site struct {
		HomeURL            string
		UploadsURL         string
		UploadsDir         string
		TablePrefix        string
		BlogID             int
		ArchivePostTypes   []string
		PermalinkStructure string
		PostTypes          []string
		Taxonomies         []string
	}
	Content struct {
		Driver  string // postgres or fixture
		Fixture string
	}
	Database struct {
		URL string
	}
	Storage struct {
		Driver string
		DSN    string
		Redis  struct {
			Address  string
			Password string
			DB       int
		}
		MaxValueBytes int
	}
	Sitemap struct {
		Range            string
		URLsPerPage      int
		BatchSize        int
		FetchTimeout     string
		MemoryLimitMB    int
		MemoryCheckEvery int
		IndexPostTypes   bool
		IndexTerms       bool
		IndexAuthors     bool
		AuthorRoles      []string
	}
	Server struct {
		Port int
	}
	Schedule struct {
		Cron string
	}
	Log struct {
		Level string
		Dir   string
	}
	Verify struct {
		UserAgent   string
		CheckURLs   bool
		Parallelism int
	}
}

// LoadConfig reads config.yaml from . or ./config. A missing file is not an
// error; every key can also come from SITEMAPGEN_* environment variables.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SITEMAPGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Default values
	v.SetDefault("site.homeurl", "http://localhost:8080")
	v.SetDefault("site.uploadsurl", "")
	v.SetDefault("site.uploadsdir", "")
	v.SetDefault("site.tableprefix", "wp_")
	v.SetDefault("site.blogid", 1)
	v.SetDefault("site.archiveposttypes", []string{})
	v.SetDefault("site.permalinkstructure", "/%year%/%monthnum%/%postname%/")
	v.SetDefault("site.posttypes", []string{"post", "page", "attachment"})
	v.SetDefault("site.taxonomies", []string{"category", "post_tag"})

	v.SetDefault("content.driver", "postgres")
	v.SetDefault("content.fixture", "")
	v.SetDefault("database.url", "")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "sitemaps.db")
	v.SetDefault("storage.redis.address", "")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.maxvaluebytes", 0)

	v.SetDefault("sitemap.range", "all")
	v.SetDefault("sitemap.urlsperpage", sitemap.DefaultURLsPerPage)
	v.SetDefault("sitemap.batchsize", sitemap.DefaultBatchSize)
	v.SetDefault("sitemap.fetchtimeout", "30s")
	v.SetDefault("sitemap.memorylimitmb", 100)
	v.SetDefault("sitemap.memorycheckevery", 50)
	v.SetDefault("sitemap.indexposttypes", true)
	v.SetDefault("sitemap.indexterms", true)
	v.SetDefault("sitemap.indexauthors", false)
	v.SetDefault("sitemap.authorroles", sitemap.DefaultAuthorRoles)

	v.SetDefault("server.port", 8080)
	v.SetDefault("schedule.cron", "0 3 * * *")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")

	v.SetDefault("verify.useragent", "sitemapgen verifier v1.0")
	v.SetDefault("verify.checkurls", false)
	v.SetDefault("verify.parallelism", 4)
}

func (c *Config) GetFetchTimeout() time.Duration {
	duration, err := time.ParseDuration(c.Sitemap.FetchTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return duration
}

// HeapLimit is the heap size, in bytes, above which a build frees memory.
func (c *Config) HeapLimit() uint64 {
	if c.Sitemap.MemoryLimitMB <= 0 {
		return sitemap.DefaultHeapLimit
	}
	return uint64(c.Sitemap.MemoryLimitMB) << 20
}

func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver:        c.Storage.Driver,
		DSN:           c.Storage.DSN,
		RedisAddress:  c.Storage.Redis.Address,
		RedisPassword: c.Storage.Redis.Password,
		RedisDB:       c.Storage.Redis.DB,
		MaxValueBytes: c.Storage.MaxValueBytes,
	}
}

func (c *Config) Links() content.LinkBuilder {
	return content.LinkBuilder{
		Home:               c.Site.HomeURL,
		PermalinkStructure: c.Site.PermalinkStructure,
		ArchiveTypes:       c.Site.ArchivePostTypes,
		UploadsURL:         c.Site.UploadsURL,
		UploadsDir:         c.Site.UploadsDir,
	}
}

func (c *Config) PostgresOptions() content.PostgresOptions {
	return content.PostgresOptions{
		TablePrefix: c.Site.TablePrefix,
		BlogID:      c.Site.BlogID,
		PostTypes:   c.Site.PostTypes,
		Taxonomies:  c.Site.Taxonomies,
		Links:       c.Links(),
	}
}

// SitemapOptions turns the sitemap section into build options.
func (c *Config) SitemapOptions() (sitemap.Options, error) {
	r, err := sitemap.ParseRange(c.Sitemap.Range)
	if err != nil {
		return sitemap.Options{}, err
	}
	return sitemap.Options{
		Range:            r,
		IncludePostTypes: c.Sitemap.IndexPostTypes,
		IncludeTerms:     c.Sitemap.IndexTerms,
		IncludeAuthors:   c.Sitemap.IndexAuthors,
		URLsPerPage:      c.Sitemap.URLsPerPage,
	}, nil
}
