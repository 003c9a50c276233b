// Package crawler checks a published sitemap the way a search engine would
// read it: index first, then every page it lists, then optionally every loc.
package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/romangod6/sitemapgen/internal/logger"
	"github.com/romangod6/sitemapgen/internal/render"
)

type VerifierConfig struct {
	UserAgent string
	// CheckURLs fetches every listed loc and records non-2xx responses.
	CheckURLs   bool
	Parallelism int
	RandomDelay time.Duration
}

// Failure is a URL that could not be fetched or parsed.
type Failure struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Reason string `json:"reason"`
}

type Report struct {
	Pages    int       `json:"pages"`
	URLs     int       `json:"urls"`
	Checked  int       `json:"checked"`
	Failures []Failure `json:"failures,omitempty"`
}

// OK reports whether every fetched document and checked loc succeeded.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

type Verifier struct {
	config VerifierConfig
	logger logger.Logger
}

func NewVerifier(config VerifierConfig, log logger.Logger) *Verifier {
	if config.Parallelism <= 0 {
		config.Parallelism = 2
	}
	if config.UserAgent == "" {
		config.UserAgent = "sitemapgen verifier v1.0"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{config: config, logger: log}
}

// Verify walks the sitemap index at indexURL. The returned error is set only
// when the index itself cannot be read; everything else lands in the report.
func (v *Verifier) Verify(ctx context.Context, indexURL string) (*Report, error) {
	if _, err := url.ParseRequestURI(indexURL); err != nil {
		return nil, fmt.Errorf("invalid index url %q: %w", indexURL, err)
	}

	var (
		mu       sync.Mutex
		report   = &Report{}
		reported = make(map[string]bool)
		indexErr error
	)
	// A failed visit surfaces both in OnError and as the Visit return value.
	fail := func(f Failure) {
		mu.Lock()
		defer mu.Unlock()
		if reported[f.URL] {
			return
		}
		reported[f.URL] = true
		report.Failures = append(report.Failures, f)
		v.logger.Warn("Sitemap verification failure",
			logger.String("url", f.URL),
			logger.Int("status", f.Status),
			logger.String("reason", f.Reason),
		)
	}

	documents := colly.NewCollector(
		colly.UserAgent(v.config.UserAgent),
		colly.MaxDepth(2),
	)
	checker := colly.NewCollector(
		colly.UserAgent(v.config.UserAgent),
		colly.Async(true),
	)

	// Set reasonable limits
	limit := &colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: v.config.Parallelism,
		RandomDelay: v.config.RandomDelay,
	}
	if err := documents.Limit(limit); err != nil {
		return nil, err
	}
	if err := checker.Limit(limit); err != nil {
		return nil, err
	}

	abortWhenDone := func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	}
	documents.OnRequest(abortWhenDone)
	checker.OnRequest(abortWhenDone)

	documents.OnResponse(func(r *colly.Response) {
		at := r.Request.URL.String()
		if r.Request.Depth == 1 {
			var index render.Index
			if err := xml.NewDecoder(bytes.NewReader(r.Body)).Decode(&index); err != nil {
				indexErr = fmt.Errorf("parse sitemap index %s: %w", at, err)
				return
			}
			v.logger.Info("Reading sitemap index",
				logger.String("url", at),
				logger.Int("pages", len(index.Sitemaps)),
			)
			for _, s := range index.Sitemaps {
				if err := r.Request.Visit(s.Loc); err != nil {
					fail(Failure{URL: s.Loc, Reason: err.Error()})
				}
			}
			return
		}

		var set render.URLSet
		if err := xml.NewDecoder(bytes.NewReader(r.Body)).Decode(&set); err != nil {
			fail(Failure{URL: at, Status: r.StatusCode, Reason: "parse: " + err.Error()})
			return
		}

		mu.Lock()
		report.Pages++
		report.URLs += len(set.URLs)
		mu.Unlock()
		v.logger.Debug("Read sitemap page", logger.String("url", at), logger.Int("urls", len(set.URLs)))

		if !v.config.CheckURLs {
			return
		}
		for _, entry := range set.URLs {
			if err := checker.Visit(entry.Loc); err != nil {
				fail(Failure{URL: entry.Loc, Reason: err.Error()})
			}
		}
	})

	documents.OnError(func(r *colly.Response, err error) {
		if r.Request.Depth == 1 {
			indexErr = fmt.Errorf("fetch sitemap index %s (status %d): %w", indexURL, r.StatusCode, err)
			return
		}
		fail(Failure{URL: r.Request.URL.String(), Status: r.StatusCode, Reason: err.Error()})
	})

	checker.OnResponse(func(r *colly.Response) {
		mu.Lock()
		report.Checked++
		mu.Unlock()
	})
	checker.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		report.Checked++
		mu.Unlock()
		fail(Failure{URL: r.Request.URL.String(), Status: r.StatusCode, Reason: err.Error()})
	})

	visitErr := documents.Visit(indexURL)
	documents.Wait()
	checker.Wait()

	if indexErr != nil {
		return nil, indexErr
	}
	if visitErr != nil {
		return nil, fmt.Errorf("visit %s: %w", indexURL, visitErr)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	v.logger.Info("Sitemap verified",
		logger.Int("pages", report.Pages),
		logger.Int("urls", report.URLs),
		logger.Int("checked", report.Checked),
		logger.Int("failures", len(report.Failures)),
	)
	return report, nil
}
