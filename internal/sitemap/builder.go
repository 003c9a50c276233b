package sitemap

import (
	"context"
	"fmt"
	"time"

	"github.com/romangod6/sitemapgen/internal/content"
	"github.com/romangod6/sitemapgen/internal/hooks"
	"github.com/romangod6/sitemapgen/internal/metrics"
	"github.com/romangod6/sitemapgen/internal/models"
)

const (
	DefaultBatchSize   = 500
	DefaultURLsPerPage = 200
)

// DefaultAuthorRoles are the roles whose holders get an author entry.
var DefaultAuthorRoles = []string{"administrator", "editor", "author"}

// Options select what a build enumerates.
type Options struct {
	Range            Range
	IncludePostTypes bool
	IncludeTerms     bool
	IncludeAuthors   bool
	// URLsPerPage only feeds the page number reported in notice messages.
	URLsPerPage int
}

// DefaultOptions index post types and terms over all time.
func DefaultOptions() Options {
	return Options{IncludePostTypes: true, IncludeTerms: true}
}

type BuilderConfig struct {
	BatchSize int
	// FetchTimeout bounds each repository batch call. Zero disables it.
	FetchTimeout time.Duration
	AuthorRoles  []string

	Hooks   *hooks.Registry
	Sink    Sink
	Metrics *metrics.Metrics
	Relief  Relief
	Clock   func() time.Time
}

// Builder enumerates the site's content into an ordered list of entries:
// homepage, then every post type (archive first), then terms, then authors.
// Content is streamed in batches; only accepted entries are kept.
type Builder struct {
	repo    content.Repository
	entries *EntryBuilder
	config  BuilderConfig
}

func NewBuilder(repo content.Repository, config *BuilderConfig) (*Builder, error) {
	cfg := BuilderConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.AuthorRoles == nil {
		cfg.AuthorRoles = DefaultAuthorRoles
	}
	if cfg.Relief == nil {
		cfg.Relief = noRelief{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	eb, err := NewEntryBuilder(repo, cfg.Hooks, cfg.Clock)
	if err != nil {
		return nil, err
	}

	return &Builder{repo: repo, entries: eb, config: cfg}, nil
}

// build carries the state of a single Build call.
type build struct {
	*Builder
	perPage int
	urls    []models.Entry
}

// Build enumerates the content selected by opts. The context is checked
// between batches; a cancelled build returns the context error.
func (b *Builder) Build(ctx context.Context, opts Options) ([]models.Entry, error) {
	run := &build{Builder: b, perPage: opts.URLsPerPage}
	if run.perPage <= 0 {
		run.perPage = DefaultURLsPerPage
	}
	h := b.config.Hooks

	run.add(KindHomepage, "homepage", b.entries.Homepage())

	if hooks.Apply(h, hooks.IndexPostTypes, opts.IncludePostTypes) {
		if err := run.postTypes(ctx, opts.Range.Since(b.config.Clock())); err != nil {
			return nil, err
		}
	}

	if hooks.Apply(h, hooks.IndexTerms, opts.IncludeTerms) {
		if err := run.terms(ctx); err != nil {
			return nil, err
		}
	}

	if hooks.Apply(h, hooks.IndexAuthors, opts.IncludeAuthors) {
		if err := run.authors(ctx); err != nil {
			return nil, err
		}
	}

	return run.urls, nil
}

func (r *build) postTypes(ctx context.Context, since time.Time) error {
	types, err := r.repo.PostTypes(ctx)
	if err != nil {
		return fmt.Errorf("list post types: %w", err)
	}

	public := make([]string, 0, len(types))
	for _, t := range types {
		if t != models.TypeAttachment {
			public = append(public, t)
		}
	}
	public = hooks.Apply(r.config.Hooks, hooks.PostTypes, public)

	for _, postType := range public {
		archive, err := r.entries.Archive(ctx, postType)
		if err != nil {
			return err
		}
		r.add(KindArchive, "archive of "+postType, archive)

		for offset := 0; ; offset += r.config.BatchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.config.Sink.debug("Processing post type `%s` from offset %d", postType, offset)

			batch, err := fetch(ctx, r.config.FetchTimeout, func(ctx context.Context) ([]models.Post, error) {
				return r.repo.ListPosts(ctx, content.PostQuery{
					Type:   postType,
					Since:  since,
					Offset: offset,
					Limit:  r.config.BatchSize,
				})
			})
			if err != nil {
				return err
			}
			if len(batch) == 0 {
				break
			}
			r.config.Metrics.BatchFetched(KindPost)

			for _, post := range batch {
				entry, err := r.entries.Post(ctx, post)
				if err != nil {
					return err
				}
				r.add(KindPost, fmt.Sprintf("%s %d", postType, post.ID), entry)
			}
		}
	}
	return nil
}

func (r *build) terms(ctx context.Context) error {
	taxonomies, err := r.repo.Taxonomies(ctx)
	if err != nil {
		return fmt.Errorf("list taxonomies: %w", err)
	}
	taxonomies = hooks.Apply(r.config.Hooks, hooks.Taxonomies, taxonomies)

	for _, taxonomy := range taxonomies {
		for offset := 0; ; offset += r.config.BatchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.config.Sink.debug("Processing taxonomy `%s` from offset %d", taxonomy, offset)

			batch, err := fetch(ctx, r.config.FetchTimeout, func(ctx context.Context) ([]models.Term, error) {
				return r.repo.ListTerms(ctx, taxonomy, offset, r.config.BatchSize)
			})
			if err != nil {
				return err
			}
			if len(batch) == 0 {
				break
			}
			r.config.Metrics.BatchFetched(KindTerm)

			for _, term := range batch {
				entry, err := r.entries.Term(ctx, term)
				if err != nil {
					return err
				}
				r.add(KindTerm, fmt.Sprintf("%s %d", taxonomy, term.ID), entry)
			}
		}
	}
	return nil
}

func (r *build) authors(ctx context.Context) error {
	roles := hooks.Apply(r.config.Hooks, hooks.UserRoles, append([]string(nil), r.config.AuthorRoles...))
	if len(roles) == 0 {
		return nil
	}

	for offset := 0; ; offset += r.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.config.Sink.debug("Processing authors from offset %d", offset)

		batch, err := fetch(ctx, r.config.FetchTimeout, func(ctx context.Context) ([]models.Author, error) {
			return r.repo.ListAuthors(ctx, roles, offset, r.config.BatchSize)
		})
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		r.config.Metrics.BatchFetched(KindAuthor)

		for _, author := range batch {
			entry, err := r.entries.Author(ctx, author)
			if err != nil {
				return err
			}
			r.add(KindAuthor, "author "+author.Login, entry)
		}
	}
}

// add appends an accepted entry or reports the dropped candidate by label,
// then gives the pressure policy a chance to run.
func (r *build) add(kind, label string, entry *models.Entry) {
	defer func() {
		if r.config.Relief.Relieve() {
			r.config.Metrics.Relieved()
			r.config.Sink.debug("Heap above limit after %d entries, memory released.", len(r.urls))
		}
	}()

	if entry == nil {
		r.config.Metrics.EntryDropped(kind)
		r.config.Sink.warning("Could not add %s.", label)
		return
	}

	r.urls = append(r.urls, *entry)
	r.config.Metrics.EntryAdded(kind)

	n := len(r.urls)
	page := PageCount(n, r.perPage)
	r.config.Sink.notice("%s (%d) added to page %d.", entry.URL, n, page)
}

// fetch runs one repository batch call under the fetch timeout.
func fetch[T any](ctx context.Context, timeout time.Duration, call func(context.Context) ([]T, error)) ([]T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return call(ctx)
}
