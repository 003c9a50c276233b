// Package hooks implements named filter points that let operators change
// what ends up in the sitemap without touching the build pipeline.
//
// A filter receives the current value plus the context arguments of the hook
// point and returns the value passed to the next filter. Filters run in
// registration order.
package hooks

import (
	"sync"
)

// Hook point names.
const (
	IndexPostTypes   = "sitemaps_index_post_types"
	IndexTerms       = "sitemaps_index_terms"
	IndexAuthors     = "sitemaps_index_authors"
	PostTypes        = "sitemaps_post_types"
	PostTypeArchive  = "sitemaps_index_post_type_archive"
	IndexImages      = "sitemaps_index_images"
	PostTranslations = "sitemaps_post_translations"
	IndexPost        = "sitemaps_index_post"
	Taxonomies       = "sitemaps_taxonomies"
	TermTranslations = "sitemaps_term_translations"
	IndexTerm        = "sitemaps_index_term"
	UserRoles        = "sitemaps_user_roles"
	IndexAuthor      = "sitemaps_index_author"
	IndexHomepage    = "sitemaps_index_homepage"
	URLsPerPage      = "sitemaps_urls_per_page"
)

// Filter transforms a hook value.
type Filter func(value any, args ...any) any

type Registry struct {
	mu      sync.RWMutex
	filters map[string][]Filter
}

func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string][]Filter),
	}
}

// Add registers a filter for the named hook point.
func (r *Registry) Add(name string, f Filter) {
	if f == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = append(r.filters[name], f)
}

func (r *Registry) snapshot(name string) []Filter {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	fs := r.filters[name]
	if len(fs) == 0 {
		return nil
	}
	return append([]Filter(nil), fs...)
}

// Apply runs every filter registered for name over value. A filter that
// returns a value of another type is ignored. A nil registry returns value
// unchanged.
func Apply[T any](r *Registry, name string, value T, args ...any) T {
	for _, f := range r.snapshot(name) {
		out := f(value, args...)
		if out == nil {
			var zero T
			value = zero
			continue
		}
		if v, ok := out.(T); ok {
			value = v
		}
	}
	return value
}
