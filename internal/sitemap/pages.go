package sitemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/storage"
)

const (
	pageKeyPrefix = "sitemaps_page_"
	// TotalPagesKey holds the page count of the last write.
	TotalPagesKey = "sitemaps_total_pages"
)

// PageKey returns the storage key of page n (1-based).
func PageKey(n int) string {
	return pageKeyPrefix + strconv.Itoa(n)
}

// Pages reads back what a Writer persisted.
type Pages struct {
	store storage.Store
}

func NewPages(store storage.Store) *Pages {
	return &Pages{store: store}
}

// TotalPages returns 0 when nothing has been written yet.
func (p *Pages) TotalPages(ctx context.Context) (int, error) {
	raw, err := p.store.Get(ctx, TotalPagesKey)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("corrupt %s value %q", TotalPagesKey, raw)
	}
	return n, nil
}

// Page returns the entries of page n, storage.ErrNotFound if it was never written.
func (p *Pages) Page(ctx context.Context, n int) ([]models.Entry, error) {
	raw, err := p.store.Get(ctx, PageKey(n))
	if err != nil {
		return nil, err
	}

	var entries []models.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", PageKey(n), err)
	}
	return entries, nil
}

// Ready reports whether a sitemap has been generated.
func (p *Pages) Ready(ctx context.Context) (bool, error) {
	n, err := p.TotalPages(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
