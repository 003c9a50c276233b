package sitemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/romangod6/sitemapgen/internal/metrics"
	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/storage"
)

// ErrInvalidPageSize is returned by Write for a page size below one.
var ErrInvalidPageSize = errors.New("sitemap: urls per page must be positive")

// Writer splits entries into pages and persists them.
type Writer struct {
	store   storage.Store
	sink    Sink
	metrics *metrics.Metrics
}

func NewWriter(store storage.Store, sink Sink, m *metrics.Metrics) *Writer {
	return &Writer{store: store, sink: sink, metrics: m}
}

// Write stores page i as entries[(i-1)*perPage : i*perPage] and then the page
// count, returning the count. Pages left over from a larger earlier run are
// not removed; readers never look past the count.
func (w *Writer) Write(ctx context.Context, entries []models.Entry, perPage int) (int, error) {
	if perPage < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPageSize, perPage)
	}

	total := PageCount(len(entries), perPage)

	for i := 1; i <= total; i++ {
		start := (i - 1) * perPage
		end := min(start+perPage, len(entries))

		data, err := json.Marshal(entries[start:end])
		if err != nil {
			return 0, fmt.Errorf("encode page %d: %w", i, err)
		}

		w.sink.debug("Saving sitemap page %d. Total option size is ~%d kilobytes.", i, int(math.Round(float64(len(data))/1024)))
		w.metrics.PageWritten(len(data))

		if err := w.store.Put(ctx, PageKey(i), data); err != nil {
			return 0, fmt.Errorf("save page %d: %w", i, err)
		}
	}

	if err := w.store.Put(ctx, TotalPagesKey, []byte(strconv.Itoa(total))); err != nil {
		return 0, fmt.Errorf("save page count: %w", err)
	}

	w.sink.success("Sitemap saved: %d entries on %d pages.", len(entries), total)
	return total, nil
}

// PageCount is ceil(n/perPage).
func PageCount(n, perPage int) int {
	if n <= 0 || perPage <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}
