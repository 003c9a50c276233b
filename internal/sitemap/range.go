package sitemap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRange is returned for a range that is neither "all" nor a
// non-negative number of months.
var ErrInvalidRange = errors.New("sitemap: invalid range")

// Range limits the content scan to posts modified in the last Months months.
// The zero Range covers all time.
type Range struct {
	Months int
}

// ParseRange accepts "all", "" and "0" for all time, or a month count.
func ParseRange(s string) (Range, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all", "0":
		return Range{}, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return Range{Months: n}, nil
}

func (r Range) All() bool {
	return r.Months <= 0
}

// Since returns the lower modification bound relative to now, or the zero
// time when the range covers all time.
func (r Range) Since(now time.Time) time.Time {
	if r.All() {
		return time.Time{}
	}
	return now.UTC().AddDate(0, -r.Months, 0)
}

func (r Range) String() string {
	if r.All() {
		return "all"
	}
	return strconv.Itoa(r.Months)
}
