package models

import (
	"time"
)

// Entry is a single <url> of a sitemap page.
type Entry struct {
	ID              int64             `json:"id,omitempty"`
	URL             string            `json:"url"`
	Modified        time.Time         `json:"modified"`
	Images          []Image           `json:"images,omitempty"`
	Translations    map[string]string `json:"translations,omitempty"`
	ChangeFrequency string            `json:"change_frequency,omitempty"`
	Priority        *float64          `json:"priority,omitempty"`
}

// Image is an image attached to an entry. ID is zero for images that were
// not resolved through an attachment.
type Image struct {
	ID    int64  `json:"id,omitempty"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Alt   string `json:"alt,omitempty"`
}

// NewEntry creates an entry with the modification time normalized to UTC
// seconds so that persisted pages are stable across runs.
func NewEntry(id int64, url string, modified time.Time) *Entry {
	return &Entry{
		ID:       id,
		URL:      url,
		Modified: modified.UTC().Truncate(time.Second),
	}
}

// HasURL reports whether the entry can be published.
func (e *Entry) HasURL() bool {
	return e != nil && e.URL != ""
}

// UniqueImages drops images without URL and keeps the first image for
// each URL, preserving order.
func UniqueImages(images []Image) []Image {
	if len(images) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(images))
	out := make([]Image, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		if _, ok := seen[img.URL]; ok {
			continue
		}
		seen[img.URL] = struct{}{}
		out = append(out, img)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
