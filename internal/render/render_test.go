package render_test

import (
	"bytes"
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemapgen/internal/models"
	"github.com/romangod6/sitemapgen/internal/render"
)

func TestWritePage(t *testing.T) {
	priority := 0.8
	entries := []models.Entry{
		{
			URL:      "https://example.com/hello/?a=1&b=2",
			Modified: time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC),
			Images: []models.Image{
				{URL: "https://example.com/a.jpg", Title: "A <b>", Alt: "Alt A"},
				{URL: "https://example.com/b.jpg"},
			},
			Translations:    map[string]string{"fr": "https://example.com/fr/hello/", "de": "https://example.com/de/hello/"},
			ChangeFrequency: "weekly",
			Priority:        &priority,
		},
		{URL: "https://example.com/bare/"},
	}

	var buf bytes.Buffer
	require.NoError(t, render.WritePage(&buf, entries))
	out := buf.String()

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(xml.Header)))
	assert.Contains(t, out, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">`)
	assert.Contains(t, out, `<loc>https://example.com/hello/?a=1&amp;b=2</loc>`)
	assert.Contains(t, out, `<xhtml:link rel="alternate" hreflang="de" href="https://example.com/de/hello/"></xhtml:link>`)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`hreflang="de"`)), bytes.Index(buf.Bytes(), []byte(`hreflang="fr"`)))
	assert.Contains(t, out, `<lastmod>2024-05-01</lastmod>`)
	assert.Contains(t, out, `<changefreq>weekly</changefreq>`)
	assert.Contains(t, out, `<priority>0.8</priority>`)
	assert.Contains(t, out, `<image:title>A &lt;b&gt;</image:title>`)
	assert.Contains(t, out, `<image:caption>Alt A</image:caption>`)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("<image:loc>")))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("<changefreq>")))
}

func TestWritePage_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.WritePage(&buf, nil))
	assert.Contains(t, buf.String(), "<urlset")
	assert.NotContains(t, buf.String(), "<url>")
}

func TestWriteIndex(t *testing.T) {
	now := time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, render.WriteIndex(&buf, "https://example.com", 2, now))

	var idx render.Index
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &idx))
	require.Len(t, idx.Sitemaps, 2)
	assert.Equal(t, "https://example.com/sitemap-page-1.xml", idx.Sitemaps[0].Loc)
	assert.Equal(t, "https://example.com/sitemap-page-2.xml", idx.Sitemaps[1].Loc)
	assert.Equal(t, "2024-06-02", idx.Sitemaps[1].LastMod)
}
