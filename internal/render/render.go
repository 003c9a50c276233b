// Package render emits sitemaps.org documents from persisted pages.
package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/romangod6/sitemapgen/internal/models"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNS   = "http://www.w3.org/1999/xhtml"
	imageNS   = "http://www.google.com/schemas/sitemap-image/1.1"

	dateLayout = "2006-01-02"
)

// URLSet is a sitemap page document.
type URLSet struct {
	XMLName    xml.Name `xml:"urlset"`
	XMLNS      string   `xml:"xmlns,attr"`
	XMLNSXHTML string   `xml:"xmlns:xhtml,attr"`
	XMLNSImage string   `xml:"xmlns:image,attr"`
	URLs       []URL    `xml:"url"`
}

// URL is a single <url> element.
type URL struct {
	Loc        string      `xml:"loc"`
	Alternates []Alternate `xml:"xhtml:link"`
	LastMod    string      `xml:"lastmod,omitempty"`
	ChangeFreq string      `xml:"changefreq,omitempty"`
	Priority   string      `xml:"priority,omitempty"`
	Images     []Image     `xml:"image:image"`
}

type Alternate struct {
	Rel      string `xml:"rel,attr"`
	HrefLang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

type Image struct {
	Loc     string `xml:"image:loc"`
	Title   string `xml:"image:title,omitempty"`
	Caption string `xml:"image:caption,omitempty"`
}

// Index is a sitemap index document.
type Index struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	XMLNS    string         `xml:"xmlns,attr"`
	Sitemaps []IndexSitemap `xml:"sitemap"`
}

type IndexSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// PageURL returns the public location of sitemap page n.
func PageURL(home string, n int) string {
	return fmt.Sprintf("%s/sitemap-page-%d.xml", home, n)
}

// NewURLSet converts persisted entries into a page document. Alternates are
// ordered by language code.
func NewURLSet(entries []models.Entry) URLSet {
	set := URLSet{
		XMLNS:      sitemapNS,
		XMLNSXHTML: xhtmlNS,
		XMLNSImage: imageNS,
		URLs:       make([]URL, 0, len(entries)),
	}

	for _, e := range entries {
		u := URL{
			Loc:        e.URL,
			ChangeFreq: e.ChangeFrequency,
		}
		if !e.Modified.IsZero() {
			u.LastMod = e.Modified.UTC().Format(dateLayout)
		}
		if e.Priority != nil {
			u.Priority = strconv.FormatFloat(*e.Priority, 'f', -1, 64)
		}

		langs := make([]string, 0, len(e.Translations))
		for lang := range e.Translations {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			u.Alternates = append(u.Alternates, Alternate{Rel: "alternate", HrefLang: lang, Href: e.Translations[lang]})
		}

		for _, img := range e.Images {
			u.Images = append(u.Images, Image{Loc: img.URL, Title: img.Title, Caption: img.Alt})
		}

		set.URLs = append(set.URLs, u)
	}
	return set
}

// NewIndex lists pages 1..totalPages, all stamped with today's date.
func NewIndex(home string, totalPages int, now time.Time) Index {
	idx := Index{XMLNS: sitemapNS}
	lastMod := now.UTC().Format(dateLayout)
	for i := 1; i <= totalPages; i++ {
		idx.Sitemaps = append(idx.Sitemaps, IndexSitemap{Loc: PageURL(home, i), LastMod: lastMod})
	}
	return idx
}

// WritePage writes the XML document of one sitemap page.
func WritePage(w io.Writer, entries []models.Entry) error {
	return encode(w, NewURLSet(entries))
}

// WriteIndex writes the sitemap index document.
func WriteIndex(w io.Writer, home string, totalPages int, now time.Time) error {
	return encode(w, NewIndex(home, totalPages, now))
}

func encode(w io.Writer, doc any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return enc.Close()
}
