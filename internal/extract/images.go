package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/romangod6/sitemapgen/internal/models"
)

var attachmentClass = regexp.MustCompile(`wp-image-(\d+)`)

// Images returns the <img> elements of body as image entries. Markup that
// does not parse produces no images rather than an error; the returned
// error is always a repository failure.
func (e *Extractor) Images(ctx context.Context, body string) ([]models.Image, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, nil
	}
	doc := goquery.NewDocumentFromNode(root)

	var (
		images []models.Image
		lookup error
	)

	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return true
		}

		if id, ok := attachmentID(s.AttrOr("class", "")); ok {
			exists, err := e.source.Exists(ctx, id)
			if err != nil {
				lookup = fmt.Errorf("check attachment %d: %w", id, err)
				return false
			}
			if exists {
				img, err := e.Image(ctx, id)
				if err != nil {
					lookup = err
					return false
				}
				images = append(images, img)
				return true
			}
		}

		src = e.AbsoluteURL(src)
		if !e.SameHost(src) {
			return true
		}

		images = append(images, models.Image{
			URL:   src,
			Title: e.Sanitize(s.AttrOr("title", "")),
			Alt:   e.Sanitize(s.AttrOr("alt", "")),
		})
		return true
	})

	if lookup != nil {
		return nil, lookup
	}
	return images, nil
}

// attachmentID reads the attachment id from a wp-image-<id> class. Full size
// renderings are left to their src.
func attachmentID(class string) (int64, bool) {
	if class == "" || strings.Contains(class, "size-full") {
		return 0, false
	}

	m := attachmentClass.FindStringSubmatch(class)
	if m == nil {
		return 0, false
	}

	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
