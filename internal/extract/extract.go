// Package extract finds the images that belong to a piece of content: inline
// <img> tags, gallery shortcodes and their attachments.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/romangod6/sitemapgen/internal/models"
)

// AttachmentSource is the part of the content repository the extractor
// needs to resolve attachment ids.
type AttachmentSource interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Attachment(ctx context.Context, id int64) (*models.Attachment, error)
	ChildAttachments(ctx context.Context, parentID int64, exclude []int64) ([]int64, error)
}

type Extractor struct {
	source  AttachmentSource
	homeURL string
	home    *url.URL
	policy  *bluemonday.Policy
}

// New creates an extractor for the site rooted at homeURL.
func New(source AttachmentSource, homeURL string) (*Extractor, error) {
	homeURL = strings.TrimRight(homeURL, "/")

	home, err := url.Parse(homeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid home url %q: %w", homeURL, err)
	}
	if home.Scheme == "" || home.Host == "" {
		return nil, fmt.Errorf("home url %q must be absolute", homeURL)
	}

	return &Extractor{
		source:  source,
		homeURL: homeURL,
		home:    home,
		policy:  bluemonday.StrictPolicy(),
	}, nil
}

// Image resolves an attachment into an image entry. A missing attachment
// yields an image without URL, which callers drop.
func (e *Extractor) Image(ctx context.Context, id int64) (models.Image, error) {
	att, err := e.source.Attachment(ctx, id)
	if err != nil {
		return models.Image{}, fmt.Errorf("lookup attachment %d: %w", id, err)
	}
	if att == nil {
		return models.Image{ID: id}, nil
	}

	return models.Image{
		ID:    id,
		URL:   att.URL,
		Title: e.Sanitize(att.Title),
		Alt:   e.Sanitize(att.Alt),
	}, nil
}

// ImagesByID resolves a list of attachment ids in order.
func (e *Extractor) ImagesByID(ctx context.Context, ids []int64) ([]models.Image, error) {
	images := make([]models.Image, 0, len(ids))
	for _, id := range ids {
		img, err := e.Image(ctx, id)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
