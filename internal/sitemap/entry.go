package sitemap

import (
	"context"
	"fmt"
	"time"

	"github.com/romangod6/sitemapgen/internal/content"
	"github.com/romangod6/sitemapgen/internal/extract"
	"github.com/romangod6/sitemapgen/internal/hooks"
	"github.com/romangod6/sitemapgen/internal/models"
)

// Entity kinds, used for metrics labels and log lines.
const (
	KindHomepage = "homepage"
	KindArchive  = "archive"
	KindPost     = "post"
	KindTerm     = "term"
	KindAuthor   = "author"
)

// EntryBuilder turns one content entity into a sitemap entry. Every method
// returns a nil entry when the entity ends up without a URL.
type EntryBuilder struct {
	repo      content.Repository
	extractor *extract.Extractor
	hooks     *hooks.Registry
	now       func() time.Time
}

func NewEntryBuilder(repo content.Repository, registry *hooks.Registry, now func() time.Time) (*EntryBuilder, error) {
	ex, err := extract.New(repo, repo.HomeURL())
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}

	return &EntryBuilder{
		repo:      repo,
		extractor: ex,
		hooks:     registry,
		now:       now,
	}, nil
}

// Homepage builds the fixed entry for the site root.
func (b *EntryBuilder) Homepage() *models.Entry {
	entry := models.NewEntry(0, b.repo.HomeURL(), b.now())
	return published(hooks.Apply(b.hooks, hooks.IndexHomepage, entry))
}

// Archive builds the listing entry of a post type.
func (b *EntryBuilder) Archive(ctx context.Context, postType string) (*models.Entry, error) {
	link, err := b.repo.ArchiveURL(ctx, postType)
	if err != nil {
		return nil, fmt.Errorf("archive url of %s: %w", postType, err)
	}

	entry := models.NewEntry(0, link, b.now())
	return published(hooks.Apply(b.hooks, hooks.PostTypeArchive, entry, postType)), nil
}

// Post builds the entry of a published post with its images and translations.
func (b *EntryBuilder) Post(ctx context.Context, post models.Post) (*models.Entry, error) {
	link, err := b.repo.Permalink(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("permalink of post %d: %w", post.ID, err)
	}

	entry := models.NewEntry(post.ID, link, post.ModifiedGMT)

	if hooks.Apply(b.hooks, hooks.IndexImages, true, post.ID) {
		images, err := b.postImages(ctx, post)
		if err != nil {
			return nil, err
		}
		entry.Images = images
	}

	translations := hooks.Apply(b.hooks, hooks.PostTranslations, map[string]string{}, post.ID, post.Type)
	if len(translations) > 0 {
		entry.Translations = translations
	}

	return published(hooks.Apply(b.hooks, hooks.IndexPost, entry, post.ID, post.Type)), nil
}

// postImages collects the thumbnail, inline images and gallery images of a
// post, keeping the first image per URL.
func (b *EntryBuilder) postImages(ctx context.Context, post models.Post) ([]models.Image, error) {
	var images []models.Image

	thumbID, err := b.repo.ThumbnailID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("thumbnail of post %d: %w", post.ID, err)
	}
	if thumbID > 0 {
		img, err := b.extractor.Image(ctx, thumbID)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	inline, err := b.extractor.Images(ctx, post.Content)
	if err != nil {
		return nil, fmt.Errorf("images of post %d: %w", post.ID, err)
	}
	images = append(images, inline...)

	ids, err := b.extractor.GalleryAttachmentIDs(ctx, post.Content, post.ID)
	if err != nil {
		return nil, fmt.Errorf("galleries of post %d: %w", post.ID, err)
	}
	gallery, err := b.extractor.ImagesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	images = append(images, gallery...)

	return models.UniqueImages(images), nil
}

// Term builds the entry of a taxonomy term. Terms carry the build time as
// their modification time.
func (b *EntryBuilder) Term(ctx context.Context, term models.Term) (*models.Entry, error) {
	link, err := b.repo.TermLink(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("link of term %d: %w", term.ID, err)
	}

	entry := models.NewEntry(term.ID, link, b.now())

	translations := hooks.Apply(b.hooks, hooks.TermTranslations, map[string]string{}, term.ID, term.Taxonomy)
	if len(translations) > 0 {
		entry.Translations = translations
	}

	return published(hooks.Apply(b.hooks, hooks.IndexTerm, entry, term.ID, term.Taxonomy)), nil
}

func (b *EntryBuilder) Author(ctx context.Context, author models.Author) (*models.Entry, error) {
	link, err := b.repo.AuthorURL(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("url of author %d: %w", author.ID, err)
	}

	entry := models.NewEntry(author.ID, link, b.now())
	return published(hooks.Apply(b.hooks, hooks.IndexAuthor, entry, author.ID)), nil
}

func published(e *models.Entry) *models.Entry {
	if !e.HasURL() {
		return nil
	}
	return e
}
