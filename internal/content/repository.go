// Package content provides read access to the site's content: posts, terms,
// authors and the attachments referenced by them.
package content

import (
	"context"
	"time"

	"github.com/romangod6/sitemapgen/internal/models"
)

// PostQuery selects one batch of published posts of a type, newest
// modification first.
type PostQuery struct {
	Type   string
	Since  time.Time // zero means no lower bound
	Offset int
	Limit  int
}

type Repository interface {
	// HomeURL is the site root without trailing slash.
	HomeURL() string

	// PostTypes returns the publicly visible post types.
	PostTypes(ctx context.Context) ([]string, error)
	// Taxonomies returns the publicly visible taxonomies.
	Taxonomies(ctx context.Context) ([]string, error)

	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	// ListTerms returns terms with at least one object, highest id first.
	ListTerms(ctx context.Context, taxonomy string, offset, limit int) ([]models.Term, error)
	// ListAuthors returns users holding any of roles, ordered by login.
	ListAuthors(ctx context.Context, roles []string, offset, limit int) ([]models.Author, error)

	Permalink(ctx context.Context, post models.Post) (string, error)
	ArchiveURL(ctx context.Context, postType string) (string, error)
	TermLink(ctx context.Context, term models.Term) (string, error)
	AuthorURL(ctx context.Context, author models.Author) (string, error)

	// ThumbnailID returns the featured image of a post, 0 if none.
	ThumbnailID(ctx context.Context, postID int64) (int64, error)
	// Attachment returns nil when id is not an attachment.
	Attachment(ctx context.Context, id int64) (*models.Attachment, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// ChildAttachments returns the image attachments whose parent is
	// parentID, newest first, minus exclude.
	ChildAttachments(ctx context.Context, parentID int64, exclude []int64) ([]int64, error)
}
