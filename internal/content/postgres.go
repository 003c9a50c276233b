package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/romangod6/sitemapgen/internal/models"
)

// PostgresOptions describes where the site's tables live and which types
// are public. Post types and taxonomies are registered by site code, not
// stored, so they are configured here.
type PostgresOptions struct {
	TablePrefix string
	BlogID      int
	PostTypes   []string
	Taxonomies  []string
	Links       LinkBuilder
}

// PostgresRepository reads content from a WordPress-compatible schema.
type PostgresRepository struct {
	db    *sqlx.DB
	opts  PostgresOptions
	links LinkBuilder

	posts, postmeta, terms, termTaxonomy, users, usermeta string
	capabilitiesKey                                       string
}

func NewPostgresRepository(connStr string, opts PostgresOptions) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connect content database: %w", err)
	}

	return NewPostgresRepositoryFromDB(db, opts), nil
}

// NewPostgresRepositoryFromDB wraps an open connection.
func NewPostgresRepositoryFromDB(db *sqlx.DB, opts PostgresOptions) *PostgresRepository {
	if opts.TablePrefix == "" {
		opts.TablePrefix = "wp_"
	}

	sitePrefix := opts.TablePrefix
	if opts.BlogID > 1 {
		sitePrefix = opts.TablePrefix + strconv.Itoa(opts.BlogID) + "_"
	}

	return &PostgresRepository{
		db:              db,
		opts:            opts,
		links:           opts.Links,
		posts:           sitePrefix + "posts",
		postmeta:        sitePrefix + "postmeta",
		terms:           sitePrefix + "terms",
		termTaxonomy:    sitePrefix + "term_taxonomy",
		users:           opts.TablePrefix + "users",
		usermeta:        opts.TablePrefix + "usermeta",
		capabilitiesKey: sitePrefix + "capabilities",
	}
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) HomeURL() string {
	return r.links.home()
}

func (r *PostgresRepository) PostTypes(context.Context) ([]string, error) {
	return append([]string(nil), r.opts.PostTypes...), nil
}

func (r *PostgresRepository) Taxonomies(context.Context) ([]string, error) {
	return append([]string(nil), r.opts.Taxonomies...), nil
}

func (r *PostgresRepository) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	query := `
        SELECT id, post_type, post_status, post_name, post_title, post_content, post_date_gmt, post_modified_gmt
        FROM ` + r.posts + `
        WHERE post_status = 'publish' AND post_type = $1 AND post_modified_gmt >= $2
        ORDER BY post_modified_gmt DESC, id DESC
        LIMIT $3 OFFSET $4
    `

	var posts []models.Post
	if err := r.db.SelectContext(ctx, &posts, query, q.Type, q.Since.UTC(), q.Limit, q.Offset); err != nil {
		return nil, fmt.Errorf("list %s posts at offset %d: %w", q.Type, q.Offset, err)
	}
	return posts, nil
}

func (r *PostgresRepository) ListTerms(ctx context.Context, taxonomy string, offset, limit int) ([]models.Term, error) {
	query := `
        SELECT tt.term_id, tt.taxonomy, t.name, t.slug, tt.count
        FROM ` + r.termTaxonomy + ` AS tt
        JOIN ` + r.terms + ` AS t ON t.term_id = tt.term_id
        WHERE tt.taxonomy = $1 AND tt.count > 0
        ORDER BY tt.term_id DESC
        LIMIT $2 OFFSET $3
    `

	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, taxonomy, limit, offset); err != nil {
		return nil, fmt.Errorf("list %s terms at offset %d: %w", taxonomy, offset, err)
	}
	return terms, nil
}

func (r *PostgresRepository) ListAuthors(ctx context.Context, roles []string, offset, limit int) ([]models.Author, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	args := []any{r.capabilitiesKey}
	likes := make([]string, 0, len(roles))
	for _, role := range roles {
		args = append(args, `%"`+escapeLike(role)+`"%`)
		likes = append(likes, fmt.Sprintf("m.meta_value LIKE $%d", len(args)))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
        SELECT DISTINCT u.id, u.user_login, u.user_nicename
        FROM %s AS u
        JOIN %s AS m ON m.user_id = u.id
        WHERE m.meta_key = $1 AND (%s)
        ORDER BY u.user_login ASC
        LIMIT $%d OFFSET $%d
    `, r.users, r.usermeta, strings.Join(likes, " OR "), len(args)-1, len(args))

	var authors []models.Author
	if err := r.db.SelectContext(ctx, &authors, query, args...); err != nil {
		return nil, fmt.Errorf("list authors at offset %d: %w", offset, err)
	}
	return authors, nil
}

func (r *PostgresRepository) Permalink(_ context.Context, p models.Post) (string, error) {
	return r.links.PostLink(p), nil
}

func (r *PostgresRepository) ArchiveURL(_ context.Context, postType string) (string, error) {
	return r.links.ArchiveLink(postType), nil
}

func (r *PostgresRepository) TermLink(_ context.Context, t models.Term) (string, error) {
	return r.links.TermLink(t), nil
}

func (r *PostgresRepository) AuthorURL(_ context.Context, a models.Author) (string, error) {
	return r.links.AuthorLink(a), nil
}

func (r *PostgresRepository) ThumbnailID(ctx context.Context, postID int64) (int64, error) {
	query := `SELECT meta_value FROM ` + r.postmeta + ` WHERE post_id = $1 AND meta_key = '_thumbnail_id' LIMIT 1`

	var raw string
	err := r.db.QueryRowxContext(ctx, query, postID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("thumbnail of post %d: %w", postID, err)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, nil
	}
	return id, nil
}

func (r *PostgresRepository) Attachment(ctx context.Context, id int64) (*models.Attachment, error) {
	query := `
        SELECT p.post_title,
            COALESCE((SELECT meta_value FROM ` + r.postmeta + ` WHERE post_id = p.id AND meta_key = '_wp_attached_file' LIMIT 1), ''),
            COALESCE((SELECT meta_value FROM ` + r.postmeta + ` WHERE post_id = p.id AND meta_key = '_wp_attachment_image_alt' LIMIT 1), '')
        FROM ` + r.posts + ` AS p
        WHERE p.id = $1 AND p.post_type = 'attachment'
    `

	var title, file, alt string
	err := r.db.QueryRowxContext(ctx, query, id).Scan(&title, &file, &alt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("attachment %d: %w", id, err)
	}

	return &models.Attachment{
		ID:    id,
		URL:   r.links.AttachmentURL(file),
		Alt:   alt,
		Title: title,
	}, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + r.posts + ` WHERE id = $1)`
	if err := r.db.QueryRowxContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check post %d: %w", id, err)
	}
	return exists, nil
}

func (r *PostgresRepository) ChildAttachments(ctx context.Context, parentID int64, exclude []int64) ([]int64, error) {
	query := `
        SELECT id FROM ` + r.posts + `
        WHERE post_parent = $1
            AND post_type = 'attachment'
            AND post_status = 'inherit'
            AND post_mime_type LIKE 'image/%'
            AND NOT (id = ANY($2))
        ORDER BY post_date DESC
    `

	if exclude == nil {
		exclude = []int64{}
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, parentID, pq.Array(exclude)); err != nil {
		return nil, fmt.Errorf("attachments of %d: %w", parentID, err)
	}
	return ids, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
