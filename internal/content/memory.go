package content

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/romangod6/sitemapgen/internal/models"
)

type memoryAttachment struct {
	att      models.Attachment
	file     string
	parent   int64
	mime     string
	uploaded time.Time
}

type memoryAuthor struct {
	author models.Author
	roles  []string
}

// MemoryRepository is an in-process Repository. It backs the "fixture"
// content driver and the tests of the build pipeline.
type MemoryRepository struct {
	mu sync.RWMutex

	links      LinkBuilder
	postTypes  []string
	taxonomies []string

	posts       []models.Post
	terms       []models.Term
	authors     []memoryAuthor
	attachments map[int64]memoryAttachment
	thumbnails  map[int64]int64
	archives    map[string]string
	permalinks  map[int64]string
}

func NewMemoryRepository(links LinkBuilder, postTypes, taxonomies []string) *MemoryRepository {
	return &MemoryRepository{
		links:       links,
		postTypes:   postTypes,
		taxonomies:  taxonomies,
		attachments: make(map[int64]memoryAttachment),
		thumbnails:  make(map[int64]int64),
		archives:    make(map[string]string),
		permalinks:  make(map[int64]string),
	}
}

func (r *MemoryRepository) AddPost(p models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, p)
}

func (r *MemoryRepository) AddTerm(t models.Term) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terms = append(r.terms, t)
}

func (r *MemoryRepository) AddAuthor(a models.Author, roles ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authors = append(r.authors, memoryAuthor{author: a, roles: roles})
}

// AddAttachment stores an image attachment. file is the stored upload path
// resolved through the LinkBuilder.
func (r *MemoryRepository) AddAttachment(att models.Attachment, file string, parent int64, uploaded time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attachments[att.ID] = memoryAttachment{
		att:      att,
		file:     file,
		parent:   parent,
		mime:     "image/jpeg",
		uploaded: uploaded,
	}
}

func (r *MemoryRepository) SetThumbnail(postID, attachmentID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thumbnails[postID] = attachmentID
}

// SetPermalink overrides the computed permalink of a post. An empty link
// makes the post unreachable.
func (r *MemoryRepository) SetPermalink(postID int64, link string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permalinks[postID] = link
}

func (r *MemoryRepository) HomeURL() string {
	return r.links.home()
}

func (r *MemoryRepository) PostTypes(context.Context) ([]string, error) {
	return append([]string(nil), r.postTypes...), nil
}

func (r *MemoryRepository) Taxonomies(context.Context) ([]string, error) {
	return append([]string(nil), r.taxonomies...), nil
}

func (r *MemoryRepository) ListPosts(_ context.Context, q PostQuery) ([]models.Post, error) {
	r.mu.RLock()
	var matched []models.Post
	for _, p := range r.posts {
		if p.Type != q.Type || !p.IsPublished() {
			continue
		}
		if !q.Since.IsZero() && p.ModifiedGMT.Before(q.Since) {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].ModifiedGMT.Equal(matched[j].ModifiedGMT) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].ModifiedGMT.After(matched[j].ModifiedGMT)
	})

	return window(matched, q.Offset, q.Limit), nil
}

func (r *MemoryRepository) ListTerms(_ context.Context, taxonomy string, offset, limit int) ([]models.Term, error) {
	r.mu.RLock()
	var matched []models.Term
	for _, t := range r.terms {
		if t.Taxonomy == taxonomy && t.Count > 0 {
			matched = append(matched, t)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	return window(matched, offset, limit), nil
}

func (r *MemoryRepository) ListAuthors(_ context.Context, roles []string, offset, limit int) ([]models.Author, error) {
	r.mu.RLock()
	var matched []models.Author
	for _, a := range r.authors {
		if hasAnyRole(a.roles, roles) {
			matched = append(matched, a.author)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Login < matched[j].Login })

	return window(matched, offset, limit), nil
}

func (r *MemoryRepository) Permalink(_ context.Context, p models.Post) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if link, ok := r.permalinks[p.ID]; ok {
		return link, nil
	}
	return r.links.PostLink(p), nil
}

func (r *MemoryRepository) ArchiveURL(_ context.Context, postType string) (string, error) {
	return r.links.ArchiveLink(postType), nil
}

func (r *MemoryRepository) TermLink(_ context.Context, t models.Term) (string, error) {
	return r.links.TermLink(t), nil
}

func (r *MemoryRepository) AuthorURL(_ context.Context, a models.Author) (string, error) {
	return r.links.AuthorLink(a), nil
}

func (r *MemoryRepository) ThumbnailID(_ context.Context, postID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.thumbnails[postID], nil
}

func (r *MemoryRepository) Attachment(_ context.Context, id int64) (*models.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.attachments[id]
	if !ok {
		return nil, nil
	}
	att := a.att
	if a.file != "" {
		att.URL = r.links.AttachmentURL(a.file)
	}
	return &att, nil
}

func (r *MemoryRepository) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.attachments[id]; ok {
		return true, nil
	}
	for _, p := range r.posts {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) ChildAttachments(_ context.Context, parentID int64, exclude []int64) ([]int64, error) {
	r.mu.RLock()
	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var matched []memoryAttachment
	for id, a := range r.attachments {
		if a.parent == parentID && !skip[id] && strings.HasPrefix(a.mime, "image/") {
			matched = append(matched, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].uploaded.Equal(matched[j].uploaded) {
			return matched[i].att.ID > matched[j].att.ID
		}
		return matched[i].uploaded.After(matched[j].uploaded)
	})

	ids := make([]int64, 0, len(matched))
	for _, a := range matched {
		ids = append(ids, a.att.ID)
	}
	return ids, nil
}

func hasAnyRole(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
