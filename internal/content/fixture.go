package content

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/romangod6/sitemapgen/internal/models"
)

type fixtureFile struct {
	PostTypes   []string            `yaml:"post_types"`
	Taxonomies  []string            `yaml:"taxonomies"`
	Posts       []fixturePost       `yaml:"posts"`
	Terms       []fixtureTerm       `yaml:"terms"`
	Authors     []fixtureAuthor     `yaml:"authors"`
	Attachments []fixtureAttachment `yaml:"attachments"`
}

type fixturePost struct {
	ID        int64     `yaml:"id"`
	Type      string    `yaml:"type"`
	Status    string    `yaml:"status"`
	Name      string    `yaml:"name"`
	Title     string    `yaml:"title"`
	Content   string    `yaml:"content"`
	Date      time.Time `yaml:"date"`
	Modified  time.Time `yaml:"modified"`
	Thumbnail int64     `yaml:"thumbnail"`
	Permalink *string   `yaml:"permalink"`
}

type fixtureTerm struct {
	ID       int64  `yaml:"id"`
	Taxonomy string `yaml:"taxonomy"`
	Name     string `yaml:"name"`
	Slug     string `yaml:"slug"`
	Count    int64  `yaml:"count"`
}

type fixtureAuthor struct {
	ID       int64    `yaml:"id"`
	Login    string   `yaml:"login"`
	NiceName string   `yaml:"nicename"`
	Roles    []string `yaml:"roles"`
}

type fixtureAttachment struct {
	ID       int64     `yaml:"id"`
	File     string    `yaml:"file"`
	URL      string    `yaml:"url"`
	Title    string    `yaml:"title"`
	Alt      string    `yaml:"alt"`
	Parent   int64     `yaml:"parent"`
	Uploaded time.Time `yaml:"uploaded"`
}

// LoadFixture builds a MemoryRepository from a YAML site description.
func LoadFixture(path string, links LinkBuilder) (*MemoryRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	return ReadFixture(f, links)
}

func ReadFixture(r io.Reader, links LinkBuilder) (*MemoryRepository, error) {
	var fx fixtureFile
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	if len(fx.PostTypes) == 0 {
		fx.PostTypes = []string{"post", "page", models.TypeAttachment}
	}
	if len(fx.Taxonomies) == 0 {
		fx.Taxonomies = []string{"category", "post_tag"}
	}

	repo := NewMemoryRepository(links, fx.PostTypes, fx.Taxonomies)

	for _, p := range fx.Posts {
		if p.Status == "" {
			p.Status = models.StatusPublish
		}
		if p.Modified.IsZero() {
			p.Modified = p.Date
		}
		repo.AddPost(models.Post{
			ID:          p.ID,
			Type:        p.Type,
			Status:      p.Status,
			Name:        p.Name,
			Title:       p.Title,
			Content:     p.Content,
			DateGMT:     p.Date.UTC(),
			ModifiedGMT: p.Modified.UTC(),
		})
		if p.Thumbnail > 0 {
			repo.SetThumbnail(p.ID, p.Thumbnail)
		}
		if p.Permalink != nil {
			repo.SetPermalink(p.ID, *p.Permalink)
		}
	}

	for _, t := range fx.Terms {
		repo.AddTerm(models.Term{ID: t.ID, Taxonomy: t.Taxonomy, Name: t.Name, Slug: t.Slug, Count: t.Count})
	}

	for _, a := range fx.Authors {
		repo.AddAuthor(models.Author{ID: a.ID, Login: a.Login, NiceName: a.NiceName}, a.Roles...)
	}

	for _, a := range fx.Attachments {
		repo.AddAttachment(models.Attachment{ID: a.ID, URL: a.URL, Title: a.Title, Alt: a.Alt}, a.File, a.Parent, a.Uploaded)
	}

	return repo, nil
}
