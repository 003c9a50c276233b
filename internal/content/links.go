package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/romangod6/sitemapgen/internal/models"
)

const uploadsMarker = "wp-content/uploads"

// LinkBuilder derives public URLs from stored content the same way the
// site's rewrite rules expose them.
type LinkBuilder struct {
	Home string
	// PermalinkStructure applies to the "post" type, e.g. "/%year%/%monthnum%/%postname%/".
	PermalinkStructure string
	// ArchiveTypes lists the post types that have an archive page.
	ArchiveTypes []string
	UploadsURL   string
	UploadsDir   string
}

func (b LinkBuilder) home() string {
	return strings.TrimRight(b.Home, "/")
}

// PostLink returns the permalink of a published post.
func (b LinkBuilder) PostLink(p models.Post) string {
	home := b.home()
	if p.Name == "" {
		return fmt.Sprintf("%s/?p=%d", home, p.ID)
	}

	switch p.Type {
	case "page":
		return home + "/" + p.Name + "/"
	case "post":
		structure := b.PermalinkStructure
		if structure == "" {
			return fmt.Sprintf("%s/?p=%d", home, p.ID)
		}
		date := p.DateGMT
		r := strings.NewReplacer(
			"%postname%", p.Name,
			"%post_id%", strconv.FormatInt(p.ID, 10),
			"%year%", date.Format("2006"),
			"%monthnum%", date.Format("01"),
			"%day%", date.Format("02"),
		)
		return home + r.Replace(structure)
	default:
		return home + "/" + p.Type + "/" + p.Name + "/"
	}
}

// ArchiveLink returns "" for types without an archive page.
func (b LinkBuilder) ArchiveLink(postType string) string {
	for _, t := range b.ArchiveTypes {
		if t == postType {
			return b.home() + "/" + postType + "/"
		}
	}
	return ""
}

func (b LinkBuilder) TermLink(t models.Term) string {
	if t.Slug == "" {
		return ""
	}

	base := t.Taxonomy
	if base == "post_tag" {
		base = "tag"
	}
	return b.home() + "/" + base + "/" + t.Slug + "/"
}

func (b LinkBuilder) AuthorLink(a models.Author) string {
	if a.NiceName == "" {
		return ""
	}
	return b.home() + "/author/" + a.NiceName + "/"
}

// AttachmentURL maps a stored attachment file path to its public URL.
func (b LinkBuilder) AttachmentURL(file string) string {
	if file == "" {
		return ""
	}

	baseURL := strings.TrimRight(b.UploadsURL, "/")
	if baseURL == "" {
		baseURL = b.home() + "/" + uploadsMarker
	}

	switch {
	case b.UploadsDir != "" && strings.HasPrefix(file, b.UploadsDir):
		return baseURL + strings.TrimPrefix(file, b.UploadsDir)
	case strings.Contains(file, uploadsMarker):
		return baseURL + file[strings.Index(file, uploadsMarker)+len(uploadsMarker):]
	default:
		return baseURL + "/" + file
	}
}
