package models

import (
	"time"
)

// Post is a publishable content item as stored by the content repository.
type Post struct {
	ID          int64     `json:"id" db:"id"`
	Type        string    `json:"type" db:"post_type"`
	Status      string    `json:"status" db:"post_status"`
	Name        string    `json:"name" db:"post_name"`
	Title       string    `json:"title" db:"post_title"`
	Content     string    `json:"content" db:"post_content"`
	DateGMT     time.Time `json:"date_gmt" db:"post_date_gmt"`
	ModifiedGMT time.Time `json:"modified_gmt" db:"post_modified_gmt"`
}

type Term struct {
	ID       int64  `json:"id" db:"term_id"`
	Taxonomy string `json:"taxonomy" db:"taxonomy"`
	Name     string `json:"name" db:"name"`
	Slug     string `json:"slug" db:"slug"`
	Count    int64  `json:"count" db:"count"`
}

type Author struct {
	ID       int64  `json:"id" db:"id"`
	Login    string `json:"login" db:"user_login"`
	NiceName string `json:"nicename" db:"user_nicename"`
}

// Attachment holds the fields of a media item needed for an image entry.
type Attachment struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Alt   string `json:"alt"`
	Title string `json:"title"`
}

const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
	StatusInherit = "inherit"

	TypeAttachment = "attachment"
)

// IsPublished reports whether the post is visible to anonymous visitors.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublish
}
