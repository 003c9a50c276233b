package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// [gallery ...], [gallery .../] and the opening tag of [gallery]...[/gallery].
	// [[gallery]] is the escaped form and is not a gallery.
	galleryShortcode = regexp.MustCompile(`\[(\[?)gallery(?:\s+([^\]]*?))?\s*(/?)\](\]?)`)

	shortcodeAttr = regexp.MustCompile(
		`([\w-]+)\s*=\s*"([^"]*)"(?:\s|$)|` +
			`([\w-]+)\s*=\s*'([^']*)'(?:\s|$)|` +
			`([\w-]+)\s*=\s*([^\s'"]+)(?:\s|$)|` +
			`"([^"]*)"(?:\s|$)|` +
			`'([^']*)'(?:\s|$)|` +
			`(\S+)(?:\s|$)`,
	)

	idSeparator = regexp.MustCompile(`[\s,]+`)
	invisibleWS = strings.NewReplacer("\u00a0", " ", "\u200b", " ")
)

// GalleryAttachmentIDs returns the attachment ids referenced by the gallery
// shortcodes in body, without duplicates. Galleries without an explicit
// include list fall back to the image attachments of ownerID, or of the
// post named by their id attribute.
func (e *Extractor) GalleryAttachmentIDs(ctx context.Context, body string, ownerID int64) ([]int64, error) {
	galleries := parseGalleries(body)
	if len(galleries) == 0 {
		return nil, nil
	}

	var ids []int64
	for _, g := range galleries {
		parent := ownerID
		if v, ok := g["id"]; ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
				parent = n
			}
		}

		include := g["include"]
		if v := g["ids"]; v != "" {
			include = v
		}

		if include != "" {
			ids = append(ids, parseIDList(include)...)
			continue
		}

		children, err := e.source.ChildAttachments(ctx, parent, parseIDList(g["exclude"]))
		if err != nil {
			return nil, fmt.Errorf("list gallery attachments of %d: %w", parent, err)
		}
		ids = append(ids, children...)
	}

	return uniqueIDs(ids), nil
}

// parseGalleries returns the attributes of every gallery shortcode in
// content, keys lowercased.
func parseGalleries(content string) []map[string]string {
	if !strings.Contains(content, "[gallery") {
		return nil
	}

	var galleries []map[string]string
	for _, m := range galleryShortcode.FindAllStringSubmatch(content, -1) {
		if m[1] == "[" && m[4] == "]" {
			continue
		}
		galleries = append(galleries, parseAttrs(m[2]))
	}
	return galleries
}

func parseAttrs(text string) map[string]string {
	attrs := make(map[string]string)
	text = invisibleWS.Replace(text)

	for _, m := range shortcodeAttr.FindAllStringSubmatch(text, -1) {
		switch {
		case m[1] != "":
			attrs[strings.ToLower(m[1])] = m[2]
		case m[3] != "":
			attrs[strings.ToLower(m[3])] = m[4]
		case m[5] != "":
			attrs[strings.ToLower(m[5])] = m[6]
		}
	}
	return attrs
}

// parseIDList splits a comma or whitespace separated id list. Entries that
// are not positive integers are skipped.
func parseIDList(list string) []int64 {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}

	var ids []int64
	for _, part := range idSeparator.Split(list, -1) {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		ids = append(ids, n)
	}
	return uniqueIDs(ids)
}

func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
