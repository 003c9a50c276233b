package extract

import (
	"net/url"
	"strings"
)

// AbsoluteURL turns root-relative and scheme-relative URLs into absolute
// ones. Anything else that is not absolute is returned as is.
func (e *Extractor) AbsoluteURL(src string) string {
	if src == "" {
		return src
	}

	if isRelative(src) {
		if src[0] != '/' {
			return src
		}
		return e.homeURL + src
	}

	if strings.HasPrefix(src, "//") {
		return e.home.Scheme + ":" + src
	}

	return src
}

// SameHost reports whether src points at the site's own host. A leading
// "www." is ignored on both sides.
func (e *Extractor) SameHost(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}

	return bareHost(u.Hostname()) == bareHost(e.home.Hostname())
}

func isRelative(src string) bool {
	return !strings.HasPrefix(src, "http") && !strings.HasPrefix(src, "//")
}

func bareHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
