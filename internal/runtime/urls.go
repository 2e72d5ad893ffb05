// Package runtime builds the URLs that embedded course blocks use to reach
// their handlers.
package runtime

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	slashQuoter   = strings.NewReplacer(";", ";;", "/", ";_")
	slashUnquoter = strings.NewReplacer(";;", ";", ";_", "/")
)

// QuoteSlashes escapes '/' as ";_" and ';' as ";;" so an identifier can sit
// in a single URL path segment. The escape sequences have fixed length, which
// makes the transform reversible.
func QuoteSlashes(s string) string {
	return slashQuoter.Replace(s)
}

// UnquoteSlashes reverses QuoteSlashes.
func UnquoteSlashes(s string) string {
	return slashUnquoter.Replace(s)
}

// Site identifies the public host serving block handlers.
type Site struct {
	Name  string
	HTTPS bool
}

// HandlerURLOptions selects the handler and URL shape.
type HandlerURLOptions struct {
	Handler    string
	Suffix     string
	Query      string
	ThirdParty bool
}

// HandlerURL returns the path of a block handler in a course. Third-party
// handlers skip authentication and get a fully qualified URL.
func (s Site) HandlerURL(courseID, usageID string, opts HandlerURLOptions) string {
	view := "handler"
	if opts.ThirdParty {
		view = "handler_noauth"
	}

	path := fmt.Sprintf("/courses/%s/xblock/%s/%s/%s/%s",
		escapePath(courseID),
		QuoteSlashes(usageID),
		view,
		url.PathEscape(opts.Handler),
		escapePath(opts.Suffix),
	)
	if opts.Suffix == "" {
		path = strings.TrimRight(path, "/")
	}
	if opts.Query != "" {
		path += "?" + opts.Query
	}

	if opts.ThirdParty {
		scheme := "http"
		if s.HTTPS {
			scheme = "https"
		}
		return scheme + "://" + s.Name + path
	}
	return path
}

// ResourceURL returns the protocol-relative URL of a static block resource.
func (s Site) ResourceURL(blockType, uri string) string {
	return "//" + s.Name + "/xblock/resource/" + url.PathEscape(blockType) + "/" + escapePath(uri)
}

// escapePath escapes each '/' separated segment of p.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
