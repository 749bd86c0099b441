package render

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/k11v/sitebuild/internal/content"
)

// Slug turns a category name into a path segment: NFC-normalized,
// with whitespace runs replaced by "-". Slashes are dropped.
// Names made only of dots have no slug and yield "".
func Slug(name string) string {
	s := norm.NFC.String(name)
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.Join(strings.Fields(s), "-")
	if strings.Trim(s, ".") == "" {
		return ""
	}
	return s
}

// categorySlugs assigns every category its own path segment.
// A category without a slug gets "category-<id>", and a segment that is
// already taken gets "-<id>" appended.
func categorySlugs(categories []content.ActivityCategory) []string {
	slugs := make([]string, len(categories))
	taken := make(map[string]bool, len(categories))
	for i, c := range categories {
		id := strconv.FormatInt(c.ID, 10)
		s := Slug(c.Name)
		if s == "" {
			s = "category-" + id
		}
		if taken[s] {
			s += "-" + id
		}
		taken[s] = true
		slugs[i] = s
	}
	return slugs
}

// escapePath percent-encodes each segment of a public path.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
