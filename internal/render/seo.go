package render

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"
)

// DescriptionLength bounds derived page descriptions, in characters.
const DescriptionLength = 160

// SEO is the per-page metadata rendered into <head>.
type SEO struct {
	SiteName    string `yaml:"site_name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Keywords    string `yaml:"keywords"`
	OGImage     string `yaml:"og_image"`
	OGType      string `yaml:"og_type"`
	TwitterCard string `yaml:"twitter_card"`
	URL         string `yaml:"-"`
}

//go:embed seo.yaml
var seoYAML []byte

type seoTable struct {
	Defaults SEO            `yaml:"defaults"`
	Pages    map[string]SEO `yaml:"pages"`
}

func loadSEOTable() (*seoTable, error) {
	var t seoTable
	if err := yaml.Unmarshal(seoYAML, &t); err != nil {
		return nil, fmt.Errorf("seo.yaml: %w", err)
	}
	return &t, nil
}

// page merges the defaults with the overrides for a named page.
func (t *seoTable) page(name string) SEO {
	s := t.Defaults
	o, ok := t.Pages[name]
	if !ok {
		return s
	}
	if o.Title != "" {
		s.Title = o.Title
	}
	if o.Description != "" {
		s.Description = o.Description
	}
	if o.Keywords != "" {
		s.Keywords = o.Keywords
	}
	if o.OGImage != "" {
		s.OGImage = o.OGImage
	}
	if o.OGType != "" {
		s.OGType = o.OGType
	}
	return s
}

// StripMarkup returns the text content of an HTML fragment with runs of
// whitespace collapsed to single spaces. Inline tags join their text
// directly; block-level tags and <br> separate it. Script and style bodies
// are dropped.
func StripMarkup(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read.
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) {
				switch {
				case tt == html.StartTagToken:
					skip++
				case tt == html.EndTagToken && skip > 0:
					skip--
				}
			}
			if isBlockTag(name) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func isBlockTag(name []byte) bool {
	switch atom.Lookup(name) {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Br,
		atom.Dd, atom.Div, atom.Dl, atom.Dt, atom.Figcaption, atom.Figure,
		atom.Footer, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Hr, atom.Li, atom.Main, atom.Nav, atom.Ol, atom.P,
		atom.Pre, atom.Script, atom.Section, atom.Style, atom.Table, atom.Td,
		atom.Th, atom.Tr, atom.Ul:
		return true
	}
	return false
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Description prefers an explicit description and otherwise derives one
// from a rich-text body.
func Description(explicit, body string) string {
	if d := strings.TrimSpace(explicit); d != "" {
		return d
	}
	return Truncate(StripMarkup(body), DescriptionLength)
}

// NormalizeImageURL resolves a relative image path against staticDomain.
// Absolute URLs, including ones already under staticDomain, are returned
// unchanged, so applying it twice is the same as applying it once.
func NormalizeImageURL(staticDomain, u string) string {
	switch {
	case u == "":
		return ""
	case staticDomain != "" && strings.HasPrefix(u, staticDomain):
		return u
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		return u
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case !strings.HasPrefix(u, "/"):
		u = "/" + u
	}
	return strings.TrimSuffix(staticDomain, "/") + u
}
