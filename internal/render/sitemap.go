package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

type ChangeFreq string

const (
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
)

// SitemapEntry is one <url> of sitemap.xml.
type SitemapEntry struct {
	Path       string // public path, e.g. "/notice/12"
	LastMod    time.Time
	ChangeFreq ChangeFreq
	Priority   float64
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap encodes entries as a sitemaps.org urlset, in the given order.
func Sitemap(staticDomain string, entries []SitemapEntry) ([]byte, error) {
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, e := range entries {
		u := sitemapURL{
			Loc:        absoluteURL(staticDomain, e.Path),
			ChangeFreq: string(e.ChangeFreq),
			Priority:   fmt.Sprintf("%.1f", e.Priority),
		}
		if !e.LastMod.IsZero() {
			u.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots allows everything and points crawlers at the sitemap.
func Robots(staticDomain string) []byte {
	return []byte("User-agent: *\nAllow: /\n\nSitemap: " + absoluteURL(staticDomain, "/sitemap.xml") + "\n")
}

func absoluteURL(staticDomain, path string) string {
	d := staticDomain
	for len(d) > 0 && d[len(d)-1] == '/' {
		d = d[:len(d)-1]
	}
	return d + escapePath(path)
}
