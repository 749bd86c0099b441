// Package render turns a content snapshot into the complete static site.
package render

import (
	"bytes"
	"cmp"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/k11v/sitebuild/internal/content"
)

//go:embed templates/*.html.tmpl
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplates = []string{
	"index",
	"intro",
	"notice",
	"notice_detail",
	"activity",
	"activity_detail",
	"newsletter",
	"newsletter_detail",
	"donation",
	"donation_complete",
}

// Source provides the content to render.
type Source interface {
	Snapshot(ctx context.Context) (*content.Snapshot, error)
}

// Renderer renders full rebuilds. Output is written to a staging directory
// next to the output root and swapped in only when every file is written.
type Renderer struct {
	config    *Config
	templates map[string]*template.Template
	seo       *seoTable

	BuildID int64            // optional, recorded in build.json
	Now     func() time.Time // default: time.Now
	Log     *slog.Logger     // optional
}

func New(cfg *Config) (*Renderer, error) {
	funcs := template.FuncMap{
		"raw":   func(s string) template.HTML { return template.HTML(s) },
		"date":  formatDate,
		"deref": func(p *int) int { return *p },
	}

	templates := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html.tmpl", "templates/"+name+".html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("render.New: %w", err)
		}
		templates[name] = t
	}

	seo, err := loadSEOTable()
	if err != nil {
		return nil, fmt.Errorf("render.New: %w", err)
	}

	return &Renderer{config: cfg, templates: templates, seo: seo}, nil
}

type Result struct {
	Dir   string
	Files []string // slash-separated, relative to Dir, sorted
}

// Run reads a snapshot from src and renders it.
func (r *Renderer) Run(ctx context.Context, src Source) (*Result, error) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("render.Renderer: %w", err)
	}
	return r.Render(ctx, snap)
}

// Render writes the whole site for snap. On error the previous output is untouched.
func (r *Renderer) Render(ctx context.Context, snap *content.Snapshot) (*Result, error) {
	dist := r.config.Dir()
	parent := filepath.Dir(dist)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("render.Renderer: %w", err)
	}
	if err := recoverOutput(dist); err != nil {
		return nil, fmt.Errorf("render.Renderer: %w", err)
	}
	staging, err := os.MkdirTemp(parent, stagingPattern(dist))
	if err != nil {
		return nil, fmt.Errorf("render.Renderer: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	out := &output{root: staging}
	if err = r.renderAll(ctx, out, snap); err != nil {
		return nil, fmt.Errorf("render.Renderer: %w", err)
	}
	if err = swap(staging, dist); err != nil {
		return nil, fmt.Errorf("render.Renderer: %w", err)
	}

	r.log().Info("rendered site", "dir", dist, "files", len(out.files))
	return &Result{Dir: dist, Files: sortedFiles(out.files)}, nil
}

func (r *Renderer) renderAll(ctx context.Context, out *output, snap *content.Snapshot) error {
	steps := []func(context.Context, *output, *content.Snapshot) error{
		r.renderStatic,
		r.renderSingletons,
		r.renderNotices,
		r.renderActivities,
		r.renderNewsletters,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx, out, snap); err != nil {
			return err
		}
	}
	return r.renderMeta(out, snap)
}

type pageData struct {
	Site         content.SiteInfo
	Office       content.OfficeInfo
	SEO          SEO
	CurrentPage  string
	StaticDomain string
	APIDomain    string
	Body         any
}

func (r *Renderer) newPageData(snap *content.Snapshot, current, seoName, path string, body any) *pageData {
	seo := r.seo.page(seoName)
	seo.URL = absoluteURL(r.config.staticDomain(), path)
	seo.OGImage = NormalizeImageURL(r.config.staticDomain(), seo.OGImage)
	return &pageData{
		Site:         snap.SiteInfo,
		Office:       snap.OfficeInfo,
		SEO:          seo,
		CurrentPage:  current,
		StaticDomain: r.config.staticDomain(),
		APIDomain:    r.config.apiDomain(),
		Body:         body,
	}
}

// page renders a template, rewrites asset URLs and writes the file.
// A nil entry keeps the page out of the sitemap.
func (r *Renderer) page(out *output, name, tmpl string, data *pageData, entry *SitemapEntry) error {
	var buf bytes.Buffer
	if err := r.templates[tmpl].ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := out.write(name, []byte(RewriteAssetURLs(r.config.staticDomain(), buf.String()))); err != nil {
		return err
	}
	if entry != nil {
		out.sitemap = append(out.sitemap, *entry)
	}
	return nil
}

func (r *Renderer) renderStatic(_ context.Context, out *output, _ *content.Snapshot) error {
	return fs.WalkDir(staticFS, "static", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := staticFS.ReadFile(p)
		if err != nil {
			return err
		}
		return out.write(p, data)
	})
}

type indexBody struct {
	HeroPhotos     []content.ActivityPhoto
	BusinessAreas  []content.BusinessArea
	Notices        []content.Notice
	Activities     []content.ActivityPost
	Newsletters    []content.Newsletter
	VolunteerAreas []content.Area
	DonationAreas  []content.Area
}

type introBody struct {
	BusinessAreas   []content.BusinessArea
	HistorySections []content.HistorySection
	OperatingHours  []content.OperatingHours
	BusStops        []content.BusStop
	BusRoutes       []routeGroup
}

type routeGroup struct {
	Type   content.BusRouteType
	Routes []content.BusRoute
}

// groupRoutes groups routes by type in content.BusRouteTypes order,
// keeping empty types out. Routes of unknown types are dropped.
func groupRoutes(routes []content.BusRoute) []routeGroup {
	var groups []routeGroup
	for _, t := range content.BusRouteTypes {
		g := routeGroup{Type: t, Routes: filter(routes, func(r content.BusRoute) bool { return r.RouteType == t })}
		if len(g.Routes) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

type donationBody struct {
	VolunteerAreas []content.Area
	DonationAreas  []content.Area
	DonationUsages []content.DonationUsage
}

func (r *Renderer) renderSingletons(_ context.Context, out *output, snap *content.Snapshot) error {
	updated := contentUpdatedAt(snap)

	index := indexBody{
		HeroPhotos:     head(snap.ActivityPhotos, 5),
		BusinessAreas:  snap.BusinessAreas,
		Notices:        head(sortNoticesForListing(snap.Notices), 5),
		Activities:     head(sortActivities(snap.ActivityPosts), 6),
		Newsletters:    head(sortNewsletters(snap.Newsletters), 4),
		VolunteerAreas: snap.VolunteerAreas,
		DonationAreas:  snap.DonationAreas,
	}
	if err := r.page(out, "index.html", "index",
		r.newPageData(snap, "index", "index", "/", index),
		&SitemapEntry{Path: "/", LastMod: updated, ChangeFreq: Daily, Priority: 1.0},
	); err != nil {
		return err
	}

	intro := introBody{
		BusinessAreas:   snap.BusinessAreas,
		HistorySections: snap.HistorySections,
		OperatingHours:  snap.OperatingHours,
		BusStops:        snap.BusStops,
		BusRoutes:       groupRoutes(snap.BusRoutes),
	}
	if err := r.page(out, "intro.html", "intro",
		r.newPageData(snap, "intro", "intro", "/intro", intro),
		&SitemapEntry{Path: "/intro", LastMod: updated, ChangeFreq: Monthly, Priority: 0.8},
	); err != nil {
		return err
	}

	donation := donationBody{
		VolunteerAreas: snap.VolunteerAreas,
		DonationAreas:  snap.DonationAreas,
		DonationUsages: snap.DonationUsages,
	}
	if err := r.page(out, "donation.html", "donation",
		r.newPageData(snap, "donation", "donation", "/donation", donation),
		&SitemapEntry{Path: "/donation", LastMod: snap.SiteInfo.UpdatedAt, ChangeFreq: Monthly, Priority: 0.8},
	); err != nil {
		return err
	}

	return r.page(out, "donation-complete.html", "donation_complete",
		r.newPageData(snap, "donation", "donation_complete", "/donation-complete", nil),
		nil,
	)
}

type PagerLink struct {
	Number  int
	URL     string
	Current bool
}

// Pager is the navigation of one listing page, derived from (page, total).
type Pager struct {
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
	Links      []PagerLink
}

func newPager(base string, number, total int) Pager {
	p := Pager{
		TotalPages: total,
		HasPrev:    number > 1,
		HasNext:    number < total,
	}
	if p.HasPrev {
		p.PrevURL = ListingURL(base, number-1)
	}
	if p.HasNext {
		p.NextURL = ListingURL(base, number+1)
	}
	for n := 1; n <= total; n++ {
		p.Links = append(p.Links, PagerLink{Number: n, URL: ListingURL(base, n), Current: n == number})
	}
	return p
}

type categoryLink struct {
	Name string
	Slug string
}

type listingBody[T any] struct {
	Page       Page[T]
	Pager      Pager
	Category   string
	Categories []categoryLink
}

// renderListing writes every page of one listing rooted at base.
func renderListing[T any](r *Renderer, out *output, snap *content.Snapshot, items []T, size int, base, tmpl, current, seoName string, lastMod time.Time, decorate func(*listingBody[T])) error {
	for _, p := range Paginate(items, size) {
		body := &listingBody[T]{Page: p, Pager: newPager(base, p.Number, p.TotalPages)}
		if decorate != nil {
			decorate(body)
		}

		url := ListingURL(base, p.Number)
		entry := &SitemapEntry{Path: url, LastMod: lastMod, ChangeFreq: Daily, Priority: 0.8}
		if p.Number > 1 {
			entry.ChangeFreq, entry.Priority = Weekly, 0.5
		}
		if err := r.page(out, ListingFile(base, p.Number), tmpl, r.newPageData(snap, current, seoName, url, body), entry); err != nil {
			return err
		}
	}
	return nil
}

type noticeDetailBody struct {
	Notice content.Notice
	Prev   *content.Notice
	Next   *content.Notice
}

func (r *Renderer) renderNotices(_ context.Context, out *output, snap *content.Snapshot) error {
	listing := sortNoticesForListing(snap.Notices)
	if err := renderListing(r, out, snap, listing, r.config.noticePageSize(), "notice", "notice", "notice", "notice_list", latest(listing, noticeUpdatedAt), nil); err != nil {
		return err
	}

	// Detail navigation follows publication order; pinning only affects listings.
	detail := sortNotices(snap.Notices)
	for i, n := range detail {
		newer, older := Neighbors(detail, i)
		path := "/notice/" + strconv.FormatInt(n.ID, 10)

		data := r.newPageData(snap, "notice", "detail", path, &noticeDetailBody{Notice: n, Prev: older, Next: newer})
		data.SEO.Title = n.Title
		data.SEO.Description = Description("", n.Content)

		entry := &SitemapEntry{Path: path, LastMod: n.UpdatedAt, ChangeFreq: Monthly, Priority: 0.6}
		if err := r.page(out, "notice/"+strconv.FormatInt(n.ID, 10)+".html", "notice_detail", data, entry); err != nil {
			return err
		}
	}
	return nil
}

type activityDetailBody struct {
	Post    content.ActivityPost
	Prev    *content.ActivityPost
	Next    *content.ActivityPost
	Related []content.ActivityPost
}

func (r *Renderer) renderActivities(ctx context.Context, out *output, snap *content.Snapshot) error {
	posts := sortActivities(snap.ActivityPosts)
	size := r.config.activityPageSize()

	slugs := categorySlugs(snap.ActivityCategories)
	categories := make([]categoryLink, len(snap.ActivityCategories))
	for i, c := range snap.ActivityCategories {
		categories[i] = categoryLink{Name: c.Name, Slug: slugs[i]}
	}

	err := renderListing(r, out, snap, posts, size, "activity", "activity", "activity", "activity_list", latest(posts, activityUpdatedAt), func(b *listingBody[content.ActivityPost]) {
		b.Categories = categories
	})
	if err != nil {
		return err
	}

	for _, c := range categories {
		if err = ctx.Err(); err != nil {
			return err
		}
		inCategory := filter(posts, func(p content.ActivityPost) bool { return p.Category == c.Name })
		err = renderListing(r, out, snap, inCategory, size, "activity/category/"+c.Slug, "activity", "activity", "activity_list", latest(inCategory, activityUpdatedAt), func(b *listingBody[content.ActivityPost]) {
			b.Category = c.Name
			b.Categories = categories
		})
		if err != nil {
			return err
		}
	}

	for i, p := range posts {
		newer, older := Neighbors(posts, i)
		path := "/activity/" + strconv.FormatInt(p.ID, 10)

		var related []content.ActivityPost
		if p.Category != "" {
			related = head(filter(posts, func(o content.ActivityPost) bool {
				return o.Category == p.Category && o.ID != p.ID
			}), 3)
		}

		data := r.newPageData(snap, "activity", "detail", path, &activityDetailBody{Post: p, Prev: older, Next: newer, Related: related})
		data.SEO.Title = p.Title
		data.SEO.Description = Description("", p.Content)
		if p.ThumbnailURL != "" {
			data.SEO.OGImage = NormalizeImageURL(r.config.staticDomain(), p.ThumbnailURL)
		}

		entry := &SitemapEntry{Path: path, LastMod: p.UpdatedAt, ChangeFreq: Monthly, Priority: 0.6}
		if err = r.page(out, "activity/"+strconv.FormatInt(p.ID, 10)+".html", "activity_detail", data, entry); err != nil {
			return err
		}
	}
	return nil
}

type newsletterDetailBody struct {
	Newsletter content.Newsletter
	Prev       *content.Newsletter
	Next       *content.Newsletter
}

func (r *Renderer) renderNewsletters(_ context.Context, out *output, snap *content.Snapshot) error {
	newsletters := sortNewsletters(snap.Newsletters)
	if err := renderListing(r, out, snap, newsletters, r.config.newsletterPageSize(), "newsletter", "newsletter", "newsletter", "newsletter_list", latest(newsletters, newsletterUpdatedAt), nil); err != nil {
		return err
	}

	for i, n := range newsletters {
		newer, older := Neighbors(newsletters, i)
		path := "/newsletter/" + strconv.FormatInt(n.ID, 10)

		data := r.newPageData(snap, "newsletter", "detail", path, &newsletterDetailBody{Newsletter: n, Prev: older, Next: newer})
		data.SEO.Title = n.Title
		data.SEO.Description = Description(n.Description, n.HTMLContent)

		entry := &SitemapEntry{Path: path, LastMod: newsletterUpdatedAt(n), ChangeFreq: Monthly, Priority: 0.6}
		if err := r.page(out, "newsletter/"+strconv.FormatInt(n.ID, 10)+".html", "newsletter_detail", data, entry); err != nil {
			return err
		}
	}
	return nil
}

const headersFile = `/static/*
  Cache-Control: public, max-age=86400
/uploads/*
  Cache-Control: public, max-age=31536000
/*
  X-Content-Type-Options: nosniff
  Referrer-Policy: strict-origin-when-cross-origin
`

// renderMeta writes the sitemap, robots.txt and deployment metadata.
// build.json is the only file that varies between renders of the same content.
func (r *Renderer) renderMeta(out *output, snap *content.Snapshot) error {
	sitemap, err := Sitemap(r.config.staticDomain(), out.sitemap)
	if err != nil {
		return err
	}
	if err = out.write("sitemap.xml", sitemap); err != nil {
		return err
	}
	if err = out.write("robots.txt", Robots(r.config.staticDomain())); err != nil {
		return err
	}
	if err = out.write("_headers", []byte(headersFile)); err != nil {
		return err
	}

	type buildInfo struct {
		BuildID       int64     `json:"build_id,omitempty"`
		BuiltAt       time.Time `json:"built_at"`
		Pages         int       `json:"pages"`
		Notices       int       `json:"notices"`
		ActivityPosts int       `json:"activity_posts"`
		Newsletters   int       `json:"newsletters"`
	}
	info, err := json.MarshalIndent(buildInfo{
		BuildID:       r.BuildID,
		BuiltAt:       r.now().UTC(),
		Pages:         len(out.sitemap),
		Notices:       len(snap.Notices),
		ActivityPosts: len(snap.ActivityPosts),
		Newsletters:   len(snap.Newsletters),
	}, "", "  ")
	if err != nil {
		return err
	}
	return out.write("build.json", append(info, '\n'))
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Renderer) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// sortNoticesForListing puts pinned notices first, then newest first.
func sortNoticesForListing(notices []content.Notice) []content.Notice {
	s := slices.Clone(notices)
	slices.SortStableFunc(s, func(a, b content.Notice) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return compareNewest(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return s
}

func sortNotices(notices []content.Notice) []content.Notice {
	s := slices.Clone(notices)
	slices.SortStableFunc(s, func(a, b content.Notice) int {
		return compareNewest(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return s
}

func sortActivities(posts []content.ActivityPost) []content.ActivityPost {
	s := slices.Clone(posts)
	slices.SortStableFunc(s, func(a, b content.ActivityPost) int {
		return compareNewest(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return s
}

// sortNewsletters orders by publication date, newest first, undated last.
func sortNewsletters(newsletters []content.Newsletter) []content.Newsletter {
	s := slices.Clone(newsletters)
	slices.SortStableFunc(s, func(a, b content.Newsletter) int {
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return cmp.Compare(b.ID, a.ID)
		case a.PublishedAt == nil:
			return 1
		case b.PublishedAt == nil:
			return -1
		}
		return compareNewest(*a.PublishedAt, *b.PublishedAt, a.ID, b.ID)
	})
	return s
}

func compareNewest(a, b time.Time, aID, bID int64) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmp.Compare(bID, aID)
}

func noticeUpdatedAt(n content.Notice) time.Time         { return n.UpdatedAt }
func activityUpdatedAt(p content.ActivityPost) time.Time { return p.UpdatedAt }

func newsletterUpdatedAt(n content.Newsletter) time.Time {
	if n.PublishedAt != nil && n.PublishedAt.After(n.CreatedAt) {
		return *n.PublishedAt
	}
	return n.CreatedAt
}

func latest[T any](items []T, at func(T) time.Time) time.Time {
	var t time.Time
	for _, item := range items {
		if v := at(item); v.After(t) {
			t = v
		}
	}
	return t
}

// contentUpdatedAt is the newest modification time anywhere in snap.
func contentUpdatedAt(snap *content.Snapshot) time.Time {
	return slices.MaxFunc([]time.Time{
		snap.SiteInfo.UpdatedAt,
		latest(snap.Notices, noticeUpdatedAt),
		latest(snap.ActivityPosts, activityUpdatedAt),
		latest(snap.Newsletters, newsletterUpdatedAt),
	}, time.Time.Compare)
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2006.01.02")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("2006.01.02")
	default:
		return ""
	}
}
