package render

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/k11v/sitebuild/internal/content"
)

func newTestRenderer(t *testing.T) (*Renderer, string) {
	t.Helper()
	dist := filepath.Join(t.TempDir(), "dist")
	r, err := New(&Config{
		StaticDomain:   "https://example.org",
		APIDomain:      "https://api.example.org",
		NoticePageSize: 10,
		DistDir:        dist,
	})
	if err != nil {
		t.Fatal(err)
	}
	return r, dist
}

func testSnapshot() *content.Snapshot {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := &content.Snapshot{
		SiteInfo: content.SiteInfo{SiteName: "Example", OrgName: "Example Org", UpdatedAt: base},
		ActivityCategories: []content.ActivityCategory{
			{ID: 1, Name: "교육 활동", IsActive: true},
			{ID: 2, Name: "Outreach", IsActive: true},
		},
	}
	for i := 1; i <= 25; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		snap.Notices = append(snap.Notices, content.Notice{
			ID: int64(i), Title: "Notice " + strconv.Itoa(i), Content: "<p>notice body</p>", CreatedAt: at, UpdatedAt: at,
		})
	}
	for i := 1; i <= 5; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		category := "Outreach"
		if i%2 == 1 {
			category = "교육 활동"
		}
		snap.ActivityPosts = append(snap.ActivityPosts, content.ActivityPost{
			ID: int64(i), Title: "Post " + strconv.Itoa(i), Content: `<p><img src="/static/uploads/a.png"></p>`,
			Category: category, ThumbnailURL: "/uploads/thumb.png", CreatedAt: at, UpdatedAt: at,
		})
	}
	published := base.Add(48 * time.Hour)
	snap.Newsletters = []content.Newsletter{
		{ID: 1, Title: "Spring", ContentType: content.NewsletterHTML, HTMLContent: "<p>hello</p>", PublishedAt: &published, CreatedAt: base},
		{ID: 2, Title: "Draft", ContentType: content.NewsletterPDF, PDFURL: "/uploads/n.pdf", CreatedAt: base},
	}
	return snap
}

func readTree(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestRendererRender(t *testing.T) {
	r, dist := newTestRenderer(t)

	result, err := r.Render(context.Background(), testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if result.Dir != dist {
		t.Errorf("got dir %q, want %q", result.Dir, dist)
	}

	files := readTree(t, dist)
	for _, name := range []string{
		"index.html",
		"intro.html",
		"donation.html",
		"donation-complete.html",
		"notice/index.html",
		"notice/page/2.html",
		"notice/page/3.html",
		"notice/1.html",
		"notice/25.html",
		"activity/index.html",
		"activity/3.html",
		"activity/category/교육-활동/index.html",
		"activity/category/Outreach/index.html",
		"newsletter/index.html",
		"newsletter/2.html",
		"static/css/site.css",
		"sitemap.xml",
		"robots.txt",
		"_headers",
		"build.json",
	} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
	if _, ok := files["notice/page/4.html"]; ok {
		t.Errorf("didn't want notice/page/4.html")
	}
	if info, err := os.Stat(filepath.Join(dist, UploadsDir)); err != nil || !info.IsDir() {
		t.Errorf("got %v, want uploads directory", err)
	}

	// Newest notice first, so notice 15 opens the second page.
	if !bytes.Contains(files["notice/page/2.html"], []byte(`href="/notice/15"`)) {
		t.Errorf("notice/page/2.html does not link notice 15")
	}
	if bytes.Contains(files["activity/3.html"], []byte(`"/static/uploads/`)) {
		t.Errorf("didn't want legacy upload paths in activity/3.html")
	}
	if !bytes.Contains(files["activity/3.html"], []byte(`src="https://example.org/uploads/a.png"`)) {
		t.Errorf("activity/3.html upload reference is not absolute")
	}
	if !bytes.Contains(files["sitemap.xml"], []byte("<loc>https://example.org/notice/25</loc>")) {
		t.Errorf("sitemap.xml does not list notice 25")
	}
	if bytes.Contains(files["sitemap.xml"], []byte("donation-complete")) {
		t.Errorf("didn't want donation-complete in sitemap.xml")
	}
}

func TestRendererRenderNeighbors(t *testing.T) {
	r, dist := newTestRenderer(t)
	if _, err := r.Render(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}

	page, err := os.ReadFile(filepath.Join(dist, "notice", "10.html"))
	if err != nil {
		t.Fatal(err)
	}
	// Previous is the older notice, next is the newer one.
	prev := bytes.Index(page, []byte(`href="/notice/9"`))
	next := bytes.Index(page, []byte(`href="/notice/11"`))
	if prev < 0 || next < 0 {
		t.Fatalf("got prev at %d and next at %d, want both links", prev, next)
	}
}

func TestRendererRenderIdempotent(t *testing.T) {
	r, dist := newTestRenderer(t)
	r.Now = func() time.Time { return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) }
	snap := testSnapshot()

	if _, err := r.Render(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	first := readTree(t, dist)

	r.Now = func() time.Time { return time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC) }
	if _, err := r.Render(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	second := readTree(t, dist)

	if len(first) != len(second) {
		t.Fatalf("got %d files, want %d", len(second), len(first))
	}
	for name, data := range first {
		if name == "build.json" {
			continue
		}
		if !bytes.Equal(data, second[name]) {
			t.Errorf("%s changed between renders", name)
		}
	}
	if bytes.Equal(first["build.json"], second["build.json"]) {
		t.Errorf("didn't want build.json unchanged")
	}
}

func TestRendererRenderPreservesUploads(t *testing.T) {
	r, dist := newTestRenderer(t)
	upload := filepath.Join(dist, UploadsDir, "photo.jpg")
	stale := filepath.Join(dist, "notice", "999.html")
	for _, p := range []string{upload, stale} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := r.Render(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}

	if data, err := os.ReadFile(upload); err != nil || string(data) != "x" {
		t.Errorf("got %q, %v, want upload kept", data, err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want stale page removed", err)
	}
}

func TestRendererRenderEmpty(t *testing.T) {
	r, dist := newTestRenderer(t)

	if _, err := r.Render(context.Background(), &content.Snapshot{}); err != nil {
		t.Fatal(err)
	}

	files := readTree(t, dist)
	for _, name := range []string{"index.html", "notice/index.html", "activity/index.html", "newsletter/index.html"} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
	if _, ok := files["notice/page/2.html"]; ok {
		t.Errorf("didn't want notice/page/2.html")
	}
}

func TestRendererRenderDescription(t *testing.T) {
	r, dist := newTestRenderer(t)
	snap := testSnapshot()
	snap.Notices[0].Content = "<p>" + strings.Repeat("word ", 100) + "</p>"

	if _, err := r.Render(context.Background(), snap); err != nil {
		t.Fatal(err)
	}

	page, err := os.ReadFile(filepath.Join(dist, "notice", "1.html"))
	if err != nil {
		t.Fatal(err)
	}
	want := `<meta name="description" content="` + Description("", snap.Notices[0].Content) + `">`
	if !bytes.Contains(page, []byte(want)) {
		t.Errorf("notice/1.html does not contain %s", want)
	}
}

type failingSource struct{}

func (failingSource) Snapshot(context.Context) (*content.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func TestRendererRunFailureKeepsPreviousOutput(t *testing.T) {
	r, dist := newTestRenderer(t)
	if _, err := r.Render(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}
	before := readTree(t, dist)

	if _, err := r.Run(context.Background(), failingSource{}); err == nil {
		t.Fatalf("got nil error, want error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, testSnapshot()); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want %v", err, context.Canceled)
	}

	after := readTree(t, dist)
	if len(before) != len(after) {
		t.Fatalf("got %d files, want %d", len(after), len(before))
	}
	for name, data := range before {
		if !bytes.Equal(data, after[name]) {
			t.Errorf("%s changed", name)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(dist))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries next to dist, want staging directories removed", len(entries))
	}
}

func TestRendererRenderSwapFailureKeepsPreviousOutput(t *testing.T) {
	r, dist := newTestRenderer(t)
	if _, err := r.Render(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dist, UploadsDir, "photo.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	before := readTree(t, dist)

	// Entries are installed in name order, so several are already in place
	// when "notice" fails.
	wantErr := errors.New("rename failed")
	rename = func(oldpath, newpath string) error {
		if strings.Contains(filepath.Dir(oldpath), ".render-") && filepath.Base(oldpath) == "notice" {
			return wantErr
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() { rename = os.Rename })

	snap := testSnapshot()
	snap.SiteInfo.SiteName = "Changed"
	if _, err := r.Render(context.Background(), snap); !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}

	after := readTree(t, dist)
	if len(before) != len(after) {
		t.Fatalf("got %d files, want %d", len(after), len(before))
	}
	for name, data := range before {
		if !bytes.Equal(data, after[name]) {
			t.Errorf("%s changed", name)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(dist))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries next to dist, want backup and staging directories removed", len(entries))
	}
}

func TestRendererRenderRecoversInterruptedSwap(t *testing.T) {
	r, dist := newTestRenderer(t)
	parent := filepath.Dir(dist)

	// A render killed halfway through its swap leaves the old page in a
	// backup and an abandoned staging directory behind.
	backup := filepath.Join(parent, ".dist.backup-1")
	staging := filepath.Join(parent, ".dist.render-1")
	for _, dir := range []string{backup, staging, filepath.Join(dist, UploadsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(backup, "index.html"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "index.html"), []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := recoverOutput(dist); err != nil {
		t.Fatalf("didn't want %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dist, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old" {
		t.Errorf("got %q, want %q", got, "old")
	}
	for _, dir := range []string{backup, staging} {
		if _, err = os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("got %v for %s, want it removed", err, dir)
		}
	}

	if _, err = r.Render(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries next to dist, want 1", len(entries))
	}
}

func TestRendererRenderDotCategory(t *testing.T) {
	r, dist := newTestRenderer(t)
	snap := testSnapshot()
	snap.ActivityCategories = append(snap.ActivityCategories, content.ActivityCategory{ID: 9, Name: "..", IsActive: true})

	if _, err := r.Render(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	files := readTree(t, dist)

	if _, ok := files["activity/category/category-9/index.html"]; !ok {
		t.Errorf("missing activity/category/category-9/index.html")
	}
	// The site-wide listing still shows every post.
	for i := 1; i <= 5; i++ {
		link := []byte(`href="/activity/` + strconv.Itoa(i) + `"`)
		if !bytes.Contains(files["activity/index.html"], link) {
			t.Errorf("activity/index.html does not link post %d", i)
		}
	}
	if n := bytes.Count(files["sitemap.xml"], []byte("<loc>https://example.org/activity/</loc>")); n != 1 {
		t.Errorf("got %d sitemap entries for /activity, want 1", n)
	}
}

func TestRendererRenderAreasAndTransit(t *testing.T) {
	r, dist := newTestRenderer(t)
	snap := testSnapshot()
	snap.ActivityPhotos = []content.ActivityPhoto{{ID: 1, ImageURL: "/uploads/hero.jpg", Description: "봄 소풍", IsActive: true}}
	snap.VolunteerAreas = []content.Area{{ID: 1, Name: "통역", Color: "#6d28d9", IsActive: true}}
	snap.DonationAreas = []content.Area{{ID: 1, Name: "의료 지원", Color: "#6d28d9", IsActive: true}}
	snap.DonationUsages = []content.DonationUsage{{ID: 1, Name: "상담 활동비", IsActive: true}}
	snap.BusStops = []content.BusStop{{ID: 1, Name: "북부동", IsActive: true}}
	snap.BusRoutes = []content.BusRoute{
		{ID: 1, RouteType: content.BusRouteTypeVillage, Name: "3", IsActive: true},
		{ID: 2, RouteType: content.BusRouteTypeRegular, Name: "12", IsActive: true},
		{ID: 3, RouteType: content.BusRouteTypeRegular, Name: "15", IsActive: true},
	}

	if _, err := r.Render(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	files := readTree(t, dist)

	for _, tt := range []struct {
		file string
		want string
	}{
		{"index.html", `src="https://example.org/uploads/hero.jpg"`},
		{"index.html", "통역"},
		{"index.html", "의료 지원"},
		{"donation.html", "통역"},
		{"donation.html", "의료 지원"},
		{"donation.html", "상담 활동비"},
		{"intro.html", "북부동"},
		{"intro.html", "<dt>일반</dt><dd>12, 15</dd>"},
		{"intro.html", "<dt>마을</dt><dd>3</dd>"},
	} {
		if !bytes.Contains(files[tt.file], []byte(tt.want)) {
			t.Errorf("%s does not contain %q", tt.file, tt.want)
		}
	}
	intro := files["intro.html"]
	if bytes.Contains(intro, []byte("<dt>좌석</dt>")) {
		t.Errorf("didn't want an empty route type in intro.html")
	}
	if bytes.Index(intro, []byte("<dt>일반</dt>")) > bytes.Index(intro, []byte("<dt>마을</dt>")) {
		t.Errorf("got 마을 before 일반, want route types in fixed order")
	}
}

func TestPrepare(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	if err := os.MkdirAll(dist, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dist, "index.html"), []byte("live"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Prepare(dist); err != nil {
		t.Fatalf("didn't want %v", err)
	}
	if info, err := os.Stat(filepath.Join(dist, UploadsDir)); err != nil || !info.IsDir() {
		t.Errorf("got %v, want uploads directory", err)
	}
	if got, err := os.ReadFile(filepath.Join(dist, "index.html")); err != nil || string(got) != "live" {
		t.Errorf("got %q and %v, want the live page kept", got, err)
	}
}
