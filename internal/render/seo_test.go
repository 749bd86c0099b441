package render

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/k11v/sitebuild/internal/content"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "tags and whitespace", in: "<p>Hello,\n  <b>world</b></p><p>again</p>", want: "Hello, world again"},
		{name: "entities", in: "<p>Tom &amp; Jerry&nbsp;show</p>", want: "Tom & Jerry show"},
		{name: "script dropped", in: "<p>a</p><script>alert(1)</script><p>b</p>", want: "a b"},
		{name: "inline tags join", in: "<p><b>Hel</b>lo wor<i>ld</i></p>", want: "Hello world"},
		{name: "line break separates", in: "first<br>second<br/>third", want: "first second third"},
		{name: "inline image", in: "a<img src=\"/x.png\">b", want: "ab"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	t.Run("derived from 300 characters of rich text", func(t *testing.T) {
		body := "<p>" + strings.Repeat("가", 150) + "</p><p><em>" + strings.Repeat("a", 150) + "</em></p>"
		got := Description("", body)
		if n := utf8.RuneCountInString(got); n != DescriptionLength {
			t.Errorf("got %d characters, want %d", n, DescriptionLength)
		}
		if strings.Contains(got, "<") {
			t.Errorf("got markup in %q", got)
		}
	})

	t.Run("explicit wins", func(t *testing.T) {
		if got, want := Description("  Spring issue  ", "<p>body</p>"), "Spring issue"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestNormalizeImageURL(t *testing.T) {
	const domain = "https://withmigrant.or.kr"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "relative", in: "/uploads/a.png", want: domain + "/uploads/a.png"},
		{name: "relative without slash", in: "uploads/a.png", want: domain + "/uploads/a.png"},
		{name: "already absolute", in: domain + "/uploads/a.png", want: domain + "/uploads/a.png"},
		{name: "other domain", in: "https://cdn.example.com/a.png", want: "https://cdn.example.com/a.png"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := NormalizeImageURL(domain, tt.in)
			if once != tt.want {
				t.Errorf("got %q, want %q", once, tt.want)
			}
			if twice := NormalizeImageURL(domain, once); twice != once {
				t.Errorf("got %q after second call, want %q", twice, once)
			}
		})
	}
}

func TestSEOTable(t *testing.T) {
	table, err := loadSEOTable()
	if err != nil {
		t.Fatalf("didn't want %v", err)
	}

	s := table.page("notice_list")
	if got, want := s.Title, "공지사항"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := s.OGImage, "/static/images/og-image.png"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := table.page("missing").Description, table.Defaults.Description; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteAssetURLs(t *testing.T) {
	const domain = "https://withmigrant.or.kr"
	in := `<img src="/static/uploads/a.png"><a href="/uploads/b.pdf">b</a><img src="https://cdn.example.com/uploads/c.png">`
	want := `<img src="https://withmigrant.or.kr/uploads/a.png"><a href="https://withmigrant.or.kr/uploads/b.pdf">b</a><img src="https://cdn.example.com/uploads/c.png">`

	once := RewriteAssetURLs(domain, in)
	if once != want {
		t.Errorf("got %q, want %q", once, want)
	}
	if twice := RewriteAssetURLs(domain, once); twice != once {
		t.Errorf("got %q after second call, want %q", twice, once)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "교육 활동", want: "교육-활동"},
		{in: "  a  b ", want: "a-b"},
		{in: "a/b", want: "a-b"},
		{in: "\u1100\u1161", want: "\uac00"},
		{in: "v1.2", want: "v1.2"},
		{in: "..", want: ""},
		{in: " . ", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategorySlugs(t *testing.T) {
	categories := []content.ActivityCategory{
		{ID: 1, Name: "교육 활동"},
		{ID: 2, Name: ".."},
		{ID: 3, Name: "교육  활동"},
		{ID: 4, Name: "/"},
	}
	got := categorySlugs(categories)
	want := []string{"교육-활동", "category-2", "교육-활동-3", "category-4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
