package render

import (
	"reflect"
	"testing"
)

func TestPaginate(t *testing.T) {
	const size = 10
	seq := func(n int) []int {
		s := make([]int, n)
		for i := range s {
			s[i] = i
		}
		return s
	}

	tests := []struct {
		name      string
		n         int
		wantPages int
		wantLast  int
	}{
		{name: "empty", n: 0, wantPages: 1, wantLast: 0},
		{name: "one short of a page", n: size - 1, wantPages: 1, wantLast: size - 1},
		{name: "exactly one page", n: size, wantPages: 1, wantLast: size},
		{name: "one over a page", n: size + 1, wantPages: 2, wantLast: 1},
		{name: "many pages", n: 3*size + 4, wantPages: 4, wantLast: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Paginate(seq(tt.n), size)
			if got, want := len(pages), tt.wantPages; got != want {
				t.Fatalf("got %d pages, want %d", got, want)
			}
			if got, want := PageCount(tt.n, size), tt.wantPages; got != want {
				t.Errorf("got PageCount %d, want %d", got, want)
			}
			last := pages[len(pages)-1]
			if got, want := len(last.Items), tt.wantLast; got != want {
				t.Errorf("got %d items on last page, want %d", got, want)
			}

			var all []int
			for i, p := range pages {
				if got, want := p.Number, i+1; got != want {
					t.Errorf("got number %d, want %d", got, want)
				}
				if got, want := p.HasPrev(), i > 0; got != want {
					t.Errorf("page %d: got HasPrev %v, want %v", p.Number, got, want)
				}
				if got, want := p.HasNext(), i < len(pages)-1; got != want {
					t.Errorf("page %d: got HasNext %v, want %v", p.Number, got, want)
				}
				all = append(all, p.Items...)
			}
			if tt.n > 0 && !reflect.DeepEqual(all, seq(tt.n)) {
				t.Errorf("got %v, want items in order", all)
			}
		})
	}
}

func TestListingPaths(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		n        int
		wantFile string
		wantURL  string
	}{
		{name: "first page", base: "notice", n: 1, wantFile: "notice/index.html", wantURL: "/notice/"},
		{name: "second page", base: "notice", n: 2, wantFile: "notice/page/2.html", wantURL: "/notice/page/2"},
		{name: "category", base: "activity/category/교육", n: 3, wantFile: "activity/category/교육/page/3.html", wantURL: "/activity/category/교육/page/3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ListingFile(tt.base, tt.n); got != tt.wantFile {
				t.Errorf("got %q, want %q", got, tt.wantFile)
			}
			if got := ListingURL(tt.base, tt.n); got != tt.wantURL {
				t.Errorf("got %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	items := []string{"newest", "middle", "oldest"}

	before, after := Neighbors(items, 0)
	if before != nil || after == nil || *after != "middle" {
		t.Errorf("got %v %v, want nil and middle", before, after)
	}
	before, after = Neighbors(items, 2)
	if before == nil || *before != "middle" || after != nil {
		t.Errorf("got %v %v, want middle and nil", before, after)
	}
}
