package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/k11v/sitebuild/internal/build"
)

type SpyLauncher struct {
	mu     sync.Mutex
	Calls  []string
	Result *build.TriggerResult
	Err    error
}

func (l *SpyLauncher) Trigger(_ context.Context, triggeredBy string) (*build.TriggerResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = append(l.Calls, triggeredBy)
	return l.Result, l.Err
}

type SpyLedger struct {
	Builds    map[int64]*build.Build
	Latest    *build.Build
	ListCalls []*build.LedgerListParams
}

func (l *SpyLedger) Current(context.Context) (*build.Build, error) {
	return l.Latest, nil
}

func (l *SpyLedger) Get(_ context.Context, params *build.LedgerGetParams) (*build.Build, error) {
	b, ok := l.Builds[params.ID]
	if !ok {
		return nil, build.ErrNotFound
	}
	return b, nil
}

func (l *SpyLedger) List(_ context.Context, params *build.LedgerListParams) (*build.LedgerListResult, error) {
	l.ListCalls = append(l.ListCalls, params)
	page, pageSize := params.Page, params.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = build.DefaultPageSize
	}
	return &build.LedgerListResult{Builds: []*build.Build{l.Latest}, Page: page, PageSize: pageSize, Total: 1}, nil
}

func newTestServer(t *testing.T, cfg *Config, launcher *SpyLauncher, ledger *SpyLedger, development bool) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	srv := New(&NewParams{
		Config:      cfg,
		Development: development,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Launcher:    launcher,
		Ledger:      ledger,
		Metrics:     http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics\n") }),
	})
	return srv.Handler
}

func do(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("didn't want %v", err)
	}
	return m
}

func TestNewAddr(t *testing.T) {
	srv := New(&NewParams{Config: &Config{}, Log: slog.Default(), Launcher: &SpyLauncher{}, Ledger: &SpyLedger{}})
	if got, want := srv.Addr, "127.0.0.1:8000"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if srv.ErrorLog == nil {
		t.Errorf("got nil ErrorLog")
	}
}

func TestGetHealth(t *testing.T) {
	h := newTestServer(t, nil, &SpyLauncher{}, &SpyLedger{}, false)
	rec := do(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decode(t, rec)["status"]; got != "ok" {
		t.Errorf("got %v, want %v", got, "ok")
	}
}

func TestTriggerBuild(t *testing.T) {
	t.Run("started", func(t *testing.T) {
		launcher := &SpyLauncher{Result: &build.TriggerResult{Success: true, Message: "build 7 started", Build: &build.Build{ID: 7}}}
		h := newTestServer(t, nil, launcher, &SpyLedger{}, false)

		rec := do(h, http.MethodPost, "/admin/build/trigger", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
		}
		want := map[string]any{"success": true, "message": "build 7 started", "build_id": float64(7)}
		if got := decode(t, rec); !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
		if !reflect.DeepEqual(launcher.Calls, []string{"manual"}) {
			t.Errorf("got %v, want %v", launcher.Calls, []string{"manual"})
		}
	})

	t.Run("already building", func(t *testing.T) {
		launcher := &SpyLauncher{Result: &build.TriggerResult{Success: false, Message: build.MessageAlreadyBuilding}}
		h := newTestServer(t, nil, launcher, &SpyLedger{}, false)

		rec := do(h, http.MethodPost, "/admin/build/trigger", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("got %d, want %d", rec.Code, http.StatusConflict)
		}
		want := map[string]any{"success": false, "message": build.MessageAlreadyBuilding}
		if got := decode(t, rec); !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("launcher error", func(t *testing.T) {
		launcher := &SpyLauncher{Err: errors.New("connection refused")}
		h := newTestServer(t, nil, launcher, &SpyLedger{}, false)

		rec := do(h, http.MethodPost, "/admin/build/trigger", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("got %d, want %d", rec.Code, http.StatusInternalServerError)
		}
		if got := decode(t, rec)["message"]; strings.Contains(got.(string), "connection refused") {
			t.Errorf("didn't want %q", got)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		launcher := &SpyLauncher{Result: &build.TriggerResult{Success: false, Message: build.MessageAlreadyBuilding}}
		h := newTestServer(t, &Config{TriggerInterval: time.Hour, TriggerBurst: 2}, launcher, &SpyLedger{}, false)

		codes := make([]int, 3)
		for i := range codes {
			codes[i] = do(h, http.MethodPost, "/admin/build/trigger", "").Code
		}
		want := []int{http.StatusConflict, http.StatusConflict, http.StatusTooManyRequests}
		if !reflect.DeepEqual(codes, want) {
			t.Errorf("got %v, want %v", codes, want)
		}
		if len(launcher.Calls) != 2 {
			t.Errorf("got %d launcher calls, want 2", len(launcher.Calls))
		}
	})
}

func TestGetBuildStatus(t *testing.T) {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(90 * time.Second)
	message := "exit status 1"

	tests := []struct {
		name  string
		build *build.Build
		want  map[string]any
	}{
		{
			name:  "idle",
			build: &build.Build{ID: 1, Status: build.StatusIdle, TriggeredBy: ""},
			want: map[string]any{
				"id": float64(1), "status": "idle", "started_at": nil, "completed_at": nil,
				"error_message": nil, "triggered_by": "", "duration_seconds": nil,
			},
		},
		{
			name:  "failed",
			build: &build.Build{ID: 2, Status: build.StatusFailed, StartedAt: &started, CompletedAt: &completed, ErrorMessage: &message, TriggeredBy: "notice_created"},
			want: map[string]any{
				"id": float64(2), "status": "failed", "started_at": "2024-03-01T12:00:00Z", "completed_at": "2024-03-01T12:01:30Z",
				"error_message": "exit status 1", "triggered_by": "notice_created", "duration_seconds": float64(90),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, nil, &SpyLauncher{}, &SpyLedger{Latest: tt.build}, false)
			rec := do(h, http.MethodGet, "/admin/build/status", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
			}
			if got := decode(t, rec); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListBuilds(t *testing.T) {
	ledger := &SpyLedger{Latest: &build.Build{ID: 3, Status: build.StatusSuccess}}
	h := newTestServer(t, nil, &SpyLauncher{}, ledger, false)

	rec := do(h, http.MethodGet, "/admin/build/history?page=2&page_size=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	got := decode(t, rec)
	if got["page"] != float64(2) || got["page_size"] != float64(5) || got["total"] != float64(1) {
		t.Errorf("got %v, want page 2, page_size 5, total 1", got)
	}
	if builds := got["builds"].([]any); len(builds) != 1 {
		t.Errorf("got %d builds, want 1", len(builds))
	}
	want := []*build.LedgerListParams{{Page: 2, PageSize: 5}}
	if !reflect.DeepEqual(ledger.ListCalls, want) {
		t.Errorf("got %v, want %v", ledger.ListCalls, want)
	}

	for _, target := range []string{"/admin/build/history?page=0", "/admin/build/history?page_size=x"} {
		if rec = do(h, http.MethodGet, target, ""); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: got %d, want %d", target, rec.Code, http.StatusUnprocessableEntity)
		}
	}
}

func TestGetBuild(t *testing.T) {
	ledger := &SpyLedger{Builds: map[int64]*build.Build{5: {ID: 5, Status: build.StatusBuilding}}}
	h := newTestServer(t, nil, &SpyLauncher{}, ledger, false)

	tests := []struct {
		target string
		want   int
	}{
		{target: "/admin/build/5", want: http.StatusOK},
		{target: "/admin/build/6", want: http.StatusNotFound},
		{target: "/admin/build/abc", want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if rec := do(h, http.MethodGet, tt.target, ""); rec.Code != tt.want {
				t.Errorf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, &Config{AllowedOrigins: []string{"https://admin.example.org"}}, &SpyLauncher{}, &SpyLedger{}, false)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://admin.example.org")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.example.org" {
			t.Errorf("got %q, want %q", got, "https://admin.example.org")
		}
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("didn't want %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/admin/build/trigger", nil)
		req.Header.Set("Origin", "https://admin.example.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("got %d, want %d", rec.Code, http.StatusNoContent)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
			t.Errorf("got %q, want POST allowed", got)
		}
	})
}

func TestOptionalRoutes(t *testing.T) {
	production := newTestServer(t, nil, &SpyLauncher{}, &SpyLedger{}, false)
	if rec := do(production, http.MethodGet, "/swagger/doc.json", ""); rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(production, http.MethodPost, "/api/notices", "{}"); rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(production, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rec.Code, http.StatusOK)
	}

	development := newTestServer(t, nil, &SpyLauncher{}, &SpyLedger{}, true)
	rec := do(development, http.MethodGet, "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "/admin/build/trigger") {
		t.Errorf("swagger document does not describe /admin/build/trigger")
	}
}

func TestWriteJSON(t *testing.T) {
	t.Run("encodes with the given status", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusConflict, map[string]bool{"success": false})

		if got, want := w.Code, http.StatusConflict; got != want {
			t.Errorf("got %d, want %d", got, want)
		}
		if got, want := w.Header().Get("Content-Type"), "application/json"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
		if got, want := w.Body.String(), "{\"success\":false}\n"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unencodable value is a clean 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)})

		if got, want := w.Code, http.StatusInternalServerError; got != want {
			t.Errorf("got %d, want %d", got, want)
		}
		if got, want := w.Body.String(), "internal server error\n"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
