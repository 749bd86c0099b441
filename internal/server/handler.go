package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/time/rate"
)

type handler struct {
	mux      *http.ServeMux
	log      *slog.Logger
	launcher Launcher
	ledger   Ledger
	content  ContentStore
	limiter  *rate.Limiter
}

func newHandler(h *handler, development bool, metrics http.Handler) *handler {
	mux := http.NewServeMux()
	h.mux = mux

	if development {
		mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	mux.HandleFunc("GET /health", h.GetHealth)

	mux.HandleFunc("POST /admin/build/trigger", h.TriggerBuild)
	mux.HandleFunc("GET /admin/build/status", h.GetBuildStatus)
	mux.HandleFunc("GET /admin/build/history", h.ListBuilds)
	mux.HandleFunc("GET /admin/build/{id}", h.GetBuild)

	if h.content != nil {
		mux.HandleFunc("POST /api/notices", h.CreateNotice)
		mux.HandleFunc("PUT /api/notices/{id}", h.UpdateNotice)
		mux.HandleFunc("DELETE /api/notices/{id}", h.DeleteNotice)

		mux.HandleFunc("POST /api/activity-posts", h.CreateActivityPost)
		mux.HandleFunc("PUT /api/activity-posts/{id}", h.UpdateActivityPost)
		mux.HandleFunc("DELETE /api/activity-posts/{id}", h.DeleteActivityPost)

		mux.HandleFunc("POST /api/activity-categories", h.CreateActivityCategory)
		mux.HandleFunc("PUT /api/activity-categories/{id}", h.UpdateActivityCategory)
		mux.HandleFunc("DELETE /api/activity-categories/{id}", h.DeleteActivityCategory)

		mux.HandleFunc("POST /api/newsletters", h.CreateNewsletter)
		mux.HandleFunc("PUT /api/newsletters/{id}", h.UpdateNewsletter)
		mux.HandleFunc("DELETE /api/newsletters/{id}", h.DeleteNewsletter)

		mux.HandleFunc("GET /api/site-info", h.GetSiteInfo)
		mux.HandleFunc("PUT /api/site-info", h.UpdateSiteInfo)
	}

	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// GetHealth godoc
// @Summary Health check
// @Success 200 {object} object
// @Router /health [get]
func (h *handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}

	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Default().Error("didn't encode response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// decodeJSON reads exactly one JSON value from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: multiple top-level values")
	}
	return nil
}

func pathValueID(r *http.Request) (int64, error) {
	const name = "id"
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %q request path value", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %q query parameter", name)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
