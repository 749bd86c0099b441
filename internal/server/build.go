package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/k11v/sitebuild/internal/build"
)

const (
	triggeredByManual    = "manual"
	messageRateLimited   = "too many build requests, try again later"
	messageTriggerFailed = "build could not be started"
)

type buildResponse struct {
	ID              int64      `json:"id"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	ErrorMessage    *string    `json:"error_message"`
	TriggeredBy     string     `json:"triggered_by"`
	DurationSeconds *float64   `json:"duration_seconds"`
}

func newBuildResponse(b *build.Build) *buildResponse {
	resp := &buildResponse{
		ID:           b.ID,
		Status:       string(b.Status),
		StartedAt:    b.StartedAt,
		CompletedAt:  b.CompletedAt,
		ErrorMessage: b.ErrorMessage,
		TriggeredBy:  b.TriggeredBy,
	}
	if d, ok := b.Duration(); ok {
		s := d.Seconds()
		resp.DurationSeconds = &s
	}
	return resp
}

// TriggerBuild godoc
// @Summary Start a site build
// @Success 200 {object} object
// @Failure 409 {object} object
// @Failure 429 {object} object
// @Router /admin/build/trigger [post]
func (h *handler) TriggerBuild(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		BuildID *int64 `json:"build_id,omitempty"`
	}

	if !h.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, response{Success: false, Message: messageRateLimited})
		return
	}

	result, err := h.launcher.Trigger(r.Context(), triggeredByManual)
	if err != nil {
		h.log.Error("didn't trigger build", "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: messageTriggerFailed})
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusConflict, response{Success: false, Message: result.Message})
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: result.Message, BuildID: &result.Build.ID})
}

// GetBuildStatus godoc
// @Summary Current build record
// @Success 200 {object} object
// @Router /admin/build/status [get]
func (h *handler) GetBuildStatus(w http.ResponseWriter, r *http.Request) {
	b, err := h.ledger.Current(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBuildResponse(b))
}

// ListBuilds godoc
// @Summary Build history, newest first
// @Param page query int false "1-based page"
// @Param page_size query int false "page size, at most 100"
// @Success 200 {object} object
// @Router /admin/build/history [get]
func (h *handler) ListBuilds(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Builds   []*buildResponse `json:"builds"`
		Page     int              `json:"page"`
		PageSize int              `json:"page_size"`
		Total    int              `json:"total"`
	}

	page, err := queryInt(r, "page")
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	result, err := h.ledger.List(r.Context(), &build.LedgerListParams{Page: page, PageSize: pageSize})
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	resp := response{
		Builds:   make([]*buildResponse, len(result.Builds)),
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	}
	for i, b := range result.Builds {
		resp.Builds[i] = newBuildResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBuild godoc
// @Summary One build record
// @Param id path int true "build id"
// @Success 200 {object} object
// @Failure 404 {string} string
// @Router /admin/build/{id} [get]
func (h *handler) GetBuild(w http.ResponseWriter, r *http.Request) {
	id, err := pathValueID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	b, err := h.ledger.Get(r.Context(), &build.LedgerGetParams{ID: id})
	if errors.Is(err, build.ErrNotFound) {
		http.Error(w, "build not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBuildResponse(b))
}
