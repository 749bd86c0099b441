package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/k11v/sitebuild/internal/content"
)

// writeContentError maps store errors to responses.
func (h *handler) writeContentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case isUniqueViolation(err):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		h.internalError(w, r, err)
	}
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("invalid request body: missing " + name)
	}
	return nil
}

type noticeRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPinned bool   `json:"is_pinned"`
}

func decodeNotice(r *http.Request) (*content.NoticeParams, error) {
	var req noticeRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := requireField("title", req.Title); err != nil {
		return nil, err
	}
	return &content.NoticeParams{Title: req.Title, Content: req.Content, IsPinned: req.IsPinned}, nil
}

// CreateNotice godoc
// @Summary Create a notice
// @Success 201 {object} object
// @Router /api/notices [post]
func (h *handler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	params, err := decodeNotice(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var n *content.Notice
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		n, err = tx.CreateNotice(r.Context(), params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *handler) UpdateNotice(w http.ResponseWriter, r *http.Request) {
	id, err := pathValueID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	params, err := decodeNotice(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var n *content.Notice
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		n, err = tx.UpdateNotice(r.Context(), id, params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *handler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	h.deleteContent(w, r, (*content.Tx).DeleteNotice)
}

type activityPostRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func decodeActivityPost(r *http.Request) (*content.ActivityPostParams, error) {
	var req activityPostRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := requireField("title", req.Title); err != nil {
		return nil, err
	}
	return &content.ActivityPostParams{
		Title:        req.Title,
		Content:      req.Content,
		Category:     req.Category,
		ThumbnailURL: req.ThumbnailURL,
	}, nil
}

func (h *handler) CreateActivityPost(w http.ResponseWriter, r *http.Request) {
	params, err := decodeActivityPost(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var p *content.ActivityPost
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		p, err = tx.CreateActivityPost(r.Context(), params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) UpdateActivityPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathValueID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	params, err := decodeActivityPost(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var p *content.ActivityPost
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		p, err = tx.UpdateActivityPost(r.Context(), id, params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) DeleteActivityPost(w http.ResponseWriter, r *http.Request) {
	h.deleteContent(w, r, (*content.Tx).DeleteActivityPost)
}

type activityCategoryRequest struct {
	Name         string `json:"name"`
	Color        string `json:"color"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"` // default: true
}

func decodeActivityCategory(r *http.Request) (*content.ActivityCategoryParams, error) {
	var req activityCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := requireField("name", req.Name); err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &content.ActivityCategoryParams{
		Name:         strings.TrimSpace(req.Name),
		Color:        req.Color,
		DisplayOrder: req.DisplayOrder,
		IsActive:     active,
	}, nil
}

func (h *handler) CreateActivityCategory(w http.ResponseWriter, r *http.Request) {
	params, err := decodeActivityCategory(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var c *content.ActivityCategory
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		c, err = tx.CreateActivityCategory(r.Context(), params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) UpdateActivityCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathValueID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	params, err := decodeActivityCategory(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var c *content.ActivityCategory
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		c, err = tx.UpdateActivityCategory(r.Context(), id, params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) DeleteActivityCategory(w http.ResponseWriter, r *http.Request) {
	h.deleteContent(w, r, (*content.Tx).DeleteActivityCategory)
}

type newsletterRequest struct {
	Title       string     `json:"title"`
	IssueNumber *int       `json:"issue_number"`
	Description string     `json:"description"`
	ContentType string     `json:"content_type"` // "pdf" or "html", default: "pdf"
	PDFURL      string     `json:"pdf_url"`
	ExternalURL string     `json:"external_url"`
	HTMLContent string     `json:"html_content"`
	PublishedAt *time.Time `json:"published_at"`
}

func decodeNewsletter(r *http.Request) (*content.NewsletterParams, error) {
	var req newsletterRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := requireField("title", req.Title); err != nil {
		return nil, err
	}
	contentType := content.NewsletterContentType(req.ContentType)
	switch contentType {
	case "", content.NewsletterPDF, content.NewsletterHTML:
	default:
		return nil, errors.New("invalid request body: content_type must be pdf or html")
	}
	return &content.NewsletterParams{
		Title:       req.Title,
		IssueNumber: req.IssueNumber,
		Description: req.Description,
		ContentType: contentType,
		PDFURL:      req.PDFURL,
		ExternalURL: req.ExternalURL,
		HTMLContent: req.HTMLContent,
		PublishedAt: req.PublishedAt,
	}, nil
}

func (h *handler) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
	params, err := decodeNewsletter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var n *content.Newsletter
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		n, err = tx.CreateNewsletter(r.Context(), params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *handler) UpdateNewsletter(w http.ResponseWriter, r *http.Request) {
	id, err := pathValueID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	params, err := decodeNewsletter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var n *content.Newsletter
	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		n, err = tx.UpdateNewsletter(r.Context(), id, params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *handler) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	h.deleteContent(w, r, (*content.Tx).DeleteNewsletter)
}

func (h *handler) deleteContent(w http.ResponseWriter, r *http.Request, del func(*content.Tx, context.Context, int64) error) {
	id, err := pathValueID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	err = h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		return del(tx, r.Context(), id)
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSiteInfo godoc
// @Summary Site-wide settings
// @Success 200 {object} object
// @Router /api/site-info [get]
func (h *handler) GetSiteInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.content.SiteInfo(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type siteInfoRequest struct {
	OrgName     string `json:"org_name"`
	SiteName    string `json:"site_name"`
	Slogan      string `json:"slogan"`
	IntroText   string `json:"intro_text"`
	Address     string `json:"address"`
	Tel         string `json:"tel"`
	Email       string `json:"email"`
	BankName    string `json:"bank_name"`
	BankAccount string `json:"bank_account"`
	BankHolder  string `json:"bank_holder"`
}

// UpdateSiteInfo godoc
// @Summary Replace site-wide settings
// @Success 200 {object} object
// @Router /api/site-info [put]
func (h *handler) UpdateSiteInfo(w http.ResponseWriter, r *http.Request) {
	var req siteInfoRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	params := content.SiteInfoParams(req)
	var info *content.SiteInfo
	err := h.content.BeginFunc(r.Context(), func(tx *content.Tx) error {
		var err error
		info, err = tx.UpdateSiteInfo(r.Context(), &params)
		return err
	})
	if err != nil {
		h.writeContentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
