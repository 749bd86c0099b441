package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/k11v/sitebuild/internal/trigger"
)

type executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is a content transaction. It carries its own build batch,
// so concurrent transactions never see each other's pending changes.
type Tx struct {
	tx    pgx.Tx
	batch trigger.Batch
}

// Changed reports a mutation made through this transaction.
// Write methods call it themselves; it is exported for raw writes.
func (tx *Tx) Changed(entity trigger.Entity, operation trigger.Operation) {
	tx.batch.Observe(entity, operation)
}

// BuildLabel returns the cause label the transaction will fire with, if any.
func (tx *Tx) BuildLabel() string {
	return tx.batch.Label()
}

func (tx *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return tx.tx.Exec(ctx, sql, arguments...)
}

func collectOne[T any](rows pgx.Rows) (*T, error) {
	v, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, fmt.Errorf("content.Tx: %w", err)
	}
	return v, nil
}

// deleteByID deletes one row and reports the change when a row was removed.
func (tx *Tx) deleteByID(ctx context.Context, table string, entity trigger.Entity, id int64) error {
	tag, err := tx.tx.Exec(ctx, `DELETE FROM `+pgx.Identifier{table}.Sanitize()+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("content.Tx: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content.Tx: %w", ErrNotFound)
	}
	tx.Changed(entity, trigger.OperationDeleted)
	return nil
}

type NoticeParams struct {
	Title    string
	Content  string
	IsPinned bool
}

func (tx *Tx) CreateNotice(ctx context.Context, params *NoticeParams) (*Notice, error) {
	query := `
		INSERT INTO notices (title, content, is_pinned)
		VALUES ($1, $2, $3)
		RETURNING id, title, content, is_pinned, created_at, updated_at
	`
	rows, _ := tx.tx.Query(ctx, query, params.Title, params.Content, params.IsPinned)
	n, err := collectOne[Notice](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityNotice, trigger.OperationCreated)
	return n, nil
}

func (tx *Tx) UpdateNotice(ctx context.Context, id int64, params *NoticeParams) (*Notice, error) {
	query := `
		UPDATE notices
		SET title = $2, content = $3, is_pinned = $4, updated_at = now()
		WHERE id = $1
		RETURNING id, title, content, is_pinned, created_at, updated_at
	`
	rows, _ := tx.tx.Query(ctx, query, id, params.Title, params.Content, params.IsPinned)
	n, err := collectOne[Notice](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityNotice, trigger.OperationUpdated)
	return n, nil
}

func (tx *Tx) DeleteNotice(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "notices", trigger.EntityNotice, id)
}

type ActivityPostParams struct {
	Title        string
	Content      string
	Category     string
	ThumbnailURL string
}

func (tx *Tx) CreateActivityPost(ctx context.Context, params *ActivityPostParams) (*ActivityPost, error) {
	query := `
		INSERT INTO activity_posts (title, content, category, thumbnail_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, content, category, thumbnail_url, created_at, updated_at
	`
	rows, _ := tx.tx.Query(ctx, query, params.Title, params.Content, params.Category, params.ThumbnailURL)
	p, err := collectOne[ActivityPost](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityActivityPost, trigger.OperationCreated)
	return p, nil
}

func (tx *Tx) UpdateActivityPost(ctx context.Context, id int64, params *ActivityPostParams) (*ActivityPost, error) {
	query := `
		UPDATE activity_posts
		SET title = $2, content = $3, category = $4, thumbnail_url = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, title, content, category, thumbnail_url, created_at, updated_at
	`
	rows, _ := tx.tx.Query(ctx, query, id, params.Title, params.Content, params.Category, params.ThumbnailURL)
	p, err := collectOne[ActivityPost](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityActivityPost, trigger.OperationUpdated)
	return p, nil
}

func (tx *Tx) DeleteActivityPost(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "activity_posts", trigger.EntityActivityPost, id)
}

type ActivityCategoryParams struct {
	Name         string
	Color        string // default: "#6d28d9"
	DisplayOrder int
	IsActive     bool
}

func (p *ActivityCategoryParams) color() string {
	c := p.Color
	if c == "" {
		c = "#6d28d9"
	}
	return c
}

func (tx *Tx) CreateActivityCategory(ctx context.Context, params *ActivityCategoryParams) (*ActivityCategory, error) {
	query := `
		INSERT INTO activity_categories (name, color, display_order, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, color, display_order, is_active, created_at
	`
	rows, _ := tx.tx.Query(ctx, query, params.Name, params.color(), params.DisplayOrder, params.IsActive)
	c, err := collectOne[ActivityCategory](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityActivityCategory, trigger.OperationCreated)
	return c, nil
}

// UpdateActivityCategory also renames the category on its posts,
// since posts reference categories by name.
func (tx *Tx) UpdateActivityCategory(ctx context.Context, id int64, params *ActivityCategoryParams) (*ActivityCategory, error) {
	var oldName string
	err := tx.tx.QueryRow(ctx, `SELECT name FROM activity_categories WHERE id = $1 FOR UPDATE`, id).Scan(&oldName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, fmt.Errorf("content.Tx: %w", err)
	}

	query := `
		UPDATE activity_categories
		SET name = $2, color = $3, display_order = $4, is_active = $5
		WHERE id = $1
		RETURNING id, name, color, display_order, is_active, created_at
	`
	rows, _ := tx.tx.Query(ctx, query, id, params.Name, params.color(), params.DisplayOrder, params.IsActive)
	c, err := collectOne[ActivityCategory](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityActivityCategory, trigger.OperationUpdated)

	if oldName != c.Name {
		tag, err := tx.tx.Exec(ctx, `UPDATE activity_posts SET category = $2, updated_at = now() WHERE category = $1`, oldName, c.Name)
		if err != nil {
			return nil, fmt.Errorf("content.Tx: %w", err)
		}
		if tag.RowsAffected() > 0 {
			tx.Changed(trigger.EntityActivityPost, trigger.OperationUpdated)
		}
	}
	return c, nil
}

func (tx *Tx) DeleteActivityCategory(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "activity_categories", trigger.EntityActivityCategory, id)
}

type NewsletterParams struct {
	Title       string
	IssueNumber *int
	Description string
	ContentType NewsletterContentType // default: NewsletterPDF
	PDFURL      string
	ExternalURL string
	HTMLContent string
	PublishedAt *time.Time
}

func (p *NewsletterParams) contentType() NewsletterContentType {
	t := p.ContentType
	if t == "" {
		t = NewsletterPDF
	}
	return t
}

const newsletterColumns = `id, title, issue_number, description, content_type, pdf_url, external_url, html_content, published_at, created_at`

func (tx *Tx) CreateNewsletter(ctx context.Context, params *NewsletterParams) (*Newsletter, error) {
	query := `
		INSERT INTO newsletters (title, issue_number, description, content_type, pdf_url, external_url, html_content, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + newsletterColumns
	rows, _ := tx.tx.Query(ctx, query,
		params.Title, params.IssueNumber, params.Description, string(params.contentType()),
		params.PDFURL, params.ExternalURL, params.HTMLContent, params.PublishedAt,
	)
	n, err := collectOne[Newsletter](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityNewsletter, trigger.OperationCreated)
	return n, nil
}

func (tx *Tx) UpdateNewsletter(ctx context.Context, id int64, params *NewsletterParams) (*Newsletter, error) {
	query := `
		UPDATE newsletters
		SET title = $2, issue_number = $3, description = $4, content_type = $5,
			pdf_url = $6, external_url = $7, html_content = $8, published_at = $9
		WHERE id = $1
		RETURNING ` + newsletterColumns
	rows, _ := tx.tx.Query(ctx, query,
		id, params.Title, params.IssueNumber, params.Description, string(params.contentType()),
		params.PDFURL, params.ExternalURL, params.HTMLContent, params.PublishedAt,
	)
	n, err := collectOne[Newsletter](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityNewsletter, trigger.OperationUpdated)
	return n, nil
}

func (tx *Tx) DeleteNewsletter(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "newsletters", trigger.EntityNewsletter, id)
}

type BusinessAreaParams struct {
	Name         string
	Description  string
	PhotoURL     string
	DisplayOrder int
	IsActive     bool
}

func (tx *Tx) CreateBusinessArea(ctx context.Context, params *BusinessAreaParams) (*BusinessArea, error) {
	query := `
		INSERT INTO business_areas (name, description, photo_url, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, photo_url, display_order, is_active
	`
	rows, _ := tx.tx.Query(ctx, query, params.Name, params.Description, params.PhotoURL, params.DisplayOrder, params.IsActive)
	a, err := collectOne[BusinessArea](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityBusinessArea, trigger.OperationCreated)
	return a, nil
}

func (tx *Tx) DeleteBusinessArea(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "business_areas", trigger.EntityBusinessArea, id)
}

type HistorySectionParams struct {
	Subtitle     string
	Summary      string
	DisplayOrder int
}

func (tx *Tx) CreateHistorySection(ctx context.Context, params *HistorySectionParams) (*HistorySection, error) {
	query := `
		INSERT INTO history_sections (subtitle, summary, display_order)
		VALUES ($1, $2, $3)
		RETURNING id, subtitle, summary, display_order
	`
	rows, _ := tx.tx.Query(ctx, query, params.Subtitle, params.Summary, params.DisplayOrder)
	s, err := collectOne[HistorySection](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityHistorySection, trigger.OperationCreated)
	return s, nil
}

type HistoryItemParams struct {
	SectionID    int64
	Year         *int
	Content      string
	DisplayOrder int
}

func (tx *Tx) CreateHistoryItem(ctx context.Context, params *HistoryItemParams) (*HistoryItem, error) {
	query := `
		INSERT INTO history_items (section_id, year, content, display_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, section_id, year, content, display_order
	`
	rows, _ := tx.tx.Query(ctx, query, params.SectionID, params.Year, params.Content, params.DisplayOrder)
	i, err := collectOne[HistoryItem](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityHistoryItem, trigger.OperationCreated)
	return i, nil
}

// DeleteHistorySection removes the section and, by cascade, its items.
func (tx *Tx) DeleteHistorySection(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "history_sections", trigger.EntityHistorySection, id)
}

type OperatingHoursParams struct {
	Name         string
	Schedule     string
	DisplayOrder int
	IsActive     bool
}

func (tx *Tx) CreateOperatingHours(ctx context.Context, params *OperatingHoursParams) (*OperatingHours, error) {
	query := `
		INSERT INTO operating_hours (name, schedule, display_order, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, schedule, display_order, is_active
	`
	rows, _ := tx.tx.Query(ctx, query, params.Name, params.Schedule, params.DisplayOrder, params.IsActive)
	h, err := collectOne[OperatingHours](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityOperatingHours, trigger.OperationCreated)
	return h, nil
}

func (tx *Tx) DeleteOperatingHours(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "operating_hours", trigger.EntityOperatingHours, id)
}
