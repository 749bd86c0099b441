// Package content stores the publishable entities of the site and reports
// build-relevant writes to the build pipeline.
package content

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Notice struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	IsPinned  bool      `db:"is_pinned" json:"is_pinned"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type ActivityCategory struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Color        string    `db:"color" json:"color"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type ActivityPost struct {
	ID           int64     `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	Category     string    `db:"category" json:"category"` // ActivityCategory.Name
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type NewsletterContentType string

const (
	NewsletterPDF  NewsletterContentType = "pdf"
	NewsletterHTML NewsletterContentType = "html"
)

type Newsletter struct {
	ID          int64                 `db:"id" json:"id"`
	Title       string                `db:"title" json:"title"`
	IssueNumber *int                  `db:"issue_number" json:"issue_number"`
	Description string                `db:"description" json:"description"`
	ContentType NewsletterContentType `db:"content_type" json:"content_type"`
	PDFURL      string                `db:"pdf_url" json:"pdf_url"`
	ExternalURL string                `db:"external_url" json:"external_url"`
	HTMLContent string                `db:"html_content" json:"html_content"`
	PublishedAt *time.Time            `db:"published_at" json:"published_at"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
}

type BusinessArea struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Description  string `db:"description" json:"description"`
	PhotoURL     string `db:"photo_url" json:"photo_url"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
	IsActive     bool   `db:"is_active" json:"is_active"`
}

type HistorySection struct {
	ID           int64         `db:"id" json:"id"`
	Subtitle     string        `db:"subtitle" json:"subtitle"`
	Summary      string        `db:"summary" json:"summary"`
	DisplayOrder int           `db:"display_order" json:"display_order"`
	Items        []HistoryItem `db:"-" json:"items"`
}

type HistoryItem struct {
	ID           int64  `db:"id" json:"id"`
	SectionID    int64  `db:"section_id" json:"section_id"`
	Year         *int   `db:"year" json:"year"`
	Content      string `db:"content" json:"content"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
}

type OperatingHours struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Schedule     string `db:"schedule" json:"schedule"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
	IsActive     bool   `db:"is_active" json:"is_active"`
}

// ActivityPhoto is a hero photo on the index page.
type ActivityPhoto struct {
	ID           int64      `db:"id" json:"id"`
	ImageURL     string     `db:"image_url" json:"image_url"`
	Description  string     `db:"description" json:"description"`
	TakenAt      *time.Time `db:"taken_at" json:"taken_at"`
	DisplayOrder int        `db:"display_order" json:"display_order"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Area is a row of volunteer_areas or donation_areas; both tables share it.
type Area struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Icon         string    `db:"icon" json:"icon"`
	Color        string    `db:"color" json:"color"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type DonationUsage struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type BusStop struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
	IsActive     bool   `db:"is_active" json:"is_active"`
}

type BusRouteType string

const (
	BusRouteTypeRegular BusRouteType = "일반"
	BusRouteTypeSeat    BusRouteType = "좌석"
	BusRouteTypeVillage BusRouteType = "마을"
)

// BusRouteTypes lists route types in display order.
var BusRouteTypes = []BusRouteType{BusRouteTypeRegular, BusRouteTypeSeat, BusRouteTypeVillage}

type BusRoute struct {
	ID           int64        `db:"id" json:"id"`
	RouteType    BusRouteType `db:"route_type" json:"route_type"`
	Name         string       `db:"name" json:"name"`
	DisplayOrder int          `db:"display_order" json:"display_order"`
	IsActive     bool         `db:"is_active" json:"is_active"`
}

// SiteInfo is a singleton row.
type SiteInfo struct {
	OrgName     string    `db:"org_name" json:"org_name"`
	SiteName    string    `db:"site_name" json:"site_name"`
	Slogan      string    `db:"slogan" json:"slogan"`
	IntroText   string    `db:"intro_text" json:"intro_text"`
	Address     string    `db:"address" json:"address"`
	Tel         string    `db:"tel" json:"tel"`
	Email       string    `db:"email" json:"email"`
	BankName    string    `db:"bank_name" json:"bank_name"`
	BankAccount string    `db:"bank_account" json:"bank_account"`
	BankHolder  string    `db:"bank_holder" json:"bank_holder"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// OfficeInfo is a singleton row.
type OfficeInfo struct {
	OfficeHours string `db:"office_hours" json:"office_hours"`
	ClosedDays  string `db:"closed_days" json:"closed_days"`
}

// Snapshot is everything the renderer reads, taken at one point in time.
type Snapshot struct {
	SiteInfo           SiteInfo
	OfficeInfo         OfficeInfo
	Notices            []Notice
	ActivityPosts      []ActivityPost
	ActivityCategories []ActivityCategory // active only
	Newsletters        []Newsletter
	BusinessAreas      []BusinessArea   // active only
	HistorySections    []HistorySection
	OperatingHours     []OperatingHours // active only
	ActivityPhotos     []ActivityPhoto  // active only
	VolunteerAreas     []Area           // active only
	DonationAreas      []Area           // active only
	DonationUsages     []DonationUsage  // active only
	BusStops           []BusStop        // active only
	BusRoutes          []BusRoute       // active only, by route type then display order
}
