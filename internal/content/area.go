package content

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/k11v/sitebuild/internal/trigger"
)

type ActivityPhotoParams struct {
	ImageURL     string
	Description  string
	TakenAt      *time.Time
	DisplayOrder int
	IsActive     bool
}

func (tx *Tx) CreateActivityPhoto(ctx context.Context, params *ActivityPhotoParams) (*ActivityPhoto, error) {
	query := `
		INSERT INTO activity_photos (image_url, description, taken_at, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, image_url, description, taken_at, display_order, is_active, created_at
	`
	rows, _ := tx.tx.Query(ctx, query, params.ImageURL, params.Description, params.TakenAt, params.DisplayOrder, params.IsActive)
	p, err := collectOne[ActivityPhoto](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityActivityPhoto, trigger.OperationCreated)
	return p, nil
}

func (tx *Tx) DeleteActivityPhoto(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "activity_photos", trigger.EntityActivityPhoto, id)
}

type AreaParams struct {
	Name         string
	Description  string
	Icon         string
	Color        string // default: "#6d28d9"
	DisplayOrder int
	IsActive     bool
}

func (p *AreaParams) color() string {
	c := p.Color
	if c == "" {
		c = "#6d28d9"
	}
	return c
}

const areaColumns = `id, name, description, icon, color, display_order, is_active, created_at`

func (tx *Tx) CreateVolunteerArea(ctx context.Context, params *AreaParams) (*Area, error) {
	return tx.createArea(ctx, "volunteer_areas", trigger.EntityVolunteerArea, params)
}

func (tx *Tx) DeleteVolunteerArea(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "volunteer_areas", trigger.EntityVolunteerArea, id)
}

func (tx *Tx) CreateDonationArea(ctx context.Context, params *AreaParams) (*Area, error) {
	return tx.createArea(ctx, "donation_areas", trigger.EntityDonationArea, params)
}

func (tx *Tx) DeleteDonationArea(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "donation_areas", trigger.EntityDonationArea, id)
}

func (tx *Tx) createArea(ctx context.Context, table string, entity trigger.Entity, params *AreaParams) (*Area, error) {
	query := `
		INSERT INTO ` + pgx.Identifier{table}.Sanitize() + ` (name, description, icon, color, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + areaColumns
	rows, _ := tx.tx.Query(ctx, query, params.Name, params.Description, params.Icon, params.color(), params.DisplayOrder, params.IsActive)
	a, err := collectOne[Area](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(entity, trigger.OperationCreated)
	return a, nil
}

type DonationUsageParams struct {
	Name         string
	DisplayOrder int
	IsActive     bool
}

func (tx *Tx) CreateDonationUsage(ctx context.Context, params *DonationUsageParams) (*DonationUsage, error) {
	query := `
		INSERT INTO donation_usages (name, display_order, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, name, display_order, is_active, created_at
	`
	rows, _ := tx.tx.Query(ctx, query, params.Name, params.DisplayOrder, params.IsActive)
	u, err := collectOne[DonationUsage](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityDonationUsage, trigger.OperationCreated)
	return u, nil
}

func (tx *Tx) DeleteDonationUsage(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "donation_usages", trigger.EntityDonationUsage, id)
}

type BusStopParams struct {
	Name         string
	DisplayOrder int
	IsActive     bool
}

func (tx *Tx) CreateBusStop(ctx context.Context, params *BusStopParams) (*BusStop, error) {
	query := `
		INSERT INTO bus_stops (name, display_order, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, name, display_order, is_active
	`
	rows, _ := tx.tx.Query(ctx, query, params.Name, params.DisplayOrder, params.IsActive)
	s, err := collectOne[BusStop](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityBusStop, trigger.OperationCreated)
	return s, nil
}

func (tx *Tx) DeleteBusStop(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "bus_stops", trigger.EntityBusStop, id)
}

type BusRouteParams struct {
	RouteType    BusRouteType // default: BusRouteTypeRegular
	Name         string
	DisplayOrder int
	IsActive     bool
}

func (p *BusRouteParams) routeType() BusRouteType {
	t := p.RouteType
	if t == "" {
		t = BusRouteTypeRegular
	}
	return t
}

func (tx *Tx) CreateBusRoute(ctx context.Context, params *BusRouteParams) (*BusRoute, error) {
	query := `
		INSERT INTO bus_routes (route_type, name, display_order, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, route_type, name, display_order, is_active
	`
	rows, _ := tx.tx.Query(ctx, query, string(params.routeType()), params.Name, params.DisplayOrder, params.IsActive)
	r, err := collectOne[BusRoute](rows)
	if err != nil {
		return nil, err
	}
	tx.Changed(trigger.EntityBusRoute, trigger.OperationCreated)
	return r, nil
}

func (tx *Tx) DeleteBusRoute(ctx context.Context, id int64) error {
	return tx.deleteByID(ctx, "bus_routes", trigger.EntityBusRoute, id)
}
