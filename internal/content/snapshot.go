package content

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Snapshot reads all publishable content in one read-only,
// repeatable-read transaction.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("content.Store: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	snap, err := readSnapshot(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("content.Store: %w", err)
	}
	return snap, nil
}

func readSnapshot(ctx context.Context, db executor) (*Snapshot, error) {
	var snap Snapshot
	var err error

	// Singletons are read without seeding here; the transaction is read-only.
	rows, _ := db.Query(ctx, `SELECT `+siteInfoColumns+` FROM site_info WHERE id = 1`)
	siteInfos, err := pgx.CollectRows(rows, pgx.RowToStructByName[SiteInfo])
	if err != nil {
		return nil, err
	}
	if len(siteInfos) > 0 {
		snap.SiteInfo = siteInfos[0]
	}

	rows, _ = db.Query(ctx, `SELECT office_hours, closed_days FROM office_info WHERE id = 1`)
	officeInfos, err := pgx.CollectRows(rows, pgx.RowToStructByName[OfficeInfo])
	if err != nil {
		return nil, err
	}
	if len(officeInfos) > 0 {
		snap.OfficeInfo = officeInfos[0]
	}

	snap.Notices, err = queryAll[Notice](ctx, db, `
		SELECT id, title, content, is_pinned, created_at, updated_at
		FROM notices
		ORDER BY is_pinned DESC, created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}

	snap.ActivityPosts, err = queryAll[ActivityPost](ctx, db, `
		SELECT id, title, content, category, thumbnail_url, created_at, updated_at
		FROM activity_posts
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}

	snap.ActivityCategories, err = queryAll[ActivityCategory](ctx, db, `
		SELECT id, name, color, display_order, is_active, created_at
		FROM activity_categories
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.Newsletters, err = queryAll[Newsletter](ctx, db, `
		SELECT `+newsletterColumns+`
		FROM newsletters
		ORDER BY published_at DESC NULLS LAST, id DESC
	`)
	if err != nil {
		return nil, err
	}

	snap.BusinessAreas, err = queryAll[BusinessArea](ctx, db, `
		SELECT id, name, description, photo_url, display_order, is_active
		FROM business_areas
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.HistorySections, err = queryAll[HistorySection](ctx, db, `
		SELECT id, subtitle, summary, display_order
		FROM history_sections
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}
	items, err := queryAll[HistoryItem](ctx, db, `
		SELECT id, section_id, year, content, display_order
		FROM history_items
		ORDER BY display_order, year NULLS LAST, id
	`)
	if err != nil {
		return nil, err
	}
	sectionIndex := make(map[int64]int, len(snap.HistorySections))
	for i, section := range snap.HistorySections {
		sectionIndex[section.ID] = i
	}
	for _, item := range items {
		if i, ok := sectionIndex[item.SectionID]; ok {
			snap.HistorySections[i].Items = append(snap.HistorySections[i].Items, item)
		}
	}

	snap.OperatingHours, err = queryAll[OperatingHours](ctx, db, `
		SELECT id, name, schedule, display_order, is_active
		FROM operating_hours
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.ActivityPhotos, err = queryAll[ActivityPhoto](ctx, db, `
		SELECT id, image_url, description, taken_at, display_order, is_active, created_at
		FROM activity_photos
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.VolunteerAreas, err = queryAll[Area](ctx, db, `
		SELECT `+areaColumns+`
		FROM volunteer_areas
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.DonationAreas, err = queryAll[Area](ctx, db, `
		SELECT `+areaColumns+`
		FROM donation_areas
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.DonationUsages, err = queryAll[DonationUsage](ctx, db, `
		SELECT id, name, display_order, is_active, created_at
		FROM donation_usages
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.BusStops, err = queryAll[BusStop](ctx, db, `
		SELECT id, name, display_order, is_active
		FROM bus_stops
		WHERE is_active
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	snap.BusRoutes, err = queryAll[BusRoute](ctx, db, `
		SELECT id, route_type, name, display_order, is_active
		FROM bus_routes
		WHERE is_active
		ORDER BY route_type, display_order, id
	`)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

func queryAll[T any](ctx context.Context, db executor, query string) ([]T, error) {
	rows, _ := db.Query(ctx, query)
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}
