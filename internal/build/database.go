package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const buildColumns = `id, status, started_at, completed_at, error_message, triggered_by, created_at`

func getBuild(ctx context.Context, db executor, id int64) (*Build, error) {
	query := `
		SELECT ` + buildColumns + `
		FROM build_status
		WHERE id = $1
	`
	args := []any{id}

	rows, _ := db.Query(ctx, query, args...)
	b, err := pgx.CollectExactlyOneRow(rows, rowToBuild)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, err
	}

	return b, nil
}

func getLatestBuild(ctx context.Context, db executor) (*Build, error) {
	query := `
		SELECT ` + buildColumns + `
		FROM build_status
		ORDER BY id DESC
		LIMIT 1
	`

	rows, _ := db.Query(ctx, query)
	b, err := pgx.CollectExactlyOneRow(rows, rowToBuild)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, err
	}

	return b, nil
}

// createIdleBuild seeds the ledger. A concurrent seed is absorbed by the
// unique index on idle rows.
func createIdleBuild(ctx context.Context, db executor) error {
	query := `
		INSERT INTO build_status (status, triggered_by)
		VALUES ('idle', '')
		ON CONFLICT DO NOTHING
	`

	_, err := db.Exec(ctx, query)
	return err
}

func createBuildingBuild(ctx context.Context, db executor, triggeredBy string) (*Build, error) {
	query := `
		INSERT INTO build_status (status, started_at, triggered_by)
		VALUES ('building', now(), $1)
		RETURNING ` + buildColumns + `
	`
	args := []any{triggeredBy}

	rows, _ := db.Query(ctx, query, args...)
	b, err := pgx.CollectExactlyOneRow(rows, rowToBuild)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			err = ErrAlreadyBuilding
		}
		return nil, err
	}

	return b, nil
}

// completeBuild finalizes a building record. Terminal records are left as they are.
func completeBuild(ctx context.Context, db executor, id int64, status Status, errorMessage *string) (*Build, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("complete with non-terminal status %q", status)
	}

	query := `
		UPDATE build_status
		SET status = $2, completed_at = now(), error_message = $3
		WHERE id = $1 AND status = 'building'
		RETURNING ` + buildColumns + `
	`
	args := []any{id, string(status), errorMessage}

	rows, _ := db.Query(ctx, query, args...)
	b, err := pgx.CollectExactlyOneRow(rows, rowToBuild)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	b, err = getBuild(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return b, ErrAlreadyDone
}

func listBuilds(ctx context.Context, db executor, limit, offset int) ([]*Build, error) {
	query := `
		SELECT ` + buildColumns + `
		FROM build_status
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`
	args := []any{limit, offset}

	rows, _ := db.Query(ctx, query, args...)
	return pgx.CollectRows(rows, rowToBuild)
}

func countBuilds(ctx context.Context, db executor) (int, error) {
	var n int
	err := db.QueryRow(ctx, `SELECT count(*) FROM build_status`).Scan(&n)
	return n, err
}

func listBuildingBuildsStartedBefore(ctx context.Context, db executor, before time.Time) ([]*Build, error) {
	query := `
		SELECT ` + buildColumns + `
		FROM build_status
		WHERE status = 'building' AND started_at < $1
		ORDER BY id
	`
	args := []any{before}

	rows, _ := db.Query(ctx, query, args...)
	return pgx.CollectRows(rows, rowToBuild)
}

func rowToBuild(collectableRow pgx.CollectableRow) (*Build, error) {
	type row struct {
		ID           int64      `db:"id"`
		Status       string     `db:"status"`
		StartedAt    *time.Time `db:"started_at"`
		CompletedAt  *time.Time `db:"completed_at"`
		ErrorMessage *string    `db:"error_message"`
		TriggeredBy  string     `db:"triggered_by"`
		CreatedAt    time.Time  `db:"created_at"`
	}

	collectedRow, err := pgx.RowToStructByName[row](collectableRow)
	if err != nil {
		return nil, err
	}

	status, known := ParseStatus(collectedRow.Status)
	if !known {
		return nil, fmt.Errorf("unknown status %q", collectedRow.Status)
	}

	return &Build{
		ID:           collectedRow.ID,
		Status:       status,
		StartedAt:    collectedRow.StartedAt,
		CompletedAt:  collectedRow.CompletedAt,
		ErrorMessage: collectedRow.ErrorMessage,
		TriggeredBy:  collectedRow.TriggeredBy,
		CreatedAt:    collectedRow.CreatedAt,
	}, nil
}
