package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the part of the ledger the launcher and runner depend on.
type Store interface {
	Current(ctx context.Context) (*Build, error)
	Get(ctx context.Context, params *LedgerGetParams) (*Build, error)
	Start(ctx context.Context, params *LedgerStartParams) (*Build, error)
	Complete(ctx context.Context, params *LedgerCompleteParams) (*Build, error)
}

var _ Store = (*Ledger)(nil)

// Ledger records build attempts in Postgres.
// It is both the single-build mutex and the build history.
type Ledger struct {
	DB *pgxpool.Pool // required
}

// Current returns the most recent record.
// An empty ledger is seeded with an idle record first.
func (l *Ledger) Current(ctx context.Context) (*Build, error) {
	b, err := getLatestBuild(ctx, l.DB)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}

	if err = createIdleBuild(ctx, l.DB); err != nil {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}

	b, err = getLatestBuild(ctx, l.DB)
	if err != nil {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}
	return b, nil
}

type LedgerGetParams struct {
	ID int64
}

func (l *Ledger) Get(ctx context.Context, params *LedgerGetParams) (*Build, error) {
	b, err := getBuild(ctx, l.DB, params.ID)
	if err != nil {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}
	return b, nil
}

type LedgerStartParams struct {
	TriggeredBy string
}

// Start appends a building record.
// It returns ErrAlreadyBuilding when another record holds the mutex.
func (l *Ledger) Start(ctx context.Context, params *LedgerStartParams) (*Build, error) {
	b, err := createBuildingBuild(ctx, l.DB, params.TriggeredBy)
	if err != nil {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}
	return b, nil
}

type LedgerCompleteParams struct {
	ID           int64
	Status       Status // StatusSuccess or StatusFailed
	ErrorMessage string // ignored unless Status is StatusFailed
}

// Complete finalizes a building record.
// On an already terminal record it returns the record unchanged with ErrAlreadyDone.
func (l *Ledger) Complete(ctx context.Context, params *LedgerCompleteParams) (*Build, error) {
	var errorMessage *string
	if params.Status == StatusFailed {
		m := params.ErrorMessage
		errorMessage = &m
	}

	b, err := completeBuild(ctx, l.DB, params.ID, params.Status, errorMessage)
	if err != nil {
		return b, fmt.Errorf("build.Ledger: %w", err)
	}
	return b, nil
}

const DefaultPageSize = 20

type LedgerListParams struct {
	Page     int // 1-based, zero value means 1
	PageSize int // zero value means DefaultPageSize, capped at 100
}

type LedgerListResult struct {
	Builds   []*Build
	Page     int
	PageSize int
	Total    int
}

// List returns records newest first.
func (l *Ledger) List(ctx context.Context, params *LedgerListParams) (*LedgerListResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > 100 {
		pageSize = 100
	}

	builds, err := listBuilds(ctx, l.DB, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}
	total, err := countBuilds(ctx, l.DB)
	if err != nil {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}

	return &LedgerListResult{
		Builds:   builds,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// Stale returns building records started before the given time.
func (l *Ledger) Stale(ctx context.Context, startedBefore time.Time) ([]*Build, error) {
	builds, err := listBuildingBuildsStartedBefore(ctx, l.DB, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("build.Ledger: %w", err)
	}
	return builds, nil
}
