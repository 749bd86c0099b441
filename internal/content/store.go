package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/k11v/sitebuild/internal/metrics"
	"github.com/k11v/sitebuild/internal/trigger"
)

// Store is the single writer of content tables.
//
// Every write goes through BeginFunc. A transaction that made build-relevant
// changes records one build request in the outbox before it commits and
// hands it to the Launcher after it commits.
type Store struct {
	DB       *pgxpool.Pool     // required
	Launcher trigger.Launcher  // optional, nil leaves requests for FirePending
	Metrics  *metrics.Recorder // optional
	Log      *slog.Logger      // optional
}

// BeginFunc runs f in a transaction. If f returns an error the transaction
// is rolled back and no build is requested.
func (s *Store) BeginFunc(ctx context.Context, f func(tx *Tx) error) error {
	pgxTx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("content.Store: %w", err)
	}
	defer func() {
		_ = pgxTx.Rollback(ctx)
	}()

	tx := &Tx{tx: pgxTx}
	if err = f(tx); err != nil {
		return err
	}

	pending := tx.batch.Pending()
	var requestID uuid.UUID
	if pending {
		requestID = uuid.New()
		if err = createBuildRequest(ctx, pgxTx, requestID, tx.batch.Label()); err != nil {
			return fmt.Errorf("content.Store: %w", err)
		}
	}

	if err = pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("content.Store: %w", err)
	}
	s.Metrics.ObserveContentCommit(pending)

	if pending {
		s.fire(context.WithoutCancel(ctx), []uuid.UUID{requestID}, tx.batch.Label())
	}
	return nil
}

// fire hands one coalesced request to the launcher. Requests stay unfired
// when the launcher errors so that FirePending retries them.
func (s *Store) fire(ctx context.Context, requestIDs []uuid.UUID, triggeredBy string) bool {
	if s.Launcher == nil {
		return false
	}
	log := s.log().With("triggered_by", triggeredBy)

	started, err := s.Launcher.TriggerBuild(ctx, triggeredBy)
	if err != nil {
		log.Error("didn't trigger build", "error", err)
		return false
	}
	if !started {
		log.Info("build request dropped, a build is running")
	}

	if err = markBuildRequestsFired(ctx, s.DB, requestIDs); err != nil {
		log.Error("didn't mark build requests fired", "error", err)
	}
	return true
}

// FirePending fires build requests that were committed but never handed to
// the launcher, for example because the process exited right after commit.
// Requests younger than minAge are left to their own transaction.
// All pending requests are coalesced into one trigger.
func (s *Store) FirePending(ctx context.Context, minAge time.Duration) (int, error) {
	requests, err := listUnfiredBuildRequests(ctx, s.DB, time.Now().Add(-minAge))
	if err != nil {
		return 0, fmt.Errorf("content.Store: %w", err)
	}
	if len(requests) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	if !s.fire(ctx, ids, requests[0].TriggeredBy) {
		return 0, nil
	}
	s.Metrics.ObserveOutboxFired(len(ids))
	return len(ids), nil
}

func (s *Store) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

type buildRequest struct {
	ID          uuid.UUID  `db:"id"`
	TriggeredBy string     `db:"triggered_by"`
	CreatedAt   time.Time  `db:"created_at"`
	FiredAt     *time.Time `db:"fired_at"`
}

func createBuildRequest(ctx context.Context, db executor, id uuid.UUID, triggeredBy string) error {
	query := `
		INSERT INTO build_requests (id, triggered_by)
		VALUES ($1, $2)
	`
	_, err := db.Exec(ctx, query, id, triggeredBy)
	return err
}

func markBuildRequestsFired(ctx context.Context, db executor, ids []uuid.UUID) error {
	query := `
		UPDATE build_requests
		SET fired_at = now()
		WHERE id = ANY($1) AND fired_at IS NULL
	`
	_, err := db.Exec(ctx, query, ids)
	return err
}

func listUnfiredBuildRequests(ctx context.Context, db executor, createdBefore time.Time) ([]buildRequest, error) {
	query := `
		SELECT id, triggered_by, created_at, fired_at
		FROM build_requests
		WHERE fired_at IS NULL AND created_at < $1
		ORDER BY created_at
		LIMIT 100
	`
	rows, _ := db.Query(ctx, query, createdBefore)
	return pgx.CollectRows(rows, pgx.RowToStructByName[buildRequest])
}
