// Package ledger records run history in Postgres when a database URL
// is configured. It is reporting only: nothing here influences what
// gets downloaded, and the tool never deduplicates against it.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/dfg-downloader/internal/db"
)

// Run is one invocation of the bulk download.
type Run struct {
	ID             uuid.UUID
	Dataset        string
	DatasetType    string
	BlockSizeDays  int
	RangeStart     *time.Time
	RangeEnd       *time.Time
	AvailableDates int
	BytesBefore    int64
	BytesAfter     int64
	Status         string
	LastError      *string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// BlockRecord is one submitted block within a run.
type BlockRecord struct {
	RunID   uuid.UUID
	Newer   time.Time
	Older   time.Time
	Status  string
	Elapsed time.Duration
}

// Store is the slice of db.DB the repo uses; tests provide a fake.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (db.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
}

type Repo struct{ store Store }

func NewRepo(s Store) *Repo { return &Repo{store: s} }

func (r *Repo) StartRun(ctx context.Context, run Run) error {
	return r.store.Exec(ctx, `
INSERT INTO runs(id,dataset,dataset_type,block_size_days,bytes_before,status)
VALUES ($1,$2,$3,$4,$5,'running')`,
		run.ID, run.Dataset, run.DatasetType, run.BlockSizeDays, run.BytesBefore)
}

// SetRange records the discovered availability range once the scan is
// done.
func (r *Repo) SetRange(ctx context.Context, id uuid.UUID, start, end time.Time, availableDates int) error {
	return r.store.Exec(ctx, `
UPDATE runs SET range_start=$2, range_end=$3, available_dates=$4 WHERE id=$1`,
		id, start, end, availableDates)
}

func (r *Repo) FinishRun(ctx context.Context, id uuid.UUID, bytesAfter int64, status string, lastErr *string) error {
	return r.store.Exec(ctx, `
UPDATE runs SET bytes_after=$2, status=$3, last_error=$4, finished_at=now() WHERE id=$1`,
		id, bytesAfter, status, lastErr)
}

func (r *Repo) RecordBlock(ctx context.Context, b BlockRecord) error {
	return r.store.Exec(ctx, `
INSERT INTO run_blocks(run_id,newer,older,status,elapsed_ms)
VALUES ($1,$2,$3,$4,$5)`,
		b.RunID, b.Newer, b.Older, b.Status, b.Elapsed.Milliseconds())
}

// GetRun fetches one run by id; db.ErrNotFound when no such run exists.
func (r *Repo) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := r.store.QueryRow(ctx, `
SELECT id,dataset,dataset_type,block_size_days,range_start,range_end,available_dates,bytes_before,bytes_after,status,last_error,started_at,finished_at
FROM runs
WHERE id=$1`, id)

	var run Run
	if err := row.Scan(
		&run.ID, &run.Dataset, &run.DatasetType, &run.BlockSizeDays,
		&run.RangeStart, &run.RangeEnd, &run.AvailableDates,
		&run.BytesBefore, &run.BytesAfter, &run.Status, &run.LastError,
		&run.StartedAt, &run.FinishedAt,
	); err != nil {
		return Run{}, db.WrapNotFound(err)
	}
	return run, nil
}

func (r *Repo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.store.Query(ctx, `
SELECT id,dataset,dataset_type,block_size_days,range_start,range_end,available_dates,bytes_before,bytes_after,status,last_error,started_at,finished_at
FROM runs
ORDER BY started_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.Dataset, &run.DatasetType, &run.BlockSizeDays,
			&run.RangeStart, &run.RangeEnd, &run.AvailableDates,
			&run.BytesBefore, &run.BytesAfter, &run.Status, &run.LastError,
			&run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
