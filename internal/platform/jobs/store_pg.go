package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgStore struct{ pool *pgxpool.Pool }

// NewPGStore creates a Store backed by the job table.
func NewPGStore(pool *pgxpool.Pool) Store { return &pgStore{pool: pool} }

func (s *pgStore) Insert(ctx context.Context, job Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job (id, tag, run_at, payload)
		VALUES ($1, $2, $3, $4)`,
		job.ID, job.Tag, job.RunAt, job.Payload)
	return err
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM job WHERE id = $1`, id)
	return err
}

func (s *pgStore) DeleteByTag(ctx context.Context, tag string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM job WHERE tag = $1`, tag)
	return err
}

func (s *pgStore) ListPending(ctx context.Context) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, tag, run_at, payload FROM job ORDER BY run_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Tag, &j.RunAt, &j.Payload); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
