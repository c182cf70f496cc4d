package repository

import (
	"context"
	"database/sql"
	"time"
)

// AttemptRepo handles verification attempts.
type AttemptRepo struct {
	db *sql.DB
}

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{db: db} }

func (r *AttemptRepo) Insert(ctx context.Context, a Attempt) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO attempts(id, code_digest, source, ok, distance, generation, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?);
	`, a.ID, a.CodeDigest, a.Source, a.OK, a.Distance, a.Generation, a.CreatedAt.UTC())
	return err
}

// List returns the newest attempts first. limit <= 0 means no limit.
func (r *AttemptRepo) List(ctx context.Context, limit int) ([]Attempt, error) {
	query := `SELECT id, code_digest, source, ok, distance, generation, created_at
	FROM attempts ORDER BY created_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AttemptRepo) Stats(ctx context.Context) (AttemptStats, error) {
	var s AttemptStats
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COALESCE(SUM(ok), 0), COALESCE(SUM(1 - ok), 0) FROM attempts`).
		Scan(&s.Total, &s.Accepted, &s.Rejected)
	return s, err
}

// DeleteBefore removes attempts created before cutoff and reports how many.
func (r *AttemptRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attempts WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(s scanner) (Attempt, error) {
	var a Attempt
	var distance sql.NullInt64
	if err := s.Scan(&a.ID, &a.CodeDigest, &a.Source, &a.OK, &distance, &a.Generation, &a.CreatedAt); err != nil {
		return Attempt{}, err
	}
	if distance.Valid {
		d := int(distance.Int64)
		a.Distance = &d
	}
	return a, nil
}
