package quota

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Tracker backed by a turn_quota table, for deployments that
// want counters to survive restarts.
//
// Schema:
//
//	CREATE TABLE turn_quota (
//	    uid        TEXT PRIMARY KEY,
//	    turns_used INT NOT NULL DEFAULT 0
//	);
type Postgres struct {
	db      *pgxpool.Pool
	ceiling int
}

// NewPostgres returns a Tracker backed by the given connection pool.
func NewPostgres(db *pgxpool.Pool, ceiling int) *Postgres {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Postgres{db: db, ceiling: ceiling}
}

func (p *Postgres) Remaining(ctx context.Context, identity string) (bool, int, error) {
	used, err := p.Used(ctx, identity)
	if err != nil {
		return false, 0, err
	}
	return used < p.ceiling, p.ceiling - used, nil
}

// Consume increments the identity's counter. The row is created on first use
// (ON CONFLICT keeps the increment when two turns race on an unseen identity).
func (p *Postgres) Consume(ctx context.Context, identity string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO turn_quota (uid, turns_used)
		VALUES ($1, 1)
		ON CONFLICT (uid) DO UPDATE SET turns_used = turn_quota.turns_used + 1
	`, identity)
	return err
}

func (p *Postgres) Used(ctx context.Context, identity string) (int, error) {
	var used int
	err := p.db.QueryRow(ctx,
		`SELECT turns_used FROM turn_quota WHERE uid = $1`, identity,
	).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lazily initialize unseen identities, mirroring the memory backend.
		if _, err := p.db.Exec(ctx, `
			INSERT INTO turn_quota (uid, turns_used)
			VALUES ($1, 0)
			ON CONFLICT (uid) DO NOTHING
		`, identity); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (p *Postgres) Reset(ctx context.Context, identity string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO turn_quota (uid, turns_used)
		VALUES ($1, 0)
		ON CONFLICT (uid) DO UPDATE SET turns_used = 0
	`, identity)
	return err
}
