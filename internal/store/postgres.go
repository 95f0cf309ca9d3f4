package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"petrovrp/internal/model"
)

const tableInstances = "vrp_instances"

var summaryColumns = []string{"id::text", "name", "difficulty", "policy", "n_stations", "n_trucks", "generated_at"}

const schema = `
CREATE TABLE IF NOT EXISTS vrp_instances (
    id           uuid PRIMARY KEY,
    name         text NOT NULL DEFAULT '',
    difficulty   text NOT NULL,
    policy       text NOT NULL,
    n_stations   integer NOT NULL,
    n_trucks     integer NOT NULL,
    generated_at text NOT NULL,
    created_at   timestamptz NOT NULL DEFAULT now(),
    body         jsonb NOT NULL
)`

type Postgres struct {
	db *sql.DB
}

// builder returns a statement builder using $n placeholders.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// NewPostgres opens dsn and waits for the server, retrying the first ping
// with exponential backoff for up to maxWait.
func NewPostgres(ctx context.Context, dsn string, maxWait time.Duration) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(b, ctx))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate creates the instances table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (p *Postgres) SaveInstance(ctx context.Context, inst *model.Instance) (string, error) {
	id := uuid.New()
	inst.Metadata.ID = id.String()
	body, err := sonic.Marshal(inst)
	if err != nil {
		return "", fmt.Errorf("postgres: encode instance: %w", err)
	}
	query, args, err := insertInstance(id, inst, body).ToSql()
	if err != nil {
		return "", err
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("postgres: insert instance: %w", err)
	}
	return id.String(), nil
}

func insertInstance(id uuid.UUID, inst *model.Instance, body []byte) sq.InsertBuilder {
	return builder().Insert(tableInstances).
		Columns("id", "name", "difficulty", "policy", "n_stations", "n_trucks", "generated_at", "body").
		Values(id, inst.Metadata.Name, inst.Metadata.Difficulty, inst.Metadata.Policy,
			inst.Parameters.NStations, inst.Parameters.NTrucks, inst.Metadata.GeneratedAt, body)
}

func (p *Postgres) GetInstance(ctx context.Context, id string) (*model.Instance, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query, args, err := builder().Select("body").From(tableInstances).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var body []byte
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get instance: %w", err)
	}
	var inst model.Instance
	if err := sonic.Unmarshal(body, &inst); err != nil {
		return nil, fmt.Errorf("postgres: decode instance %s: %w", id, err)
	}
	return &inst, nil
}

// ListInstances pages by id; the cursor is the last id returned.
func (p *Postgres) ListInstances(ctx context.Context, cursor string, limit int) ([]model.Summary, string, error) {
	limit = clampLimit(limit)
	query, args, err := listInstances(cursor, limit).ToSql()
	if err != nil {
		return nil, "", err
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("postgres: list instances: %w", err)
	}
	defer rows.Close()
	out := []model.Summary{}
	for rows.Next() {
		var s model.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Difficulty, &s.Policy, &s.NStations, &s.NTrucks, &s.GeneratedAt); err != nil {
			return nil, "", err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func listInstances(cursor string, limit int) sq.SelectBuilder {
	q := builder().Select(summaryColumns...).From(tableInstances).OrderBy("id").Limit(uint64(limit))
	if cursor != "" {
		q = q.Where(sq.Gt{"id::text": cursor})
	}
	return q
}
