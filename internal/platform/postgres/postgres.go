// Package postgres opens the database handles used by the stores: a pgx pool
// for the quote gateway and a database/sql handle (lib/pq) for the reference
// catalog.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
)

type Postgres struct {
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// NewConnection opens both handles against url and pings them.
func NewConnection(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pgx pool: %w", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open sql db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		pool.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ping sql db: %w", err)
	}
	return &Postgres{Pool: pool, DB: db}, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.DB != nil {
		_ = p.DB.Close()
	}
}
