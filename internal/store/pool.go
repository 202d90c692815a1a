package store

import (
	"context"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgxpool against dsn with the shopspring/decimal codec
// registered on every connection, so NUMERIC columns scan into and bind
// from decimal.Decimal on both prepared statements and binary COPY.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return registerServiceTypeEnum(ctx, conn)
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}
