package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"rinha-backend-golang/internal/models"
)

// registerServiceTypeEnum teaches pgx's type map how to bind and scan
// models.Processor directly against the payments table's service_used
// column, the way the original Rust source's ToSql/FromSql impl for
// ProcessorType does, instead of round-tripping through a plain string.
// The enum's OID is assigned by Postgres at CREATE TYPE time, so it has to
// be discovered per-connection rather than hardcoded.
func registerServiceTypeEnum(ctx context.Context, conn *pgx.Conn) error {
	dt, err := conn.LoadType(ctx, "service_type_enum")
	if err != nil {
		return err
	}
	conn.TypeMap().RegisterType(dt)
	conn.TypeMap().RegisterDefaultPgType(models.Processor(""), "service_type_enum")
	return nil
}
