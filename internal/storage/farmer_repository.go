package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xrpl-farmer-api/internal/models"
)

// Querier is the subset of *pgxpool.Pool the repository needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// FarmerRepository reads the farmer blocklist table
type FarmerRepository struct {
	db    Querier
	table string
}

// NewFarmerRepository creates a new farmer repository over db and table
func NewFarmerRepository(db Querier, table string) *FarmerRepository {
	return &FarmerRepository{
		db:    db,
		table: table,
	}
}

// Table returns the configured table name
func (r *FarmerRepository) Table() string {
	return r.table
}

// FindByAddresses returns the farmer records whose address is one of addresses.
// Matching is exact and case-sensitive. The pooled connection is released
// before returning, whatever the outcome.
func (r *FarmerRepository) FindByAddresses(ctx context.Context, addresses []string) ([]models.FarmerRecord, error) {
	q, err := BuildMembershipQuery(r.table, addresses)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query farmers: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.FarmerRecord])
	if err != nil {
		return nil, fmt.Errorf("failed to scan farmers: %w", err)
	}

	return records, nil
}
