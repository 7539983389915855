package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quantfoundry/netvalue-go/internal/models"
)

// DatabasePool is the subset of pgxpool.Pool the repositories need; it allows
// mock pools in tests.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// ObservationRepository handles storage of network observation series.
type ObservationRepository struct {
	pool DatabasePool
}

// NewObservationRepository creates a repository backed by the given pool.
func NewObservationRepository(pool DatabasePool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// InsertBatch upserts observation rows for an asset, keyed by
// (asset, observed_at).
func (r *ObservationRepository) InsertBatch(ctx context.Context, asset string, rows []models.NetworkObservation) (int, error) {
	query := `
		INSERT INTO network_observations
			(asset, observed_at, price, active_addresses, total_addresses, transaction_volume, market_cap)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asset, observed_at)
		DO UPDATE SET
			price = EXCLUDED.price,
			active_addresses = EXCLUDED.active_addresses,
			total_addresses = EXCLUDED.total_addresses,
			transaction_volume = EXCLUDED.transaction_volume,
			market_cap = EXCLUDED.market_cap
	`

	inserted := 0
	for _, row := range rows {
		_, err := r.pool.Exec(ctx, query,
			asset,
			row.ObservedAt,
			row.Price,
			row.ActiveAddresses,
			row.TotalAddresses,
			row.TransactionVolume,
			row.MarketCap,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert observation for %s at %s: %w", asset, row.ObservedAt, err)
		}
		inserted++
	}
	return inserted, nil
}

// GetSeries returns the most recent observations for an asset in ascending
// date order, capped at limit rows.
func (r *ObservationRepository) GetSeries(ctx context.Context, asset string, limit int) ([]models.NetworkObservation, error) {
	query := `
		SELECT id, asset, observed_at, price, active_addresses, total_addresses, transaction_volume, market_cap, created_at
		FROM (
			SELECT id, asset, observed_at, price, active_addresses, total_addresses, transaction_volume, market_cap, created_at
			FROM network_observations
			WHERE asset = $1
			ORDER BY observed_at DESC
			LIMIT $2
		) recent
		ORDER BY observed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations for %s: %w", asset, err)
	}
	defer rows.Close()

	var out []models.NetworkObservation
	for rows.Next() {
		var o models.NetworkObservation
		if err := rows.Scan(
			&o.ID,
			&o.Asset,
			&o.ObservedAt,
			&o.Price,
			&o.ActiveAddresses,
			&o.TotalAddresses,
			&o.TransactionVolume,
			&o.MarketCap,
			&o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation row: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observation rows: %w", err)
	}
	return out, nil
}

// DeleteOlderThan removes observations observed before the cutoff and
// returns the number of deleted rows.
func (r *ObservationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM network_observations WHERE observed_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old observations: %w", err)
	}
	return tag.RowsAffected(), nil
}
