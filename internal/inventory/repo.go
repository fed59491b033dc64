package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soultouch-za/storefront/internal/config"
)

var ErrNotFound = errors.New("inventory record not found")

// PGLedger keeps the counters in Postgres. Every mutation is a single UPDATE
// statement, so concurrent operations on the same record serialize on the row
// lock and the counters can never be read-then-written stale. Reserve is
// additionally guarded by `available >= quantity` so two checkouts racing for
// the last pair cannot both win.
type PGLedger struct {
	DB     *pgxpool.Pool
	Policy config.StockPolicy
}

func NewPGLedger(db *pgxpool.Pool, policy config.StockPolicy) *PGLedger {
	return &PGLedger{DB: db, Policy: policy}
}

func (l *PGLedger) CheckAvailability(ctx context.Context, items []Line) ([]Shortfall, error) {
	var short []Shortfall
	for _, it := range items {
		var available int64
		err := l.DB.QueryRow(ctx,
			`SELECT available FROM inventory WHERE product_id=$1 AND size=$2`,
			it.ProductID, it.Size).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			if assumeAvailable(l.Policy) {
				continue
			}
			short = append(short, Shortfall{
				ProductID: it.ProductID, Size: it.Size,
				Requested: it.Quantity, Available: 0,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("check availability %s/%s: %w", it.ProductID, it.Size, err)
		}
		if available < it.Quantity {
			short = append(short, Shortfall{
				ProductID: it.ProductID, Size: it.Size,
				Requested: it.Quantity, Available: available,
			})
		}
	}
	return short, nil
}

func (l *PGLedger) Reserve(ctx context.Context, items []Line) ([]Shortfall, error) {
	var reserved []Line
	for _, it := range items {
		ct, err := l.DB.Exec(ctx, `
			UPDATE inventory
			SET reserved  = reserved + $3,
			    available = GREATEST(0, stock_level - (reserved + $3))
			WHERE product_id=$1 AND size=$2 AND available >= $3`,
			it.ProductID, it.Size, it.Quantity)
		if err != nil {
			_ = l.Release(ctx, reserved)
			return nil, fmt.Errorf("reserve %s/%s: %w", it.ProductID, it.Size, err)
		}
		if ct.RowsAffected() == 1 {
			reserved = append(reserved, it)
			continue
		}

		// Either no record (skip per policy: the line is simply untracked) or
		// the guard lost the race for the last units.
		var available int64
		err = l.DB.QueryRow(ctx,
			`SELECT available FROM inventory WHERE product_id=$1 AND size=$2`,
			it.ProductID, it.Size).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			_ = l.Release(ctx, reserved)
			return nil, fmt.Errorf("reserve %s/%s: %w", it.ProductID, it.Size, err)
		}

		if relErr := l.Release(ctx, reserved); relErr != nil {
			return nil, fmt.Errorf("release after failed reserve: %w", relErr)
		}
		return []Shortfall{{
			ProductID: it.ProductID, Size: it.Size,
			Requested: it.Quantity, Available: available,
		}}, nil
	}
	return nil, nil
}

func (l *PGLedger) Release(ctx context.Context, items []Line) error {
	for _, it := range items {
		_, err := l.DB.Exec(ctx, `
			UPDATE inventory
			SET reserved  = GREATEST(0, reserved - $3),
			    available = GREATEST(0, stock_level - GREATEST(0, reserved - $3))
			WHERE product_id=$1 AND size=$2`,
			it.ProductID, it.Size, it.Quantity)
		if err != nil {
			return fmt.Errorf("release %s/%s: %w", it.ProductID, it.Size, err)
		}
	}
	return nil
}

func (l *PGLedger) Commit(ctx context.Context, items []Line) error {
	for _, it := range items {
		_, err := l.DB.Exec(ctx, `
			UPDATE inventory
			SET stock_level = GREATEST(0, stock_level - $3),
			    reserved    = GREATEST(0, reserved - $3),
			    available   = GREATEST(0, GREATEST(0, stock_level - $3) - GREATEST(0, reserved - $3))
			WHERE product_id=$1 AND size=$2`,
			it.ProductID, it.Size, it.Quantity)
		if err != nil {
			return fmt.Errorf("commit %s/%s: %w", it.ProductID, it.Size, err)
		}
	}
	return nil
}

func (l *PGLedger) SetStockLevel(ctx context.Context, recordID string, level int64) error {
	if level < 0 {
		return fmt.Errorf("stock level must be >= 0, got %d", level)
	}
	ct, err := l.DB.Exec(ctx, `
		UPDATE inventory
		SET stock_level = $2,
		    available   = GREATEST(0, $2 - reserved)
		WHERE id=$1`,
		recordID, level)
	if err != nil {
		return fmt.Errorf("set stock level %s: %w", recordID, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *PGLedger) ListForProduct(ctx context.Context, productID string) ([]Record, error) {
	rows, err := l.DB.Query(ctx, `
		SELECT id, product_id, size, stock_level, reserved, available
		FROM inventory WHERE product_id=$1 ORDER BY size`,
		productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.ProductID, &r.Size, &r.StockLevel, &r.Reserved, &r.Available); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
