package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `
	id, name, brand, COALESCE(description, ''), price,
	COALESCE(image_url, ''), COALESCE(images, '[]'), COALESCE(sizes, '[]'), COALESCE(tags, '[]'),
	active, featured, stock_tracking, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Description, &p.Price,
		&p.ImageURL, &p.Images, &p.Sizes, &p.Tags,
		&p.Active, &p.Featured, &p.StockTracking, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActive returns the storefront catalog, featured products first.
func (r *Repo) ListActive(ctx context.Context) ([]Product, error) {
	return r.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE active ORDER BY featured DESC, name`)
}

// ListAll returns every product, for the admin catalog view.
func (r *Repo) ListAll(ctx context.Context) ([]Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	return scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

// Upsert inserts the product, or updates it in place when the id already
// exists. A missing id is filled in.
func (r *Repo) Upsert(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, brand, description, price, image_url, images, sizes, tags,
			active, featured, stock_tracking, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, brand=EXCLUDED.brand, description=EXCLUDED.description,
			price=EXCLUDED.price, image_url=EXCLUDED.image_url, images=EXCLUDED.images,
			sizes=EXCLUDED.sizes, tags=EXCLUDED.tags, active=EXCLUDED.active,
			featured=EXCLUDED.featured, stock_tracking=EXCLUDED.stock_tracking,
			updated_at=EXCLUDED.updated_at`,
		p.ID, p.Name, p.Brand, p.Description, p.Price, p.ImageURL, p.Images, p.Sizes, p.Tags,
		p.Active, p.Featured, p.StockTracking, now)
	return err
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
