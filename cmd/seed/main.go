package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/soultouch-za/storefront/internal/catalog"
	"github.com/soultouch-za/storefront/internal/config"
	"github.com/soultouch-za/storefront/internal/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	brand          TEXT NOT NULL,
	description    TEXT,
	price          BIGINT NOT NULL,
	image_url      TEXT,
	images         TEXT,
	sizes          TEXT,
	tags           TEXT,
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	featured       BOOLEAN NOT NULL DEFAULT FALSE,
	stock_tracking BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS inventory (
	id          TEXT PRIMARY KEY,
	product_id  TEXT NOT NULL REFERENCES products(id),
	size        TEXT NOT NULL,
	stock_level BIGINT NOT NULL DEFAULT 0,
	reserved    BIGINT NOT NULL DEFAULT 0,
	available   BIGINT NOT NULL DEFAULT 0,
	UNIQUE (product_id, size)
);

CREATE TABLE IF NOT EXISTS orders (
	id                   TEXT PRIMARY KEY,
	order_number         TEXT NOT NULL UNIQUE,
	user_id              TEXT,
	customer_name        TEXT NOT NULL,
	customer_email       TEXT NOT NULL,
	customer_phone       TEXT,
	delivery_address     TEXT NOT NULL,
	delivery_city        TEXT NOT NULL,
	delivery_postal_code TEXT,
	delivery_method      TEXT NOT NULL,
	payment_method       TEXT,
	subtotal             BIGINT NOT NULL,
	delivery_cost        BIGINT NOT NULL,
	total                BIGINT NOT NULL,
	payment_status       TEXT NOT NULL,
	payment_intent_id    TEXT,
	order_status         TEXT NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS orders_pending_idx
	ON orders (created_at) WHERE payment_status = 'pending';

CREATE TABLE IF NOT EXISTS order_items (
	id           TEXT PRIMARY KEY,
	order_id     TEXT NOT NULL REFERENCES orders(id),
	product_id   TEXT NOT NULL,
	product_name TEXT NOT NULL,
	brand        TEXT NOT NULL,
	size         TEXT NOT NULL,
	quantity     BIGINT NOT NULL,
	price        BIGINT NOT NULL,
	image_url    TEXT
);

CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id);

CREATE TABLE IF NOT EXISTS order_events (
	id          BIGSERIAL PRIMARY KEY,
	event_id    TEXT NOT NULL UNIQUE,
	event_type  TEXT NOT NULL,
	order_id    TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	payload     JSONB
);
`

type seedProduct struct {
	p      catalog.Product
	sizes  []string
	perQty int64
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Printf("schema applied")

	repo := &catalog.Repo{DB: db}
	for _, sp := range seedCatalog() {
		p := sp.p
		if err := repo.Upsert(ctx, &p); err != nil {
			log.Fatalf("seed product %s: %v", p.Name, err)
		}
		for _, size := range sp.sizes {
			_, err := db.Exec(ctx, `
				INSERT INTO inventory(id, product_id, size, stock_level, reserved, available)
				VALUES ($1,$2,$3,$4,0,$4)
				ON CONFLICT (product_id, size) DO NOTHING`,
				uuid.NewString(), p.ID, size, sp.perQty)
			if err != nil {
				log.Fatalf("seed inventory %s/%s: %v", p.Name, size, err)
			}
		}
		log.Printf("seeded %s %s (%d sizes)", p.Brand, p.Name, len(sp.sizes))
	}
}

func seedCatalog() []seedProduct {
	ukMens := []string{"UK6", "UK7", "UK8", "UK9", "UK10", "UK11"}
	return []seedProduct{
		{
			p: catalog.Product{
				ID: "jordan-1-chicago", Name: "Air Jordan 1 Retro High OG Chicago",
				Brand: "Nike", Price: 4999, Featured: true, Active: true, StockTracking: true,
				Sizes: `["UK6","UK7","UK8","UK9","UK10","UK11"]`,
				Tags:  `["jordan","retro","og"]`,
			},
			sizes: ukMens, perQty: 3,
		},
		{
			p: catalog.Product{
				ID: "dunk-low-panda", Name: "Dunk Low Panda",
				Brand: "Nike", Price: 2799, Featured: true, Active: true, StockTracking: true,
				Sizes: `["UK6","UK7","UK8","UK9","UK10","UK11"]`,
				Tags:  `["dunk","lifestyle"]`,
			},
			sizes: ukMens, perQty: 8,
		},
		{
			p: catalog.Product{
				ID: "yeezy-350-zebra", Name: "Yeezy Boost 350 V2 Zebra",
				Brand: "Adidas", Price: 6499, Active: true, StockTracking: true,
				Sizes: `["UK7","UK8","UK9","UK10"]`,
				Tags:  `["yeezy","boost"]`,
			},
			sizes: []string{"UK7", "UK8", "UK9", "UK10"}, perQty: 2,
		},
		{
			p: catalog.Product{
				ID: "nb-550-white-green", Name: "550 White Green",
				Brand: "New Balance", Price: 2499, Active: true, StockTracking: true,
				Sizes: `["UK6","UK7","UK8","UK9","UK10","UK11"]`,
				Tags:  `["550","lifestyle"]`,
			},
			sizes: ukMens, perQty: 10,
		},
	}
}
