package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed populates a dev-environment database with a small fleet, item
// catalogue, and a handful of region-varied shipping orders. Idempotent:
// fixed ids, ON CONFLICT DO NOTHING for master data that a prior seed
// run may already have inserted.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO pallet_specs (id, footprint_w_cm, footprint_d_cm, max_height_cm, max_mass_kg)
		VALUES (1, 100, 100, 80, 100)
		ON CONFLICT (id) DO NOTHING
	`); err != nil {
		return fmt.Errorf("seed pallet spec: %w", err)
	}

	fleet := []struct {
		id                   int
		floorW, floorD       int
		payload              float64
	}{
		{1, 240, 1200, 10000},
		{2, 240, 900, 7000},
		{3, 200, 600, 4000},
	}
	for _, v := range fleet {
		if _, err := tx.Exec(ctx, `
			INSERT INTO vehicles (id, floor_w_cm, floor_d_cm, payload_kg)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO NOTHING
		`, v.id, v.floorW, v.floorD, v.payload); err != nil {
			return fmt.Errorf("seed vehicle %d: %w", v.id, err)
		}
	}

	items := []struct {
		code           string
		w, d, h        int
		mass           float64
	}{
		{"CEM-40KG-BAG", 40, 30, 10, 40},
		{"CEM-25KG-BAG", 35, 25, 8, 25},
		{"REBAR-BUNDLE-6M", 600, 15, 15, 120},
		{"ADMIX-DRUM-200L", 58, 58, 90, 220},
		{"TILE-CRATE", 60, 40, 30, 35},
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO items (item_code, width_cm, depth_cm, height_cm, mass_kg)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (item_code) DO NOTHING
		`, it.code, it.w, it.d, it.h, it.mass); err != nil {
			return fmt.Errorf("seed item %s: %w", it.code, err)
		}
	}

	deadline := time.Now().Truncate(24 * time.Hour)

	orders := []struct {
		id      int
		name    string
		address string
		lat     float64
		lon     float64
		lines   []struct {
			code string
			qty  int
		}
	}{
		{1, "Shinjuku Site Office", "東京都新宿区西新宿2-8-1", 35.6896, 139.6917,
			[]struct {
				code string
				qty  int
			}{{"CEM-40KG-BAG", 60}, {"REBAR-BUNDLE-6M", 4}}},
		{2, "Hachioji Depot", "東京都八王子市元本郷町3-24-1", 35.6657, 139.3161,
			[]struct {
				code string
				qty  int
			}{{"CEM-25KG-BAG", 30}}},
		{3, "Yokohama Plant", "神奈川県横浜市西区みなとみらい2-3-1", 35.4558, 139.6328,
			[]struct {
				code string
				qty  int
			}{{"ADMIX-DRUM-200L", 8}, {"CEM-40KG-BAG", 20}}},
		{4, "Saitama Distribution Center", "埼玉県さいたま市大宮区桜木町1-7-5", 35.9061, 139.6239,
			[]struct {
				code string
				qty  int
			}{{"TILE-CRATE", 15}}},
		{5, "Chiba Warehouse", "千葉県千葉市中央区富士見2-3-1", 35.6073, 140.1063,
			[]struct {
				code string
				qty  int
			}{{"CEM-40KG-BAG", 90}}},
		{6, "Osaka Branch", "大阪府大阪市北区梅田3-1-3", 34.7024, 135.4959,
			[]struct {
				code string
				qty  int
			}{{"CEM-25KG-BAG", 12}}},
	}

	for _, o := range orders {
		if _, err := tx.Exec(ctx, `
			INSERT INTO shipping_orders (id, dest_name, dest_address, dest_lat, dest_lon, has_coords, deadline_date)
			VALUES ($1,$2,$3,$4,$5,TRUE,$6)
			ON CONFLICT (id) DO NOTHING
		`, o.id, o.name, o.address, o.lat, o.lon, deadline); err != nil {
			return fmt.Errorf("seed order %d: %w", o.id, err)
		}
		for _, line := range o.lines {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_lines (order_id, item_code, quantity)
				SELECT $1, $2, $3
				WHERE NOT EXISTS (
					SELECT 1 FROM order_lines WHERE order_id = $1 AND item_code = $2
				)
			`, o.id, line.code, line.qty); err != nil {
				return fmt.Errorf("seed order %d line %s: %w", o.id, line.code, err)
			}
		}
	}

	return tx.Commit(ctx)
}
