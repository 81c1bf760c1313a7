package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cementops/planner/internal/config"
	"cementops/planner/internal/core/planner"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// PostgresStore run the same SQL whether or not it's bound to a
// transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements planner.Store over pgx, mirroring the
// teacher's db package: SQL lives only here and in internal/httpapi,
// never in internal/core.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
	cfg  config.Config
}

// NewPostgresStore wraps a connected pool. cfg supplies the pallet-spec
// defaults used when the database hasn't been seeded yet, the depot
// coordinate, and the advisory-lock namespace.
func NewPostgresStore(pool *pgxpool.Pool, cfg config.Config) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool, cfg: cfg}
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx planner.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	bound := &PostgresStore{pool: s.pool, db: tx, cfg: s.cfg}

	if err := fn(ctx, bound); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// WithDateLock serialises same-date runs (spec.md §5) via a Postgres
// advisory lock, keyed by cfg.PlanningAdvisoryLockKey. Satisfies
// internal/httpapi's DateLocker interface structurally.
func (s *PostgresStore) WithDateLock(ctx context.Context, date time.Time, fn func(ctx context.Context) error) error {
	return WithDateLock(ctx, s.pool, s.cfg.PlanningAdvisoryLockKey, date, fn)
}

func (s *PostgresStore) LoadFleet(ctx context.Context) ([]planner.Vehicle, error) {
	rows, err := s.db.Query(ctx, `SELECT id, floor_w_cm, floor_d_cm, payload_kg FROM vehicles ORDER BY payload_kg DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fleet []planner.Vehicle
	for rows.Next() {
		var v planner.Vehicle
		if err := rows.Scan(&v.ID, &v.FloorW, &v.FloorD, &v.PayloadKg); err != nil {
			return nil, err
		}
		fleet = append(fleet, v)
	}
	return fleet, rows.Err()
}

func (s *PostgresStore) LoadCatalogue(ctx context.Context) (map[string]planner.Item, error) {
	rows, err := s.db.Query(ctx, `SELECT item_code, width_cm, depth_cm, height_cm, mass_kg FROM items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalogue := map[string]planner.Item{}
	for rows.Next() {
		var it planner.Item
		var w, d, h *int
		var mass *float64
		if err := rows.Scan(&it.ItemCode, &w, &d, &h, &mass); err != nil {
			return nil, err
		}
		if w != nil {
			it.WidthCM = *w
		}
		if d != nil {
			it.DepthCM = *d
		}
		if h != nil {
			it.HeightCM = *h
		}
		if mass != nil {
			it.MassKg = *mass
		}
		catalogue[it.ItemCode] = it
	}
	return catalogue, rows.Err()
}

// LoadOrders returns every shipping order targeting date whose unit
// loads have not already been marked Allocated or Used (spec.md §4.6:
// "Allocated and Used unit-loads are excluded from future runs'
// candidate pool").
func (s *PostgresStore) LoadOrders(ctx context.Context, date time.Time) ([]planner.ShippingOrder, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, o.dest_name, o.dest_address, o.dest_lat, o.dest_lon, o.has_coords, o.deadline_date
		FROM shipping_orders o
		WHERE o.deadline_date = $1
		  AND NOT EXISTS (SELECT 1 FROM unit_load_history h WHERE h.order_id = o.id)
		ORDER BY o.id ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []planner.ShippingOrder
	for rows.Next() {
		var o planner.ShippingOrder
		var lat, lon *float64
		if err := rows.Scan(&o.ID, &o.Destination.Name, &o.Destination.Address, &lat, &lon, &o.Destination.HasCoords, &o.DeadlineDate); err != nil {
			return nil, err
		}
		if lat != nil {
			o.Destination.Lat = *lat
		}
		if lon != nil {
			o.Destination.Lon = *lon
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, o := range orders {
		lineRows, err := s.db.Query(ctx, `SELECT item_code, quantity FROM order_lines WHERE order_id = $1 ORDER BY id ASC`, o.ID)
		if err != nil {
			return nil, err
		}
		var lines []planner.OrderLine
		for lineRows.Next() {
			var l planner.OrderLine
			if err := lineRows.Scan(&l.ItemCode, &l.Quantity); err != nil {
				lineRows.Close()
				return nil, err
			}
			lines = append(lines, l)
		}
		lineErr := lineRows.Err()
		lineRows.Close()
		if lineErr != nil {
			return nil, lineErr
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

// LoadPalletSpec falls back to the configured defaults (spec.md §6:
// "Default suggested: 100x100x80 cm, 100 kg") when the singleton row
// hasn't been seeded yet.
func (s *PostgresStore) LoadPalletSpec(ctx context.Context) (planner.PalletSpecDTO, error) {
	var dto planner.PalletSpecDTO
	err := s.db.QueryRow(ctx, `SELECT footprint_w_cm, footprint_d_cm, max_height_cm, max_mass_kg FROM pallet_specs WHERE id = 1`).
		Scan(&dto.FootprintW, &dto.FootprintD, &dto.MaxHeightCM, &dto.MaxMassKg)
	if err == pgx.ErrNoRows {
		return planner.PalletSpecDTO{
			FootprintW:  s.cfg.PalletFootprintW,
			FootprintD:  s.cfg.PalletFootprintD,
			MaxHeightCM: s.cfg.PalletMaxHeightCM,
			MaxMassKg:   s.cfg.PalletMaxMassKg,
		}, nil
	}
	return dto, err
}

func (s *PostgresStore) LoadPalletizeResult(ctx context.Context, date time.Time) (planner.PalletizeResult, bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT boxes FROM palletize_cache WHERE plan_date = $1`, date).Scan(&raw)
	if err == pgx.ErrNoRows {
		return planner.PalletizeResult{}, false, nil
	}
	if err != nil {
		return planner.PalletizeResult{}, false, err
	}
	var result planner.PalletizeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return planner.PalletizeResult{}, false, err
	}
	return result, true, nil
}

func (s *PostgresStore) SavePalletizeResult(ctx context.Context, date time.Time, result planner.PalletizeResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO palletize_cache (plan_date, boxes) VALUES ($1, $2)
		ON CONFLICT (plan_date) DO UPDATE SET boxes = EXCLUDED.boxes
	`, date, raw)
	return err
}

func (s *PostgresStore) SavePlan(ctx context.Context, plan planner.DeliveryPlan) error {
	runID, err := uuid.Parse(plan.RunID)
	if err != nil {
		runID = uuid.New()
	}

	var planID int64
	err = s.db.QueryRow(ctx, `
		INSERT INTO delivery_plans (run_id, vehicle_id, plan_date, departure_at, total_mass_kg, total_volume_cm3, utilization)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, runID, plan.Vehicle.ID, plan.Date, plan.Departure, plan.Totals.MassKg, plan.Totals.VolumeCM3, plan.Utilization).Scan(&planID)
	if err != nil {
		return err
	}

	for _, stop := range plan.Stops {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO stops (plan_id, order_id, visit_index, eta, travel_minutes)
			VALUES ($1, $2, $3, $4, $5)
		`, planID, stop.OrderID, stop.VisitIndex, stop.ETA, stop.TravelMinutes); err != nil {
			return err
		}
	}

	allocatedOrders := map[int64]bool{}
	for _, p := range plan.Placements {
		for orderID := range p.UnitLoad.OrderIDs {
			if _, err := s.db.Exec(ctx, `
				INSERT INTO placements (plan_id, order_id, x_cm, y_cm, rotation, load_sequence, mass_kg, footprint_w_cm, footprint_d_cm)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, planID, orderID, p.X, p.Y, p.Rotation, p.LoadSequence, p.UnitLoad.MassKg, p.UnitLoad.Footprint.W, p.UnitLoad.Footprint.D); err != nil {
				return err
			}
			allocatedOrders[orderID] = true
		}
	}

	for orderID := range allocatedOrders {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO unit_load_history (order_id, plan_date, status) VALUES ($1, $2, 'USED')
			ON CONFLICT (order_id, plan_date) DO UPDATE SET status = 'USED'
		`, orderID, plan.Date); err != nil {
			return err
		}
	}

	return nil
}

func (s *PostgresStore) MarkUnplaceable(ctx context.Context, date time.Time, report planner.UnplaceableReport) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO unplaceable_reports (order_id, plan_date, reason) VALUES ($1, $2, $3)
	`, report.OrderID, date, report.Reason)
	return err
}

// PlansForDate and UnplaceableForDate satisfy internal/httpapi's
// PlanReader interface (structural, no import cycle: httpapi depends
// on planner, not on db).
func (s *PostgresStore) PlansForDate(ctx context.Context, date time.Time) ([]planner.DeliveryPlan, error) {
	rows, err := s.db.Query(ctx, `
		SELECT dp.id, dp.vehicle_id, v.floor_w_cm, v.floor_d_cm, v.payload_kg,
		       dp.plan_date, dp.departure_at, dp.total_mass_kg, dp.total_volume_cm3, dp.utilization
		FROM delivery_plans dp
		JOIN vehicles v ON v.id = dp.vehicle_id
		WHERE dp.plan_date = $1
		ORDER BY dp.id ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []planner.DeliveryPlan
	var planIDs []int64
	for rows.Next() {
		var p planner.DeliveryPlan
		var planID int64
		if err := rows.Scan(&planID, &p.Vehicle.ID, &p.Vehicle.FloorW, &p.Vehicle.FloorD, &p.Vehicle.PayloadKg,
			&p.Date, &p.Departure, &p.Totals.MassKg, &p.Totals.VolumeCM3, &p.Utilization); err != nil {
			return nil, err
		}
		plans = append(plans, p)
		planIDs = append(planIDs, planID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, planID := range planIDs {
		stopRows, err := s.db.Query(ctx, `SELECT order_id, visit_index, eta, travel_minutes FROM stops WHERE plan_id = $1 ORDER BY visit_index ASC`, planID)
		if err != nil {
			return nil, err
		}
		var stops []planner.Stop
		for stopRows.Next() {
			var st planner.Stop
			if err := stopRows.Scan(&st.OrderID, &st.VisitIndex, &st.ETA, &st.TravelMinutes); err != nil {
				stopRows.Close()
				return nil, err
			}
			stops = append(stops, st)
		}
		stopErr := stopRows.Err()
		stopRows.Close()
		if stopErr != nil {
			return nil, stopErr
		}
		plans[i].Stops = stops
	}

	return plans, nil
}

func (s *PostgresStore) UnplaceableForDate(ctx context.Context, date time.Time) ([]planner.UnplaceableReport, error) {
	rows, err := s.db.Query(ctx, `SELECT order_id, reason FROM unplaceable_reports WHERE plan_date = $1 ORDER BY id ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []planner.UnplaceableReport
	for rows.Next() {
		var r planner.UnplaceableReport
		if err := rows.Scan(&r.OrderID, &r.Reason); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
