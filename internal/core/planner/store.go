package planner

import (
	"context"
	"time"
)

// Store is the external persistence contract the orchestrator depends
// on (spec.md §6 "Persisted output", §4.6, §5). internal/db implements
// this over pgx; the core never imports pgx directly.
//
// Run executes entirely within one call to WithTx: the caller is
// expected to open a transaction, pass a Store bound to it, and commit
// only if Run returns a nil error. An external advisory lock keyed on
// the plan date must already be held by the time WithTx's callback
// runs — serialising same-date runs is the caller's job, not the
// core's (§5).
type Store interface {
	// WithTx runs fn inside one transaction, committing on a nil
	// return and rolling back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// LoadFleet returns the fleet pre-sorted by descending payload.
	LoadFleet(ctx context.Context) ([]Vehicle, error)

	// LoadCatalogue returns the full item catalogue.
	LoadCatalogue(ctx context.Context) (map[string]Item, error)

	// LoadOrders returns every shipping order targeting date whose
	// unit-loads are not yet Allocated or Used.
	LoadOrders(ctx context.Context, date time.Time) ([]ShippingOrder, error)

	// LoadPalletSpec returns the singleton pallet configuration.
	LoadPalletSpec(ctx context.Context) (PalletSpecDTO, error)

	// LoadPalletizeResult returns a previously-persisted palletize
	// result for date, if one exists (supplemented feature: an
	// optional fast path, never required for correctness — the
	// orchestrator falls back to recomputing from boxes when absent).
	LoadPalletizeResult(ctx context.Context, date time.Time) (PalletizeResult, bool, error)
	// SavePalletizeResult persists the palletize result computed for
	// date so a later run can skip recomputation.
	SavePalletizeResult(ctx context.Context, date time.Time, result PalletizeResult) error

	// SavePlan persists one DeliveryPlan along with its stops and
	// placements, and marks every one of its unit-loads Used.
	SavePlan(ctx context.Context, plan DeliveryPlan) error

	// MarkUnplaceable records an order-group that could not be loaded
	// onto any vehicle for date.
	MarkUnplaceable(ctx context.Context, date time.Time, report UnplaceableReport) error
}

// PalletSpecDTO mirrors pallet.Spec at the storage boundary so
// internal/db need not import internal/core/pallet; the orchestrator
// converts it to pallet.Spec itself.
type PalletSpecDTO struct {
	FootprintW  int
	FootprintD  int
	MaxHeightCM int
	MaxMassKg   float64
}

// PackedBox is one already-placed box, enough to reconstruct a
// pallet.Pallet (or residue entry) without re-running the builder.
// PalletIndex is the box's pallet position in the builder's output list
// (-1 for residue); ResidueReason is non-empty for boxes the builder
// refused rather than placed.
type PackedBox struct {
	OrderID       int64
	ItemCode      string
	PalletIndex   int
	ResidueReason string
	W, D, H       int
	MassKg        float64
	X, Y, Z       int
}

// PalletizeResult is the cached output of the pallet-builder stage for
// one date (original's `_get_or_create_palletize_result`).
type PalletizeResult struct {
	Boxes []PackedBox
}
