// Package planner is the orchestrator: it wires the pallet builder, the
// unit-load registry, the region classifier, the truck loader, and the
// route sequencer into one end-to-end run against an external store.
// The package has no dependency on net/http, pgx, or chi — it is the
// pure synchronous core spec.md describes; only internal/db and
// internal/httpapi touch the outside world.
package planner

import (
	"time"

	"cementops/planner/internal/core/geometry"
	"cementops/planner/internal/core/pallet"
	"cementops/planner/internal/core/route"
	"cementops/planner/internal/core/truckload"
)

// Item is catalogue master data: the physical dimensions and mass of
// one item code.
type Item struct {
	ItemCode string
	WidthCM  int
	DepthCM  int
	HeightCM int
	MassKg   float64
}

// OrderLine is one item/quantity pair on a shipping order.
type OrderLine struct {
	ItemCode string
	Quantity int
}

// Destination is a shipping order's delivery address.
type Destination struct {
	Name      string
	Address   string
	Lat       float64
	Lon       float64
	HasCoords bool
}

// ShippingOrder is one order to be planned for a target date.
type ShippingOrder struct {
	ID           int64
	Destination  Destination
	DeadlineDate time.Time
	Lines        []OrderLine
}

// Vehicle is fleet master data: a type alias of the truckload package's
// own Vehicle, so callers of this package need not import truckload.
type Vehicle = truckload.Vehicle

// Stop is one visit on a committed delivery plan.
type Stop struct {
	OrderID       int64
	VisitIndex    int
	ETA           time.Time
	TravelMinutes int
}

// PlanTotals is the aggregate mass/volume rollup over a plan's placed
// unit-loads (original's total_weight/total_volume).
type PlanTotals struct {
	MassKg    float64
	VolumeCM3 int64
}

// DeliveryPlan is one vehicle's committed load and route for the target
// date.
type DeliveryPlan struct {
	RunID       string
	Vehicle     Vehicle
	Date        time.Time
	Departure   time.Time
	Totals      PlanTotals
	Stops       []Stop
	Placements  []truckload.Placement
	Utilization float64
}

// UnplaceableReport names an order-group that could not be loaded onto
// any vehicle, largest included.
type UnplaceableReport struct {
	OrderID int64
	Reason  string
}

// RunContext is everything one planning run needs from its caller: the
// fleet, the candidate orders, the item catalogue, the pallet spec, and
// the target date. DepotCoord is carried for future route-distance
// reporting only — it does not influence the nearest-neighbour tour.
type RunContext struct {
	Fleet      []Vehicle
	Orders     []ShippingOrder
	Catalogue  map[string]Item
	PalletSpec pallet.Spec
	Date       time.Time
	DepotCoord *DepotCoord
}

// DepotCoord is an optional dispatch-origin coordinate.
type DepotCoord struct {
	Lat float64
	Lon float64
}

// RunResult is the outcome of one orchestrator run.
type RunResult struct {
	Plans       []DeliveryPlan
	Unplaceable []UnplaceableReport
}

func boxVolume(b geometry.Box) int64 {
	return int64(b.W) * int64(b.D) * int64(b.H)
}

// routeDestinations builds the route package's Destination slice for
// the given orders, preserving input order.
func routeDestinations(orders []ShippingOrder) []route.Destination {
	out := make([]route.Destination, 0, len(orders))
	for _, o := range orders {
		out = append(out, route.Destination{
			OrderID:   o.ID,
			Lat:       o.Destination.Lat,
			Lon:       o.Destination.Lon,
			HasCoords: o.Destination.HasCoords,
		})
	}
	return out
}
