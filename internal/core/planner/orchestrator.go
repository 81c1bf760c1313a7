package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cementops/planner/internal/core/geometry"
	"cementops/planner/internal/core/pallet"
	"cementops/planner/internal/core/region"
	"cementops/planner/internal/core/route"
	"cementops/planner/internal/core/truckload"
	"cementops/planner/internal/core/unitload"
)

// Orchestrator runs the end-to-end pipeline against a Store.
type Orchestrator struct {
	Store Store
}

// Run executes one planning run for rc.Date under a single transaction
// (§4.6, §5): validate, expand order-lines into boxes, pallet builder,
// unit-load registry, region partition, truck loader, route sequencer,
// persist. A non-nil error means no plans were created at all.
func (o *Orchestrator) Run(ctx context.Context, rc RunContext) (RunResult, error) {
	var result RunResult

	err := o.Store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if len(rc.Fleet) == 0 {
			return newNoFleetError()
		}
		if err := validateFleet(rc.Fleet); err != nil {
			return err
		}
		if len(rc.Orders) == 0 {
			result = RunResult{}
			return nil
		}
		if err := validateOrders(rc.Orders); err != nil {
			return err
		}
		boxes, err := expandOrders(rc.Orders, rc.Catalogue)
		if err != nil {
			return err
		}

		pallets, residue, err := o.palletize(ctx, tx, rc, boxes)
		if err != nil {
			return err
		}

		loads := unitload.FromPallets(rc.PalletSpec, pallets, residue)

		plans, unplaceable := planByRegion(rc, loads)

		runID := newRunID()
		for i := range plans {
			plans[i].RunID = runID
			if err := tx.SavePlan(ctx, plans[i]); err != nil {
				return newStorageError("save plan", err)
			}
		}
		for _, u := range unplaceable {
			if err := tx.MarkUnplaceable(ctx, rc.Date, u); err != nil {
				return newStorageError("mark unplaceable", err)
			}
		}

		result = RunResult{Plans: plans, Unplaceable: unplaceable}
		return nil
	})
	if err != nil {
		return RunResult{}, err
	}
	return result, nil
}

// palletize returns the built pallets and residue for rc, preferring a
// previously-cached result for rc.Date and falling back to running the
// builder (supplemented feature: optional fast path, never required
// for correctness).
func (o *Orchestrator) palletize(ctx context.Context, tx Store, rc RunContext, boxes []geometry.Box) ([]*pallet.Pallet, []pallet.Residue, error) {
	cached, ok, err := tx.LoadPalletizeResult(ctx, rc.Date)
	if err != nil {
		return nil, nil, newStorageError("load palletize result", err)
	}
	if ok {
		pallets, residue := unpackResult(cached)
		return pallets, residue, nil
	}

	pallets, residue := pallet.Build(rc.PalletSpec, boxes)
	if err := tx.SavePalletizeResult(ctx, rc.Date, packResult(pallets, residue)); err != nil {
		return nil, nil, newStorageError("save palletize result", err)
	}
	return pallets, residue, nil
}

// validateFleet rejects any vehicle with a non-positive floor
// dimension (§7 InputValidation).
func validateFleet(fleet []truckload.Vehicle) error {
	var offenders []string
	for _, v := range fleet {
		if v.FloorW <= 0 || v.FloorD <= 0 {
			offenders = append(offenders, fmt.Sprintf("vehicle %d", v.ID))
		}
	}
	if len(offenders) > 0 {
		return newInputValidationError("vehicle with non-positive floor dimension", offenders...)
	}
	return nil
}

// validateOrders rejects any order with zero lines (§7
// InputValidation).
func validateOrders(orders []ShippingOrder) error {
	var offenders []string
	for _, ord := range orders {
		if len(ord.Lines) == 0 {
			offenders = append(offenders, fmt.Sprintf("order %d", ord.ID))
		}
	}
	if len(offenders) > 0 {
		return newInputValidationError("order with zero lines", offenders...)
	}
	return nil
}

// expandOrders turns every order line into individual boxes, rejecting
// the whole run if any referenced item is missing a dimension from the
// catalogue (§6, §7 InputValidation).
func expandOrders(orders []ShippingOrder, catalogue map[string]Item) ([]geometry.Box, error) {
	var offenders []string
	seen := map[string]bool{}
	for _, ord := range orders {
		for _, line := range ord.Lines {
			if seen[line.ItemCode] {
				continue
			}
			item, ok := catalogue[line.ItemCode]
			if !ok || item.WidthCM <= 0 || item.DepthCM <= 0 || item.HeightCM <= 0 {
				offenders = append(offenders, line.ItemCode)
				seen[line.ItemCode] = true
			}
		}
	}
	if len(offenders) > 0 {
		return nil, newInputValidationError("item missing dimensions in catalogue", offenders...)
	}

	var boxes []geometry.Box
	for _, ord := range orders {
		for _, line := range ord.Lines {
			item := catalogue[line.ItemCode]
			for i := 0; i < line.Quantity; i++ {
				boxes = append(boxes, geometry.Box{
					W: item.WidthCM, D: item.DepthCM, H: item.HeightCM,
					MassKg:   item.MassKg,
					OrderID:  ord.ID,
					ItemCode: item.ItemCode,
				})
			}
		}
	}
	return boxes, nil
}

// planByRegion partitions orders by region, feeds each region's
// filtered unit-loads to the truck loader, then sequences a route for
// every resulting vehicle load.
func planByRegion(rc RunContext, loads []unitload.UnitLoad) ([]DeliveryPlan, []UnplaceableReport) {
	ordersByID := make(map[int64]ShippingOrder, len(rc.Orders))
	for _, ord := range rc.Orders {
		ordersByID[ord.ID] = ord
	}

	regionOrders := map[region.Label][]int64{}
	for _, ord := range rc.Orders {
		label := region.Classify(ord.Destination.Address)
		regionOrders[label] = append(regionOrders[label], ord.ID)
	}

	var labels []region.Label
	for label := range regionOrders {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	var plans []DeliveryPlan
	var unplaceable []UnplaceableReport

	for _, label := range labels {
		orderIDs := map[int64]bool{}
		for _, id := range regionOrders[label] {
			orderIDs[id] = true
		}

		groups := groupLoadsByOrder(loads, orderIDs)
		res := truckload.LoadGroups(rc.Fleet, groups)

		for _, u := range res.Unplaceable {
			unplaceable = append(unplaceable, UnplaceableReport{OrderID: u.OrderID, Reason: u.Reason})
		}

		for _, load := range res.Loads {
			plans = append(plans, buildPlan(rc, ordersByID, load))
		}
	}

	return plans, unplaceable
}

// groupLoadsByOrder selects unit-loads whose contributing-order set
// intersects orderIDs and groups them by owning order, sorted by order
// id ascending (the deterministic iteration order the loader requires).
func groupLoadsByOrder(loads []unitload.UnitLoad, orderIDs map[int64]bool) []truckload.OrderGroup {
	byOrder := map[int64][]unitload.UnitLoad{}
	for _, u := range loads {
		for orderID := range u.OrderIDs {
			if orderIDs[orderID] {
				byOrder[orderID] = append(byOrder[orderID], u)
			}
		}
	}

	var ids []int64
	for id := range byOrder {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	groups := make([]truckload.OrderGroup, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, truckload.OrderGroup{OrderID: id, Loads: byOrder[id]})
	}
	return groups
}

// buildPlan assembles the DeliveryPlan for one committed vehicle load:
// totals, and the route sequenced over its distinct destinations.
func buildPlan(rc RunContext, ordersByID map[int64]ShippingOrder, load truckload.Load) DeliveryPlan {
	var totals PlanTotals
	seenOrders := map[int64]bool{}
	var destinationOrders []ShippingOrder

	for _, p := range load.Placements {
		totals.MassKg += p.UnitLoad.MassKg
		totals.VolumeCM3 += unitLoadVolume(p.UnitLoad)
		for orderID := range p.UnitLoad.OrderIDs {
			if seenOrders[orderID] {
				continue
			}
			seenOrders[orderID] = true
			if ord, ok := ordersByID[orderID]; ok {
				destinationOrders = append(destinationOrders, ord)
			}
		}
	}
	sort.Slice(destinationOrders, func(i, j int) bool { return destinationOrders[i].ID < destinationOrders[j].ID })

	stops := route.Sequence(routeDestinations(destinationOrders), rc.Date)
	planStops := make([]Stop, 0, len(stops))
	for _, s := range stops {
		planStops = append(planStops, Stop{
			OrderID:       s.OrderID,
			VisitIndex:    s.VisitIndex,
			ETA:           s.ETA,
			TravelMinutes: s.TravelMinutes,
		})
	}

	departure := time.Date(rc.Date.Year(), rc.Date.Month(), rc.Date.Day(), route.DepartureHour, 0, 0, 0, rc.Date.Location())

	return DeliveryPlan{
		Vehicle:     load.Vehicle,
		Date:        rc.Date,
		Departure:   departure,
		Totals:      totals,
		Stops:       planStops,
		Placements:  load.Placements,
		Utilization: load.Utilization(),
	}
}

// unitLoadVolume returns the sum of constituent box volumes for a unit
// load, regardless of whether it wraps a pallet or a single box.
func unitLoadVolume(u unitload.UnitLoad) int64 {
	if u.Kind() == unitload.Virtual {
		return boxVolume(u.Box())
	}
	var total int64
	for _, b := range u.Pallet().Boxes {
		total += boxVolume(b)
	}
	return total
}
