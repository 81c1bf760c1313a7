// Package truckload implements the 2D truck loader: for each region it
// selects vehicles from a descending-payload fleet and floor-packs
// whole shipping-order groups of unit-loads onto them, committing a
// group atomically or deferring it to the next vehicle.
package truckload

import (
	"sort"

	"cementops/planner/internal/core/geometry"
	"cementops/planner/internal/core/unitload"
)

// floorGridCM is the grid step used for 2D floor candidates.
const floorGridCM = 10

// softCapFraction is the running-mass fraction of payload at which the
// loader stops adding groups to the current vehicle and flushes it.
const softCapFraction = 0.8

// Vehicle is fleet master data: a floor of fixed width/depth and a
// payload limit.
type Vehicle struct {
	ID        int64
	FloorW    int
	FloorD    int
	PayloadKg float64
}

// Placement is a unit-load's committed position and rotation on a
// vehicle floor, plus its 1-based load sequence.
type Placement struct {
	UnitLoad     unitload.UnitLoad
	X, Y         int
	Rotation     int
	LoadSequence int
}

// Load is one committed vehicle: the placements on its floor and the
// running mass they represent.
type Load struct {
	Vehicle    Vehicle
	Placements []Placement
	MassKg     float64
}

// Utilization returns the fraction of the vehicle's floor area occupied
// by committed placements. It is a read-only derived metric — it does
// not influence packing decisions.
func (l Load) Utilization() float64 {
	total := float64(l.Vehicle.FloorW * l.Vehicle.FloorD)
	if total == 0 {
		return 0
	}
	var used float64
	for _, p := range l.Placements {
		used += float64(p.UnitLoad.Footprint.W * p.UnitLoad.Footprint.D)
	}
	return used / total
}

// OrderGroup is one shipping order's complete set of unit-loads — the
// atomicity unit the loader either places entirely on one vehicle or
// defers.
type OrderGroup struct {
	OrderID int64
	Loads   []unitload.UnitLoad
}

func (g OrderGroup) massKg() float64 {
	var total float64
	for _, l := range g.Loads {
		total += l.MassKg
	}
	return total
}

// Unplaceable names an order-group that even the largest-payload
// vehicle could not accept (neither footprint nor payload-wise).
type Unplaceable struct {
	OrderID int64
	Reason  string
}

// Result is the outcome of loading one region's order-groups onto the
// fleet: the vehicle loads produced, and any groups that could not be
// placed at all.
type Result struct {
	Loads       []Load
	Unplaceable []Unplaceable
}

// LoadGroups assigns groups to vehicles from fleet (which the caller must
// have pre-sorted by descending payload — LoadGroups does not re-sort it, to
// keep the fleet's deterministic identity-order intact for iteration)
// and returns the resulting vehicle loads.
func LoadGroups(fleet []Vehicle, groups []OrderGroup) Result {
	var result Result
	remaining := append([]OrderGroup(nil), groups...)
	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].OrderID < remaining[j].OrderID })

	if len(fleet) == 0 || len(remaining) == 0 {
		return result
	}

	for len(remaining) > 0 {
		placedOnThisPass := false

		for _, vehicle := range fleet {
			var committed []OrderGroup
			var accumulated []unitload.UnitLoad
			var placements []Placement
			var runningMass float64

			var stillRemaining []OrderGroup
			for _, group := range remaining {
				if runningMass > vehicle.PayloadKg*softCapFraction {
					stillRemaining = append(stillRemaining, group)
					continue
				}
				if runningMass+group.massKg() > vehicle.PayloadKg {
					stillRemaining = append(stillRemaining, group)
					continue
				}

				// Recompute a placement of the full accumulated set,
				// including the candidate group, from scratch: commit
				// only if every accumulated unit-load still fits.
				trial := append(append([]unitload.UnitLoad(nil), accumulated...), group.Loads...)
				trialPlacements, ok := newBottomLeftPacker(vehicle.FloorW, vehicle.FloorD).placeAll(trial)
				if !ok {
					stillRemaining = append(stillRemaining, group)
					continue
				}

				accumulated = trial
				placements = trialPlacements
				committed = append(committed, group)
				runningMass += group.massKg()
			}

			if len(committed) > 0 {
				result.Loads = append(result.Loads, Load{
					Vehicle:    vehicle,
					Placements: renumber(placements),
					MassKg:     runningMass,
				})
				remaining = stillRemaining
				placedOnThisPass = true
				break
			}
		}

		if !placedOnThisPass {
			break
		}
	}

	if len(remaining) == 0 {
		return result
	}

	// Force the largest-payload vehicle to accept a single group as a
	// last resort, repeatedly, until nothing more can be forced. This
	// mirrors the original's unconditional forced assignment, but adds
	// the feasibility check spec.md §7 requires before reporting
	// Unplaceable.
	largest := fleet[0]
	for _, group := range remaining {
		placements, ok := forcePlace(largest, group.Loads)
		if !ok {
			result.Unplaceable = append(result.Unplaceable, Unplaceable{
				OrderID: group.OrderID,
				Reason:  "order-group exceeds the largest vehicle's payload or floor",
			})
			continue
		}
		result.Loads = append(result.Loads, Load{
			Vehicle:    largest,
			Placements: renumber(placements),
			MassKg:     group.massKg(),
		})
	}

	return result
}

func renumber(placements []Placement) []Placement {
	for i := range placements {
		placements[i].LoadSequence = i + 1
	}
	return placements
}

// forcePlace is the last-resort escape: place the group's first
// unit-load at (0,0), subsequent ones at deterministic offsets, failing
// only if the group truly cannot fit the vehicle (footprint or mass).
func forcePlace(v Vehicle, loads []unitload.UnitLoad) ([]Placement, bool) {
	var mass float64
	for _, l := range loads {
		mass += l.MassKg
	}
	if mass > v.PayloadKg {
		return nil, false
	}

	packer := newBottomLeftPacker(v.FloorW, v.FloorD)
	if placements, ok := packer.placeAll(loads); ok {
		return placements, true
	}

	// Deterministic offsets: stack along x, wrapping rows when the
	// vehicle floor is exhausted. Still must fit in the floor bounds.
	var placements []Placement
	x, y, rowDepth := 0, 0, 0
	for _, l := range loads {
		w, d := l.Footprint.W, l.Footprint.D
		if w > v.FloorW || d > v.FloorD {
			return nil, false
		}
		if x+w > v.FloorW {
			x = 0
			y += rowDepth
			rowDepth = 0
		}
		if y+d > v.FloorD {
			return nil, false
		}
		placements = append(placements, Placement{UnitLoad: l, X: x, Y: y, Rotation: 0})
		x += w
		if d > rowDepth {
			rowDepth = d
		}
	}
	return placements, true
}

// bottomLeftPacker implements the Bottom-Left-Fill variant: for each
// unit-load, try both orientations on a 10cm grid, iterating y
// ascending then x ascending, taking the first feasible spot.
type bottomLeftPacker struct {
	floorW, floorD int
	placed         []geometry.Position
	footprints     []geometry.Footprint
}

func newBottomLeftPacker(floorW, floorD int) *bottomLeftPacker {
	return &bottomLeftPacker{floorW: floorW, floorD: floorD}
}

// placeAll attempts to place every load onto a fresh floor, returning
// false if any load has no feasible position in either orientation.
func (p *bottomLeftPacker) placeAll(loads []unitload.UnitLoad) ([]Placement, bool) {
	sorted := append([]unitload.UnitLoad(nil), loads...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Footprint.Area() > sorted[j].Footprint.Area()
	})

	var out []Placement
	for _, l := range sorted {
		pos, ok := p.place(l.Footprint.W, l.Footprint.D)
		if !ok {
			return nil, false
		}
		out = append(out, Placement{UnitLoad: l, X: pos.X, Y: pos.Y, Rotation: pos.Rotation})
	}
	return out, true
}

func (p *bottomLeftPacker) place(w, d int) (geometry.Position, bool) {
	orientations := [][3]int{{w, d, 0}, {d, w, 90}}
	for _, o := range orientations {
		ow, od, rot := o[0], o[1], o[2]
		if ow > p.floorW || od > p.floorD {
			continue
		}
		for y := 0; y+od <= p.floorD; y += floorGridCM {
			for x := 0; x+ow <= p.floorW; x += floorGridCM {
				if p.fits(x, y, ow, od) {
					p.commit(x, y, ow, od, rot)
					return geometry.Position{X: x, Y: y, Rotation: rot}, true
				}
			}
		}
	}
	return geometry.Position{}, false
}

func (p *bottomLeftPacker) fits(x, y, w, d int) bool {
	for i, pos := range p.placed {
		fp := p.footprints[i]
		if geometry.Overlap2D(x, y, w, d, pos.X, pos.Y, fp.W, fp.D) {
			return false
		}
	}
	return true
}

func (p *bottomLeftPacker) commit(x, y, w, d, rot int) {
	p.placed = append(p.placed, geometry.Position{X: x, Y: y, Rotation: rot})
	p.footprints = append(p.footprints, geometry.Footprint{W: w, D: d})
}
