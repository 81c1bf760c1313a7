// Package pallet implements the 3D pallet builder: a per-order,
// first-fit-decreasing-by-volume heuristic that stacks boxes on a
// fixed-footprint pallet under height, mass, non-overlap, and ≥70%
// bottom-support constraints.
package pallet

import (
	"sort"

	"cementops/planner/internal/core/geometry"
)

// floorGridCM is the grid step used when enumerating floor and shelf
// candidate positions, in centimeters.
const floorGridCM = 5

// supportRatio is the minimum fraction of a box's bottom face that must
// rest on the top faces of already-placed boxes once z > 0.
const supportRatio = 0.7

// Spec is the singleton pallet configuration for a planning run.
type Spec struct {
	FootprintW int
	FootprintD int
	MaxHeightCM int
	MaxMassKg   float64
}

// Footprint returns the spec's floor footprint.
func (s Spec) Footprint() geometry.Footprint {
	return geometry.Footprint{W: s.FootprintW, D: s.FootprintD}
}

// Pallet is a built unit-load: the boxes it contains (with their
// intra-pallet coordinates already assigned) and its running height;
// MassKg sums the box masses on each call. All boxes belong to the same
// owning order.
type Pallet struct {
	Boxes         []geometry.Box
	CurrentHeight int
	spec          Spec
}

// OrderID returns the single order id every box on this pallet belongs
// to. Build guarantees this is well-defined (per-order isolation).
func (p *Pallet) OrderID() int64 {
	if len(p.Boxes) == 0 {
		return 0
	}
	return p.Boxes[0].OrderID
}

// MassKg returns the sum of the pallet's box masses.
func (p *Pallet) MassKg() float64 {
	var total float64
	for _, b := range p.Boxes {
		total += b.MassKg
	}
	return total
}

// Residue is a box the builder refused to palletise, with the reason.
type Residue struct {
	Box    geometry.Box
	Reason string
}

// Build packs boxes into pallets, grouped per owning order, and returns
// the pallets it managed to build plus the residue it could not place.
// Input order within a partition is stable except for the volume-
// descending sort the spec requires; iteration across order partitions
// follows first-appearance order of OrderID in boxes.
func Build(spec Spec, boxes []geometry.Box) ([]*Pallet, []Residue) {
	var pallets []*Pallet
	var residue []Residue

	groups, order := partitionByOrder(boxes)
	for _, orderID := range order {
		group := groups[orderID]
		sort.SliceStable(group, func(i, j int) bool {
			return volume(group[i]) > volume(group[j])
		})

		var orderPallets []*Pallet
		for _, box := range group {
			if !canPalletize(spec, box) {
				residue = append(residue, Residue{Box: box, Reason: "oversize"})
				continue
			}

			placed := false
			for _, p := range orderPallets {
				if pos, ok := findPosition(spec, p, box); ok {
					box.X, box.Y, box.Z = pos[0], pos[1], pos[2]
					p.Boxes = append(p.Boxes, box)
					if top := box.Z + box.H; top > p.CurrentHeight {
						p.CurrentHeight = top
					}
					placed = true
					break
				}
			}
			if !placed {
				np := &Pallet{spec: spec}
				box.X, box.Y, box.Z = 0, 0, 0
				np.Boxes = append(np.Boxes, box)
				np.CurrentHeight = box.H
				orderPallets = append(orderPallets, np)
			}
		}
		pallets = append(pallets, orderPallets...)
	}

	return pallets, residue
}

func volume(b geometry.Box) int { return b.W * b.D * b.H }

func partitionByOrder(boxes []geometry.Box) (map[int64][]geometry.Box, []int64) {
	groups := map[int64][]geometry.Box{}
	var order []int64
	for _, b := range boxes {
		if _, ok := groups[b.OrderID]; !ok {
			order = append(order, b.OrderID)
		}
		groups[b.OrderID] = append(groups[b.OrderID], b)
	}
	return groups, order
}

// canPalletize is the pre-filter: height must fit under max height, and
// the footprint must fit in either orientation (the rotation the
// pre-filter admits is never actually applied during placement — see
// DESIGN.md open question #1).
func canPalletize(spec Spec, b geometry.Box) bool {
	if b.H > spec.MaxHeightCM {
		return false
	}
	return spec.Footprint().Fits(b.W, b.D)
}

// findPosition enumerates floor and shelf candidates on the 5cm grid
// and returns the lowest-z feasible one, or false if none exists.
func findPosition(spec Spec, p *Pallet, box geometry.Box) ([3]int, bool) {
	if p.MassKg()+box.MassKg > spec.MaxMassKg {
		return [3]int{}, false
	}

	var candidates [][3]int

	for y := 0; y+box.D <= spec.FootprintD; y += floorGridCM {
		for x := 0; x+box.W <= spec.FootprintW; x += floorGridCM {
			if canPlaceAt(spec, p, x, y, 0, box) {
				candidates = append(candidates, [3]int{x, y, 0})
			}
		}
	}

	for _, placed := range p.Boxes {
		topZ := placed.Top()
		if topZ+box.H > spec.MaxHeightCM {
			continue
		}
		yMax := min(placed.Y+placed.D, spec.FootprintD-box.D+1)
		xMax := min(placed.X+placed.W, spec.FootprintW-box.W+1)
		for y := placed.Y; y < yMax; y += floorGridCM {
			for x := placed.X; x < xMax; x += floorGridCM {
				if canPlaceAt(spec, p, x, y, topZ, box) {
					candidates = append(candidates, [3]int{x, y, topZ})
				}
			}
		}
	}

	if len(candidates) == 0 {
		return [3]int{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c[2] < best[2] {
			best = c
		}
	}
	return best, true
}

// canPlaceAt checks bounds, 3D overlap against every placed box, and —
// for z>0 — the ≥70% support rule.
func canPlaceAt(spec Spec, p *Pallet, x, y, z int, box geometry.Box) bool {
	if x+box.W > spec.FootprintW || y+box.D > spec.FootprintD {
		return false
	}
	if z+box.H > spec.MaxHeightCM {
		return false
	}

	for _, existing := range p.Boxes {
		if geometry.Overlap3D(x, y, z, box.W, box.D, box.H,
			existing.X, existing.Y, existing.Z, existing.W, existing.D, existing.H) {
			return false
		}
	}

	if z > 0 {
		supportArea := 0
		for _, existing := range p.Boxes {
			if existing.Top() != z {
				continue
			}
			supportArea += geometry.OverlapArea2D(x, y, box.W, box.D,
				existing.X, existing.Y, existing.W, existing.D)
		}
		if float64(supportArea) < supportRatio*float64(box.W*box.D) {
			return false
		}
	}

	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
