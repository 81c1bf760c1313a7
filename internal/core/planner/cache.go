package planner

import (
	"sort"

	"cementops/planner/internal/core/geometry"
	"cementops/planner/internal/core/pallet"
)

// packResult flattens built pallets and residue into the cacheable
// PackedBox form.
func packResult(pallets []*pallet.Pallet, residue []pallet.Residue) PalletizeResult {
	var boxes []PackedBox
	for palletIndex, p := range pallets {
		for _, b := range p.Boxes {
			boxes = append(boxes, PackedBox{
				OrderID:     b.OrderID,
				ItemCode:    b.ItemCode,
				PalletIndex: palletIndex,
				W:           b.W, D: b.D, H: b.H,
				MassKg: b.MassKg,
				X:      b.X, Y: b.Y, Z: b.Z,
			})
		}
	}
	for _, r := range residue {
		b := r.Box
		boxes = append(boxes, PackedBox{
			OrderID:       b.OrderID,
			ItemCode:      b.ItemCode,
			PalletIndex:   -1,
			ResidueReason: r.Reason,
			W:             b.W, D: b.D, H: b.H,
			MassKg: b.MassKg,
			X:      b.X, Y: b.Y, Z: b.Z,
		})
	}
	return PalletizeResult{Boxes: boxes}
}

// unpackResult rebuilds the pallet builder's output from a cached
// result without re-running the heuristic. Pallet.spec is left zero
// since nothing downstream of the builder (unitload.FromPallets,
// Pallet.MassKg, Pallet.OrderID) reads it.
func unpackResult(result PalletizeResult) ([]*pallet.Pallet, []pallet.Residue) {
	type key struct {
		orderID     int64
		palletIndex int
	}
	byPallet := map[key]*pallet.Pallet{}
	var order []key
	var residue []pallet.Residue

	for _, pb := range result.Boxes {
		box := geometry.Box{
			W: pb.W, D: pb.D, H: pb.H,
			MassKg:   pb.MassKg,
			OrderID:  pb.OrderID,
			ItemCode: pb.ItemCode,
			X:        pb.X, Y: pb.Y, Z: pb.Z,
		}
		if pb.PalletIndex < 0 {
			residue = append(residue, pallet.Residue{Box: box, Reason: pb.ResidueReason})
			continue
		}
		k := key{orderID: pb.OrderID, palletIndex: pb.PalletIndex}
		p, ok := byPallet[k]
		if !ok {
			p = &pallet.Pallet{}
			byPallet[k] = p
			order = append(order, k)
		}
		p.Boxes = append(p.Boxes, box)
		if top := box.Z + box.H; top > p.CurrentHeight {
			p.CurrentHeight = top
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].orderID != order[j].orderID {
			return order[i].orderID < order[j].orderID
		}
		return order[i].palletIndex < order[j].palletIndex
	})

	pallets := make([]*pallet.Pallet, 0, len(order))
	for _, k := range order {
		pallets = append(pallets, byPallet[k])
	}
	return pallets, residue
}
