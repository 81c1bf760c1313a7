// Package unitload lifts the pallet builder's output — built pallets
// plus residual loose boxes — into a single uniform sequence of
// UnitLoad records that the truck loader can place without caring
// whether a load is a real pallet or a lone box.
package unitload

import (
	"cementops/planner/internal/core/geometry"
	"cementops/planner/internal/core/pallet"
)

// Kind distinguishes a real, built pallet from a virtual one-box load.
type Kind int

const (
	// Real wraps a *pallet.Pallet built by the pallet builder.
	Real Kind = iota
	// Virtual wraps a single loose geometry.Box.
	Virtual
)

// UnitLoad is the tagged variant UnitLoad = Real(Pallet) | Virtual(Box).
// Exactly one of Pallet/Box is populated, matching Kind — illegal
// combinations (virtual with a pallet, real with a loose box) are
// unrepresentable by construction since both fields are unexported and
// only set by the constructors below.
type UnitLoad struct {
	kind   Kind
	pallet *pallet.Pallet
	box    geometry.Box

	Footprint geometry.Footprint
	HeightCM  int
	MassKg    float64
	OrderIDs  map[int64]bool
}

// Kind reports whether this load wraps a real pallet or a single box.
func (u UnitLoad) Kind() Kind { return u.kind }

// Pallet returns the wrapped pallet. Only valid when Kind() == Real.
func (u UnitLoad) Pallet() *pallet.Pallet { return u.pallet }

// Box returns the wrapped box. Only valid when Kind() == Virtual.
func (u UnitLoad) Box() geometry.Box { return u.box }

// HasOrder reports whether orderID contributes to this unit load.
func (u UnitLoad) HasOrder(orderID int64) bool { return u.OrderIDs[orderID] }

// FromPallets converts built pallets and builder residue into unit
// loads: one Real load per pallet (footprint = pallet spec footprint,
// height = the pallet's current height), one Virtual load per residue
// box (footprint/height = the box's own dimensions).
func FromPallets(spec pallet.Spec, pallets []*pallet.Pallet, residue []pallet.Residue) []UnitLoad {
	loads := make([]UnitLoad, 0, len(pallets)+len(residue))

	for _, p := range pallets {
		loads = append(loads, UnitLoad{
			kind:      Real,
			pallet:    p,
			Footprint: spec.Footprint(),
			HeightCM:  p.CurrentHeight,
			MassKg:    p.MassKg(),
			OrderIDs:  map[int64]bool{p.OrderID(): true},
		})
	}

	for _, r := range residue {
		b := r.Box
		loads = append(loads, UnitLoad{
			kind:      Virtual,
			box:       b,
			Footprint: geometry.Footprint{W: b.W, D: b.D},
			HeightCM:  b.H,
			MassKg:    b.MassKg,
			OrderIDs:  map[int64]bool{b.OrderID: true},
		})
	}

	return loads
}
