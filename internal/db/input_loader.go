package db

import (
	"context"
	"time"

	"cementops/planner/internal/core/pallet"
	"cementops/planner/internal/core/planner"
)

// Load assembles a RunContext for date by reading the fleet, catalogue,
// candidate orders, and pallet spec straight off the pool (outside any
// orchestrator transaction — Run opens its own via Store.WithTx).
// Satisfies internal/httpapi's InputLoader interface structurally.
func (s *PostgresStore) Load(ctx context.Context, date time.Time) (planner.RunContext, error) {
	fleet, err := s.LoadFleet(ctx)
	if err != nil {
		return planner.RunContext{}, err
	}
	catalogue, err := s.LoadCatalogue(ctx)
	if err != nil {
		return planner.RunContext{}, err
	}
	orders, err := s.LoadOrders(ctx, date)
	if err != nil {
		return planner.RunContext{}, err
	}
	specDTO, err := s.LoadPalletSpec(ctx)
	if err != nil {
		return planner.RunContext{}, err
	}

	return planner.RunContext{
		Fleet:     fleet,
		Orders:    orders,
		Catalogue: catalogue,
		PalletSpec: pallet.Spec{
			FootprintW:  specDTO.FootprintW,
			FootprintD:  specDTO.FootprintD,
			MaxHeightCM: specDTO.MaxHeightCM,
			MaxMassKg:   specDTO.MaxMassKg,
		},
		Date:       date,
		DepotCoord: &planner.DepotCoord{Lat: s.cfg.DepotLat, Lon: s.cfg.DepotLon},
	}, nil
}
