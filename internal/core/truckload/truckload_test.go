package truckload_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cementops/planner/internal/core/geometry"
	"cementops/planner/internal/core/pallet"
	"cementops/planner/internal/core/truckload"
	"cementops/planner/internal/core/unitload"
)

// virtualLoad builds a single Virtual unit load for orderID with the
// given footprint and mass, via the same FromPallets path the
// orchestrator uses for residue boxes.
func virtualLoad(orderID int64, w, d, h int, mass float64) unitload.UnitLoad {
	spec := pallet.Spec{FootprintW: 1000, FootprintD: 1000, MaxHeightCM: 1000, MaxMassKg: 100000}
	residue := []pallet.Residue{{Box: geometry.Box{W: w, D: d, H: h, MassKg: mass, OrderID: orderID}}}
	return unitload.FromPallets(spec, nil, residue)[0]
}

type TruckloadSuite struct {
	suite.Suite
}

func (s *TruckloadSuite) TestSingleGroupFitsOneVehicle() {
	fleet := []truckload.Vehicle{{ID: 1, FloorW: 200, FloorD: 200, PayloadKg: 1000}}
	groups := []truckload.OrderGroup{
		{OrderID: 1, Loads: []unitload.UnitLoad{virtualLoad(1, 50, 50, 10, 20)}},
	}

	result := truckload.LoadGroups(fleet, groups)
	require.Empty(s.T(), result.Unplaceable)
	require.Len(s.T(), result.Loads, 1)
	require.Len(s.T(), result.Loads[0].Placements, 1)
	require.Equal(s.T(), 1, result.Loads[0].Placements[0].LoadSequence)
	require.Equal(s.T(), 20.0, result.Loads[0].MassKg)
}

func (s *TruckloadSuite) TestSoftCapDefersToASecondTrip() {
	// softCapFraction (0.8) over a 100kg payload caps accumulation at
	// 80kg before a group is allowed to join: group 1 (50kg) and group
	// 2 (40kg) both join (running mass 90 after both, since the cap is
	// only checked before adding), but group 3 (20kg) is deferred
	// because running mass (90) already exceeds the 80kg soft cap.
	fleet := []truckload.Vehicle{{ID: 1, FloorW: 500, FloorD: 500, PayloadKg: 100}}
	groups := []truckload.OrderGroup{
		{OrderID: 1, Loads: []unitload.UnitLoad{virtualLoad(1, 10, 10, 10, 50)}},
		{OrderID: 2, Loads: []unitload.UnitLoad{virtualLoad(2, 10, 10, 10, 40)}},
		{OrderID: 3, Loads: []unitload.UnitLoad{virtualLoad(3, 10, 10, 10, 20)}},
	}

	result := truckload.LoadGroups(fleet, groups)
	require.Empty(s.T(), result.Unplaceable)
	require.Len(s.T(), result.Loads, 2, "group 3 needs a second trip on the same vehicle")
	require.Len(s.T(), result.Loads[0].Placements, 2)
	require.Equal(s.T(), 90.0, result.Loads[0].MassKg)
	require.Len(s.T(), result.Loads[1].Placements, 1)
	require.Equal(s.T(), 20.0, result.Loads[1].MassKg)
}

func (s *TruckloadSuite) TestGroupExceedingLargestVehicleIsUnplaceable() {
	fleet := []truckload.Vehicle{
		{ID: 1, FloorW: 200, FloorD: 200, PayloadKg: 1000},
		{ID: 2, FloorW: 100, FloorD: 100, PayloadKg: 500},
	}
	groups := []truckload.OrderGroup{
		{OrderID: 1, Loads: []unitload.UnitLoad{virtualLoad(1, 50, 50, 10, 5000)}},
	}

	result := truckload.LoadGroups(fleet, groups)
	require.Empty(s.T(), result.Loads)
	require.Len(s.T(), result.Unplaceable, 1)
	require.Equal(s.T(), int64(1), result.Unplaceable[0].OrderID)
}

func (s *TruckloadSuite) TestEmptyInputsProduceEmptyResult() {
	require.Empty(s.T(), truckload.LoadGroups(nil, nil).Loads)
	require.Empty(s.T(), truckload.LoadGroups(nil, nil).Unplaceable)

	fleet := []truckload.Vehicle{{ID: 1, FloorW: 100, FloorD: 100, PayloadKg: 100}}
	require.Empty(s.T(), truckload.LoadGroups(fleet, nil).Loads)
}

func (s *TruckloadSuite) TestUtilizationReflectsFootprintCoverage() {
	fleet := []truckload.Vehicle{{ID: 1, FloorW: 100, FloorD: 100, PayloadKg: 1000}}
	groups := []truckload.OrderGroup{
		{OrderID: 1, Loads: []unitload.UnitLoad{virtualLoad(1, 50, 50, 10, 5)}},
	}
	result := truckload.LoadGroups(fleet, groups)
	require.Len(s.T(), result.Loads, 1)
	require.InDelta(s.T(), 0.25, result.Loads[0].Utilization(), 0.0001)
}

func TestTruckloadSuite(t *testing.T) {
	suite.Run(t, new(TruckloadSuite))
}
