package route_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cementops/planner/internal/core/route"
)

func TestSequenceSingleStop(t *testing.T) {
	dests := []route.Destination{{OrderID: 1, Lat: 35.6, Lon: 139.7, HasCoords: true}}
	planDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	stops := route.Sequence(dests, planDate)
	require.Len(t, stops, 1)
	require.Equal(t, int64(1), stops[0].OrderID)
	require.Equal(t, 1, stops[0].VisitIndex)
	require.Equal(t, 30, stops[0].TravelMinutes)
	require.Equal(t, time.Date(2026, 8, 1, 8, 30, 0, 0, time.UTC), stops[0].ETA)
}

func TestSequenceNearestNeighbourOrder(t *testing.T) {
	// Three points on a line: A=0, B=10, C=1 (arbitrary degrees units
	// standing in for distance). Starting at A, nearest-neighbour
	// should visit C (closer) before B.
	dests := []route.Destination{
		{OrderID: 1, Lat: 0, Lon: 0, HasCoords: true},
		{OrderID: 2, Lat: 0, Lon: 10, HasCoords: true},
		{OrderID: 3, Lat: 0, Lon: 1, HasCoords: true},
	}
	planDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	stops := route.Sequence(dests, planDate)
	require.Len(t, stops, 3)
	require.Equal(t, []int64{1, 3, 2}, []int64{stops[0].OrderID, stops[1].OrderID, stops[2].OrderID})
}

func TestSequenceDegradesToInputOrderWithoutCoords(t *testing.T) {
	dests := []route.Destination{
		{OrderID: 5, Lat: 0, Lon: 0, HasCoords: true},
		{OrderID: 6, Lat: 0, Lon: 0, HasCoords: false},
		{OrderID: 7, Lat: 0, Lon: 0, HasCoords: true},
	}
	planDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	stops := route.Sequence(dests, planDate)
	require.Equal(t, []int64{5, 6, 7}, []int64{stops[0].OrderID, stops[1].OrderID, stops[2].OrderID})
}

func TestSequenceETAsIncreaseMonotonically(t *testing.T) {
	dests := []route.Destination{
		{OrderID: 1, Lat: 35.6, Lon: 139.7, HasCoords: true},
		{OrderID: 2, Lat: 35.9, Lon: 139.6, HasCoords: true},
		{OrderID: 3, Lat: 35.4, Lon: 139.8, HasCoords: true},
	}
	planDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	stops := route.Sequence(dests, planDate)
	require.Len(t, stops, 3)
	require.Equal(t, 30, stops[0].TravelMinutes)
	for i := 1; i < len(stops); i++ {
		require.Equal(t, 20, stops[i].TravelMinutes)
		require.True(t, stops[i].ETA.After(stops[i-1].ETA))
		require.Equal(t, i+1, stops[i].VisitIndex)
	}
}

func TestSequenceEmpty(t *testing.T) {
	require.Empty(t, route.Sequence(nil, time.Now()))
}
