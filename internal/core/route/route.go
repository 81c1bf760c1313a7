// Package route implements the delivery route sequencer: a
// nearest-neighbour tour over the stops accumulated on a vehicle, with
// per-stop ETAs scheduled from a fixed departure time.
package route

import (
	"math"
	"time"
)

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// firstLegMinutes and subsequentLegMinutes are fixed travel-time
// policy constants (spec.md §4.5/§9): the sequencer orders stops by
// haversine distance but never uses that distance to compute travel
// time.
const (
	firstLegMinutes      = 30
	subsequentLegMinutes = 20
)

// DepartureHour is the local hour at which every plan departs.
const DepartureHour = 8

// Destination is one candidate stop: a shipping order id plus optional
// coordinates.
type Destination struct {
	OrderID int64
	Lat     float64
	Lon     float64
	HasCoords bool
}

// Stop is one visit in the sequenced tour.
type Stop struct {
	OrderID      int64
	VisitIndex   int
	ETA          time.Time
	TravelMinutes int
}

// Sequence orders destinations by nearest-neighbour starting at index 0
// when every destination carries coordinates, degrading to input order
// otherwise, then assigns ETAs from departure (08:00 on planDate).
func Sequence(destinations []Destination, planDate time.Time) []Stop {
	order := nearestNeighbourOrder(destinations)

	departure := time.Date(planDate.Year(), planDate.Month(), planDate.Day(), DepartureHour, 0, 0, 0, planDate.Location())

	stops := make([]Stop, 0, len(order))
	current := departure
	for i, idx := range order {
		travel := subsequentLegMinutes
		if i == 0 {
			travel = firstLegMinutes
		}
		current = current.Add(time.Duration(travel) * time.Minute)
		stops = append(stops, Stop{
			OrderID:       destinations[idx].OrderID,
			VisitIndex:    i + 1,
			ETA:           current,
			TravelMinutes: travel,
		})
	}
	return stops
}

// nearestNeighbourOrder returns the visiting order (as indices into
// destinations) computed by the nearest-neighbour heuristic starting at
// index 0, or the input order unchanged if any destination lacks
// coordinates.
func nearestNeighbourOrder(destinations []Destination) []int {
	n := len(destinations)
	if n == 0 {
		return nil
	}
	for _, d := range destinations {
		if !d.HasCoords {
			identity := make([]int, n)
			for i := range identity {
				identity[i] = i
			}
			return identity
		}
	}

	dist := distanceMatrix(destinations)
	visited := make([]bool, n)
	order := make([]int, 0, n)

	current := 0
	visited[current] = true
	order = append(order, current)

	for len(order) < n {
		nearest := -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if dist[current][i] < best {
				best = dist[current][i]
				nearest = i
			}
		}
		visited[nearest] = true
		order = append(order, nearest)
		current = nearest
	}

	return order
}

func distanceMatrix(destinations []Destination) [][]float64 {
	n := len(destinations)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := haversineKM(destinations[i].Lat, destinations[i].Lon, destinations[j].Lat, destinations[j].Lon)
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
