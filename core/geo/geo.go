// Package geo estimates distances and travel times between named service
// zones. All operations are pure and safe for concurrent use. An unknown zone
// is a tolerated degraded case, reported through the boolean return rather
// than an error.
package geo

import (
	"math"
	"time"
)

const (
	earthRadiusKm = 6371.0

	// DefaultAvgSpeedKmh is the assumed average travel speed for converting
	// distance to travel time.
	DefaultAvgSpeedKmh = 35.0
)

// Map holds a static zone table and the speed assumption for travel times.
type Map struct {
	zones       map[string]Zone
	avgSpeedKmh float64
}

// NewMap builds a Map from the given zone table. A non-positive speed falls
// back to DefaultAvgSpeedKmh.
func NewMap(zones []Zone, avgSpeedKmh float64) *Map {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = DefaultAvgSpeedKmh
	}
	m := &Map{zones: make(map[string]Zone, len(zones)), avgSpeedKmh: avgSpeedKmh}
	for _, z := range zones {
		m.zones[z.ID] = z
	}
	return m
}

// Zone returns the zone record for the given id.
func (m *Map) Zone(id string) (Zone, bool) {
	z, ok := m.zones[id]
	return z, ok
}

// Distance returns the estimated distance in kilometers between two zones.
// Same-zone pairs return zero. The boolean is false when either zone is
// unknown.
func (m *Map) Distance(from, to string) (float64, bool) {
	if from == to {
		if _, ok := m.zones[from]; ok {
			return 0, true
		}
		return 0, false
	}
	a, okA := m.zones[from]
	b, okB := m.zones[to]
	if !okA || !okB {
		return 0, false
	}
	return haversineKm(a.Lat, a.Lon, b.Lat, b.Lon), true
}

// TravelTime returns the estimated travel time between two zones at the
// configured average speed.
func (m *Map) TravelTime(from, to string) (time.Duration, bool) {
	d, ok := m.Distance(from, to)
	if !ok {
		return 0, false
	}
	hours := d / m.avgSpeedKmh
	return time.Duration(hours * float64(time.Hour)), true
}

// OrderRoute orders the destination zones into an approximate short traveling
// path starting from home, using a nearest-neighbor walk. Unknown zones are
// appended at the end in their original order. Ties are broken by zone id so
// the result is deterministic.
func (m *Map) OrderRoute(home string, stops []string) []string {
	var known []string
	var unknown []string
	for _, s := range stops {
		if _, ok := m.zones[s]; ok {
			known = append(known, s)
		} else {
			unknown = append(unknown, s)
		}
	}

	route := make([]string, 0, len(stops))
	current := home
	if _, ok := m.zones[current]; !ok && len(known) > 0 {
		// Unknown starting point: begin at the first known stop.
		current = known[0]
		route = append(route, current)
		known = append(known[:0], known[1:]...)
	}
	for len(known) > 0 {
		bestIdx := 0
		bestDist := math.MaxFloat64
		for i, s := range known {
			d, _ := m.Distance(current, s)
			if d < bestDist || (d == bestDist && s < known[bestIdx]) {
				bestDist = d
				bestIdx = i
			}
		}
		current = known[bestIdx]
		route = append(route, current)
		known = append(known[:bestIdx], known[bestIdx+1:]...)
	}
	return append(route, unknown...)
}

// haversineKm computes the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)
	lat1R := degToRad(lat1)
	lat2R := degToRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1R)*math.Cos(lat2R)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
