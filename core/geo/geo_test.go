package geo

import (
	"testing"
	"time"
)

func testMap() *Map {
	return NewMap(DefaultZones(), 35)
}

func TestDistance_SameZone(t *testing.T) {
	m := testMap()
	d, ok := m.Distance("central", "central")
	if !ok {
		t.Fatal("expected known zone")
	}
	if d != 0 {
		t.Fatalf("same-zone distance should be 0, got %f", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	m := testMap()
	ab, ok := m.Distance("central", "airport")
	if !ok {
		t.Fatal("expected known zones")
	}
	ba, _ := m.Distance("airport", "central")
	if ab != ba {
		t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
	}
	if ab <= 0 || ab > 100 {
		t.Fatalf("implausible distance central-airport: %f km", ab)
	}
}

func TestDistance_UnknownZone(t *testing.T) {
	m := testMap()
	if _, ok := m.Distance("central", "nowhere"); ok {
		t.Fatal("unknown zone must report ok=false")
	}
	if _, ok := m.Distance("nowhere", "nowhere"); ok {
		t.Fatal("unknown same-zone pair must report ok=false")
	}
}

func TestTravelTime(t *testing.T) {
	m := testMap()
	d, _ := m.Distance("central", "north")
	tt, ok := m.TravelTime("central", "north")
	if !ok {
		t.Fatal("expected known zones")
	}
	want := time.Duration(d / 35 * float64(time.Hour))
	if tt != want {
		t.Fatalf("travel time %v, want %v", tt, want)
	}
	if _, ok := m.TravelTime("central", "nowhere"); ok {
		t.Fatal("unknown zone must report ok=false")
	}
}

func TestOrderRoute_Deterministic(t *testing.T) {
	m := testMap()
	stops := []string{"airport", "north", "harbor", "west"}
	first := m.OrderRoute("central", stops)
	second := m.OrderRoute("central", stops)
	if len(first) != len(stops) {
		t.Fatalf("route length %d, want %d", len(first), len(stops))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("route not deterministic: %v vs %v", first, second)
		}
	}
}

func TestOrderRoute_UnknownStopsLast(t *testing.T) {
	m := testMap()
	route := m.OrderRoute("central", []string{"nowhere", "north", "elsewhere"})
	if len(route) != 3 {
		t.Fatalf("route length %d, want 3", len(route))
	}
	if route[0] != "north" {
		t.Fatalf("known stop should come first, got %v", route)
	}
	if route[1] != "nowhere" || route[2] != "elsewhere" {
		t.Fatalf("unknown stops should keep input order at the end, got %v", route)
	}
}

func TestOrderRoute_NearestFirst(t *testing.T) {
	m := testMap()
	// north is far closer to central than airport is.
	route := m.OrderRoute("central", []string{"airport", "north"})
	if route[0] != "north" {
		t.Fatalf("expected nearest stop first, got %v", route)
	}
}
