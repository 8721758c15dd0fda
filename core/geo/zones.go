package geo

// Zone is a coarse geographic grouping with approximate coordinates used for
// proximity estimation.
type Zone struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// DefaultZones returns the built-in zone table. Deployments override it via
// configuration; the defaults cover a generic metropolitan service area.
func DefaultZones() []Zone {
	return []Zone{
		{ID: "central", Name: "Central", Lat: 52.5200, Lon: 13.4050},
		{ID: "north", Name: "North", Lat: 52.6050, Lon: 13.4000},
		{ID: "south", Name: "South", Lat: 52.4300, Lon: 13.4200},
		{ID: "east", Name: "East", Lat: 52.5150, Lon: 13.5700},
		{ID: "west", Name: "West", Lat: 52.5100, Lon: 13.2400},
		{ID: "harbor", Name: "Harbor", Lat: 52.4850, Lon: 13.5250},
		{ID: "airport", Name: "Airport", Lat: 52.3667, Lon: 13.5033},
		{ID: "industrial", Name: "Industrial Park", Lat: 52.5750, Lon: 13.3100},
	}
}
