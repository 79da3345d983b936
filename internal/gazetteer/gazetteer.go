// Package gazetteer is a static table of well-known places with a
// hand-picked map view for each. It is the zero-network half of
// location resolution: lookups are pure and never fail.
package gazetteer

import (
	"strings"

	"wander/pkg/geo"
)

type Entry struct {
	Name   string
	Center geo.LngLat
	Zoom   float64
}

// Kuwait districts first, then major world cities. Order matters: Lookup
// scans in declaration order and the first hit wins.
var entries = []Entry{
	{"kuwait city", geo.LngLat{Lon: 47.9774, Lat: 29.3759}, 11},
	{"salmiya", geo.LngLat{Lon: 48.0762, Lat: 29.3339}, 13},
	{"hawally", geo.LngLat{Lon: 48.0284, Lat: 29.3328}, 13},
	{"farwaniya", geo.LngLat{Lon: 47.9781, Lat: 29.2775}, 13},
	{"ahmadi", geo.LngLat{Lon: 48.0753, Lat: 29.0769}, 13},
	{"jahra", geo.LngLat{Lon: 47.6619, Lat: 29.3472}, 12},
	{"fahaheel", geo.LngLat{Lon: 48.1302, Lat: 29.0824}, 13},
	{"mahboula", geo.LngLat{Lon: 48.1300, Lat: 29.1446}, 13},
	{"mangaf", geo.LngLat{Lon: 48.1260, Lat: 29.0996}, 13},
	{"new york", geo.LngLat{Lon: -74.006, Lat: 40.7128}, 11},
	{"london", geo.LngLat{Lon: -0.1278, Lat: 51.5074}, 11},
	{"paris", geo.LngLat{Lon: 2.3522, Lat: 48.8566}, 11},
	{"tokyo", geo.LngLat{Lon: 139.6917, Lat: 35.6895}, 10},
	{"sydney", geo.LngLat{Lon: 151.2093, Lat: -33.8688}, 11},
	{"los angeles", geo.LngLat{Lon: -118.2437, Lat: 34.0522}, 10},
	{"chicago", geo.LngLat{Lon: -87.6298, Lat: 41.8781}, 10},
	{"berlin", geo.LngLat{Lon: 13.4050, Lat: 52.5200}, 11},
	{"rome", geo.LngLat{Lon: 12.4964, Lat: 41.9028}, 11},
	{"madrid", geo.LngLat{Lon: -3.7038, Lat: 40.4168}, 11},
}

// Lookup returns the first entry whose name occurs as a substring of the
// already lower-cased input. Short names will also match inside longer
// unrelated words ("rome" in "romance"); a known limitation of the table.
func Lookup(normalized string) (Entry, bool) {
	for _, e := range entries {
		if strings.Contains(normalized, e.Name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns the table in declaration order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
