// Package geo holds the coordinate type shared by the gazetteer, the
// wire clients, and the map view. Coordinates are always longitude
// first, matching the [lon, lat] array order used on the wire.
package geo

import (
	"encoding/json"
	"fmt"
)

type LngLat struct {
	Lon float64
	Lat float64
}

func (c LngLat) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", c.Lon, c.Lat)
}

// MarshalJSON renders the coordinate as a two-element [lon, lat] array.
func (c LngLat) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lon, c.Lat})
}

func (c *LngLat) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates must be a [lon, lat] pair, got %d elements", len(pair))
	}
	c.Lon, c.Lat = pair[0], pair[1]
	return nil
}
