package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const earthRadiusMeters = 6371e3

// DefaultNearbyRadius is how close a store has to be to show up in a nearby search.
const DefaultNearbyRadius = 200.0

type Location struct {
	Latitude  float64
	Longitude float64
}

func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return NewValidationError("latitude", "must be within [-90, 90]")
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return NewValidationError("longitude", "must be within [-180, 180]")
	}
	return nil
}

// MapsURL is the link form shown to people; it is never stored.
func (l Location) MapsURL() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(l.Latitude, 'f', -1, 64),
		strconv.FormatFloat(l.Longitude, 'f', -1, 64))
}

// ParseLocation accepts either a maps link carrying q=<lat>,<lon> or a bare "<lat>,<lon>" pair.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	pair := s
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return Location{}, NewValidationError("location", "is not a valid link")
		}
		pair = u.Query().Get("q")
	}
	latRaw, lonRaw, ok := strings.Cut(pair, ",")
	if !ok {
		return Location{}, NewValidationError("location", "must contain latitude,longitude")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return Location{}, NewValidationError("latitude", "is not a number")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return Location{}, NewValidationError("longitude", "is not a number")
	}
	loc := Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// DistanceMeters is the haversine great-circle distance between a and b.
func DistanceMeters(a, b Location) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

type locationJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MapsURL   string  `json:"maps_url,omitempty"`
}

// MarshalJSON adds the maps link next to the coordinates.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationJSON{Latitude: l.Latitude, Longitude: l.Longitude, MapsURL: l.MapsURL()})
}

// UnmarshalJSON accepts the structured form or a string in any form ParseLocation takes.
func (l *Location) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		loc, err := ParseLocation(s)
		if err != nil {
			return err
		}
		*l = loc
		return nil
	}
	var raw struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Latitude == nil || raw.Longitude == nil {
		return NewValidationError("location", "must contain latitude and longitude")
	}
	loc := Location{Latitude: *raw.Latitude, Longitude: *raw.Longitude}
	if err := loc.Validate(); err != nil {
		return err
	}
	*l = loc
	return nil
}
