package models

import "fmt"

type GeocodeStatus int

const (
	GeocodeFound GeocodeStatus = iota
	GeocodeNotFound
	// GeocodeProviderError means the provider failed, as opposed to answering with no match.
	GeocodeProviderError
	// GeocodeNotReady is returned while the provider client is still initializing.
	GeocodeNotReady
)

func (s GeocodeStatus) String() string {
	switch s {
	case GeocodeFound:
		return "found"
	case GeocodeNotFound:
		return "not_found"
	case GeocodeProviderError:
		return "provider_error"
	case GeocodeNotReady:
		return "not_ready"
	default:
		return fmt.Sprintf("GeocodeStatus(%d)", int(s))
	}
}

func (s GeocodeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// GeocodeResult is shared by forward and reverse lookups.
type GeocodeResult struct {
	Status           GeocodeStatus `json:"status"`
	Latitude         float64       `json:"latitude,omitempty"`
	Longitude        float64       `json:"longitude,omitempty"`
	FormattedAddress string        `json:"formattedAddress,omitempty"`
	Message          string        `json:"message,omitempty"`
}

func (r GeocodeResult) Found() bool {
	return r.Status == GeocodeFound
}

func (r GeocodeResult) Location() Location {
	return Location{Lat: r.Latitude, Lng: r.Longitude, Address: r.FormattedAddress}
}

// Location is the map selection: a coordinate pair and its readable address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// DefaultLocation centers the map on São Paulo.
var DefaultLocation = Location{Lat: -23.5505, Lng: -46.6333}
