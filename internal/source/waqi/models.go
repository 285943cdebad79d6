package waqi

import (
	"encoding/json"

	"airsense/internal/normalize"
)

// BoundsResponse carries data as raw JSON because error replies put a
// message string there instead of an array.
type BoundsResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Entry is one map marker. Station and city arrive either as plain strings or
// as objects; aqi is a number, a numeric string or "-".
type Entry struct {
	UID     normalize.Number    `json:"uid"`
	Lat     normalize.Number    `json:"lat"`
	Lon     normalize.Number    `json:"lon"`
	AQI     normalize.Number    `json:"aqi"`
	Station normalize.NameField `json:"station"`
	City    normalize.NameField `json:"city"`
}

// Bounds is a lat/lon rectangle.
type Bounds struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}
