package openaq

import (
	"encoding/json"

	"airsense/internal/normalize"
)

// LatestResponse is the /v3/latest envelope. Results are decoded one by one
// so that a single malformed entry does not spoil the batch.
type LatestResponse struct {
	Results []json.RawMessage `json:"results"`
}

// Location and City arrive either as strings or as objects with a name key.
type Location struct {
	Location     normalize.NameField `json:"location"`
	City         normalize.NameField `json:"city"`
	Coordinates  *Coordinates        `json:"coordinates"`
	Measurements []Measurement       `json:"measurements"`
}

type Coordinates struct {
	Latitude  normalize.Number `json:"latitude"`
	Longitude normalize.Number `json:"longitude"`
}

type Measurement struct {
	Parameter   normalize.NameField `json:"parameter"`
	Value       normalize.Number    `json:"value"`
	LastUpdated string              `json:"lastUpdated"`
}
