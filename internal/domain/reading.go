package domain

import (
	"encoding/json"
	"time"
)

// Pollutant parameter names as reported by upstream telemetry.
const (
	PM25 = "pm25"
	PM10 = "pm10"
	NO2  = "no2"
	SO2  = "so2"
	O3   = "o3"
	CO   = "co"
	NH3  = "nh3"
)

// Reading is unique per (StationID, ObservedAt).
type Reading struct {
	ID         int64           `db:"id" json:"id"`
	StationID  int64           `db:"station_id" json:"station_id"`
	CityID     int64           `db:"city_id" json:"city_id"`
	ObservedAt time.Time       `db:"observed_at" json:"observed_at"`
	AQI        *int            `db:"aqi" json:"aqi"`
	PM25       *float64        `db:"pm25" json:"pm25"`
	PM10       *float64        `db:"pm10" json:"pm10"`
	NO2        *float64        `db:"no2" json:"no2"`
	SO2        *float64        `db:"so2" json:"so2"`
	O3         *float64        `db:"o3" json:"o3"`
	CO         *float64        `db:"co" json:"co"`
	NH3        *float64        `db:"nh3" json:"nh3"`
	Raw        json.RawMessage `db:"raw_data" json:"-"`
}

// ReadingRecord is the canonical telemetry record produced by a source adapter.
type ReadingRecord struct {
	Source       string
	DataSource   string
	StationCode  string
	StationName  string
	LocationName string
	CityName     string
	Country      string
	Latitude     *float64
	Longitude    *float64
	ObservedAt   time.Time
	AQI          *int
	Measurements map[string]float64
	Raw          json.RawMessage
}

// Measurement returns a pointer to the named pollutant value, nil when absent.
func (r ReadingRecord) Measurement(param string) *float64 {
	v, ok := r.Measurements[param]
	if !ok {
		return nil
	}
	return &v
}

// LiveReading is the latest reading of a city, as listed on the live board.
type LiveReading struct {
	CityID     int64     `db:"city_id" json:"city_id"`
	CityName   string    `db:"city_name" json:"city"`
	AQI        *int      `db:"aqi" json:"aqi"`
	PM25       *float64  `db:"pm25" json:"pm25"`
	PM10       *float64  `db:"pm10" json:"pm10"`
	ObservedAt time.Time `db:"observed_at" json:"observed_at"`
}
