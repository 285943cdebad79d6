package domain

import "time"

const DefaultCountry = "India"

type City struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	State        *string   `db:"state" json:"state,omitempty"`
	Country      string    `db:"country" json:"country"`
	Latitude     *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64  `db:"longitude" json:"longitude,omitempty"`
	Population   *int64    `db:"population" json:"population,omitempty"`
	StationCount int       `db:"station_count" json:"station_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Station struct {
	ID         int64     `db:"id" json:"id"`
	CityID     int64     `db:"city_id" json:"city_id"`
	Name       string    `db:"name" json:"name"`
	Code       string    `db:"code" json:"code"`
	Latitude   *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude  *float64  `db:"longitude" json:"longitude,omitempty"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	DataSource string    `db:"data_source" json:"data_source"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
