package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"airsense/internal/domain"
)

const readingColumns = `id, station_id, city_id, observed_at, aqi, pm25, pm10, no2, so2, o3, co, nh3`

type ReadingStore struct {
	db *sqlx.DB
}

func NewReadingStore(db *sqlx.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

// Upsert writes reading keyed by (station_id, observed_at). On conflict every
// measurement column is overwritten, including with NULL. The returned flag
// is true when a new row was inserted.
func (s *ReadingStore) Upsert(ctx context.Context, reading *domain.Reading) (int64, bool, error) {
	query := `
		INSERT INTO readings (
			station_id, city_id, observed_at, aqi, pm25, pm10, no2, so2, o3, co, nh3, raw_data
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (station_id, observed_at) DO UPDATE SET
			city_id = EXCLUDED.city_id,
			aqi = EXCLUDED.aqi,
			pm25 = EXCLUDED.pm25,
			pm10 = EXCLUDED.pm10,
			no2 = EXCLUDED.no2,
			so2 = EXCLUDED.so2,
			o3 = EXCLUDED.o3,
			co = EXCLUDED.co,
			nh3 = EXCLUDED.nh3,
			raw_data = EXCLUDED.raw_data
		RETURNING id, (xmax = 0) AS created`

	var id int64
	var created bool
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		reading.StationID,
		reading.CityID,
		reading.ObservedAt,
		reading.AQI,
		reading.PM25,
		reading.PM10,
		reading.NO2,
		reading.SO2,
		reading.O3,
		reading.CO,
		reading.NH3,
		jsonArg(reading.Raw),
	).Scan(&id, &created)
	if err != nil {
		return 0, false, err
	}

	return id, created, nil
}

// LatestForCity returns nil when the city has no readings.
func (s *ReadingStore) LatestForCity(ctx context.Context, cityID int64) (*domain.Reading, error) {
	query := `SELECT ` + readingColumns + ` FROM readings WHERE city_id = $1 ORDER BY observed_at DESC, id DESC LIMIT 1`

	var r domain.Reading
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &r, query, cityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Live returns the most recent reading of the first limit cities by name.
// Cities among them without readings are left out.
func (s *ReadingStore) Live(ctx context.Context, limit int) ([]domain.LiveReading, error) {
	query := `
		SELECT c.id AS city_id, c.name AS city_name, r.aqi, r.pm25, r.pm10, r.observed_at
		FROM (SELECT id, name FROM cities ORDER BY name LIMIT $1) c
		JOIN LATERAL (
			SELECT aqi, pm25, pm10, observed_at
			FROM readings
			WHERE city_id = c.id
			ORDER BY observed_at DESC, id DESC
			LIMIT 1
		) r ON true
		ORDER BY c.name`

	var live []domain.LiveReading
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &live, query, limit); err != nil {
		return nil, err
	}
	return live, nil
}

// jsonArg passes raw JSON as text so jsonb columns accept it.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
