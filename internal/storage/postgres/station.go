package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"airsense/internal/domain"
)

const stationColumns = `id, city_id, name, code, latitude, longitude, is_active, data_source, created_at`

type StationStore struct {
	db *sqlx.DB
}

func NewStationStore(db *sqlx.DB) *StationStore {
	return &StationStore{db: db}
}

// GetOrCreate inserts station unless its code is taken. Attributes of an
// existing station are never rewritten.
func (s *StationStore) GetOrCreate(ctx context.Context, station *domain.Station) (*domain.Station, bool, error) {
	ex := GetExecutor(ctx, s.db)

	query := `
		INSERT INTO stations (city_id, name, code, latitude, longitude, is_active, data_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING
		RETURNING ` + stationColumns

	var out domain.Station
	err := sqlx.GetContext(ctx, ex, &out, query,
		station.CityID,
		station.Name,
		station.Code,
		station.Latitude,
		station.Longitude,
		station.IsActive,
		station.DataSource,
	)
	if err == nil {
		return &out, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	err = sqlx.GetContext(ctx, ex, &out, `SELECT `+stationColumns+` FROM stations WHERE code = $1`, station.Code)
	if err != nil {
		return nil, false, err
	}
	return &out, false, nil
}
