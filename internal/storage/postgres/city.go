package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"airsense/internal/domain"
)

const cityColumns = `id, name, state, country, latitude, longitude, population, station_count, created_at, updated_at`

type CityStore struct {
	db *sqlx.DB
}

func NewCityStore(db *sqlx.DB) *CityStore {
	return &CityStore{db: db}
}

// GetOrCreate inserts city unless a row with the same name exists, in which
// case the stored row is returned unchanged.
func (s *CityStore) GetOrCreate(ctx context.Context, city *domain.City) (*domain.City, bool, error) {
	ex := GetExecutor(ctx, s.db)

	query := `
		INSERT INTO cities (name, state, country, latitude, longitude, population, station_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING
		RETURNING ` + cityColumns

	var out domain.City
	err := sqlx.GetContext(ctx, ex, &out, query,
		city.Name,
		city.State,
		city.Country,
		city.Latitude,
		city.Longitude,
		city.Population,
		city.StationCount,
	)
	if err == nil {
		return &out, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	err = sqlx.GetContext(ctx, ex, &out, `SELECT `+cityColumns+` FROM cities WHERE name = $1`, city.Name)
	if err != nil {
		return nil, false, err
	}
	return &out, false, nil
}

func (s *CityStore) List(ctx context.Context) ([]domain.City, error) {
	var cities []domain.City
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &cities, `SELECT `+cityColumns+` FROM cities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return cities, nil
}

// GetByID returns nil when the city does not exist.
func (s *CityStore) GetByID(ctx context.Context, id int64) (*domain.City, error) {
	var city domain.City
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &city, `SELECT `+cityColumns+` FROM cities WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &city, nil
}
