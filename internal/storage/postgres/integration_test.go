//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"airsense/internal/domain"
	"airsense/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(filepath.Join(migrationsPath, "001_init.up.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "TRUNCATE readings, stations, cities, products, articles, sync_state RESTART IDENTITY CASCADE")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) seedStation(code string) (*domain.City, *domain.Station) {
	city, _, err := NewCityStore(s.db).GetOrCreate(s.ctx, &domain.City{Name: "Delhi", Country: domain.DefaultCountry, StationCount: 1})
	s.Require().NoError(err)

	station, _, err := NewStationStore(s.db).GetOrCreate(s.ctx, &domain.Station{
		CityID:     city.ID,
		Name:       "Anand Vihar",
		Code:       code,
		IsActive:   true,
		DataSource: "openaq",
	})
	s.Require().NoError(err)
	return city, station
}

func (s *PostgresIntegrationSuite) TestCityStore_GetOrCreate() {
	store := NewCityStore(s.db)

	first, created, err := store.GetOrCreate(s.ctx, &domain.City{
		Name:         "Delhi",
		Country:      domain.DefaultCountry,
		Latitude:     utils.Ptr(28.6),
		StationCount: 1,
	})
	s.NoError(err)
	s.True(created)
	s.Greater(first.ID, int64(0))

	second, created, err := store.GetOrCreate(s.ctx, &domain.City{Name: "Delhi", Country: "Elsewhere", StationCount: 1})
	s.NoError(err)
	s.False(created)
	s.Equal(first.ID, second.ID)
	s.Equal(domain.DefaultCountry, second.Country)
	s.InDelta(28.6, *second.Latitude, 1e-9)

	got, err := store.GetByID(s.ctx, first.ID)
	s.NoError(err)
	s.Equal("Delhi", got.Name)

	missing, err := store.GetByID(s.ctx, 9999)
	s.NoError(err)
	s.Nil(missing)
}

func (s *PostgresIntegrationSuite) TestCityStore_ListOrderedByName() {
	store := NewCityStore(s.db)
	for _, name := range []string{"Mumbai", "Agra", "Kolkata"} {
		_, _, err := store.GetOrCreate(s.ctx, &domain.City{Name: name, Country: domain.DefaultCountry, StationCount: 1})
		s.Require().NoError(err)
	}

	cities, err := store.List(s.ctx)
	s.NoError(err)
	s.Require().Len(cities, 3)
	s.Equal("Agra", cities[0].Name)
	s.Equal("Kolkata", cities[1].Name)
	s.Equal("Mumbai", cities[2].Name)
}

func (s *PostgresIntegrationSuite) TestStationStore_FrozenOnCreate() {
	city, station := s.seedStation("Anand_Vihar")

	again, created, err := NewStationStore(s.db).GetOrCreate(s.ctx, &domain.Station{
		CityID:     city.ID,
		Name:       "Renamed",
		Code:       "Anand_Vihar",
		IsActive:   false,
		DataSource: "waqi",
	})
	s.NoError(err)
	s.False(created)
	s.Equal(station.ID, again.ID)
	s.Equal("Anand Vihar", again.Name)
	s.Equal("openaq", again.DataSource)
	s.True(again.IsActive)
}

func (s *PostgresIntegrationSuite) TestReadingStore_UpsertIdempotent() {
	city, station := s.seedStation("Anand_Vihar")
	store := NewReadingStore(s.db)
	observed := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	id1, created, err := store.Upsert(s.ctx, &domain.Reading{
		StationID:  station.ID,
		CityID:     city.ID,
		ObservedAt: observed,
		AQI:        utils.Ptr(150),
		PM25:       utils.Ptr(55.0),
		NO2:        utils.Ptr(40.0),
		Raw:        json.RawMessage(`{"v":1}`),
	})
	s.NoError(err)
	s.True(created)

	id2, created, err := store.Upsert(s.ctx, &domain.Reading{
		StationID:  station.ID,
		CityID:     city.ID,
		ObservedAt: observed,
		AQI:        utils.Ptr(173),
		PM25:       utils.Ptr(98.0),
		Raw:        json.RawMessage(`{"v":2}`),
	})
	s.NoError(err)
	s.False(created)
	s.Equal(id1, id2)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM readings"))
	s.Equal(1, count)

	latest, err := store.LatestForCity(s.ctx, city.ID)
	s.NoError(err)
	s.Require().NotNil(latest)
	s.Equal(173, *latest.AQI)
	s.InDelta(98.0, *latest.PM25, 1e-9)
	s.Nil(latest.NO2)

	var raw string
	s.NoError(s.db.GetContext(s.ctx, &raw, "SELECT raw_data->>'v' FROM readings WHERE id = $1", id1))
	s.Equal("2", raw)
}

func (s *PostgresIntegrationSuite) TestReadingStore_LiveAndLatest() {
	city, station := s.seedStation("Anand_Vihar")
	store := NewReadingStore(s.db)
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	for i, aqi := range []int{120, 180} {
		_, _, err := store.Upsert(s.ctx, &domain.Reading{
			StationID:  station.ID,
			CityID:     city.ID,
			ObservedAt: base.Add(time.Duration(i) * time.Hour),
			AQI:        utils.Ptr(aqi),
		})
		s.Require().NoError(err)
	}

	_, _, err := NewCityStore(s.db).GetOrCreate(s.ctx, &domain.City{Name: "Agra", Country: domain.DefaultCountry, StationCount: 1})
	s.Require().NoError(err)

	live, err := store.Live(s.ctx, 9)
	s.NoError(err)
	s.Require().Len(live, 1)
	s.Equal("Delhi", live[0].CityName)
	s.Equal(180, *live[0].AQI)

	none, err := store.LatestForCity(s.ctx, 9999)
	s.NoError(err)
	s.Nil(none)
}

func (s *PostgresIntegrationSuite) TestProductStore_Lifecycle() {
	store := NewProductStore(s.db)

	id, err := store.Create(s.ctx, &domain.Product{
		Name:           "N95 Mask",
		Type:           domain.ProductMask,
		Price:          utils.Ptr(499.0),
		AQIMin:         50,
		AQIMax:         300,
		Effectiveness:  90,
		Features:       []string{"Free delivery"},
		RecommendedFor: []string{"Cycling"},
	})
	s.NoError(err)
	s.Greater(id, int64(0))

	found, err := store.FindByName(s.ctx, "n95 MASK")
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal(id, found.ID)
	s.Equal([]string{"Free delivery"}, found.Features)
	s.Nil(found.Rating)

	found.Rating = utils.Ptr(4.5)
	found.Effectiveness = 95
	s.NoError(store.Update(s.ctx, id, found))

	got, err := store.GetByID(s.ctx, id)
	s.NoError(err)
	s.Equal(95, got.Effectiveness)
	s.InDelta(4.5, *got.Rating, 1e-9)

	missing, err := store.FindByName(s.ctx, "nothing")
	s.NoError(err)
	s.Nil(missing)

	n, err := store.Count(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), n)

	deleted, err := store.DeleteAll(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), deleted)
}

func (s *PostgresIntegrationSuite) TestProductStore_ListProductsFilter() {
	store := NewProductStore(s.db)
	seed := []domain.Product{
		{Name: "Purifier A", Type: domain.ProductPurifier, AQIMin: 100, AQIMax: 500, Effectiveness: 90},
		{Name: "Mask A", Type: domain.ProductMask, AQIMin: 50, AQIMax: 300, Effectiveness: 95},
		{Name: "Mask B", Type: domain.ProductMask, AQIMin: 50, AQIMax: 300, Effectiveness: 85},
		{Name: "Plant A", Type: domain.ProductPlant, AQIMin: 0, AQIMax: 150, Effectiveness: 60},
	}
	for i := range seed {
		_, err := store.Create(s.ctx, &seed[i])
		s.Require().NoError(err)
	}

	all, err := store.ListProducts(s.ctx, domain.ProductFilter{})
	s.NoError(err)
	s.Require().Len(all, 4)
	s.Equal("Mask A", all[0].Name)
	s.Equal("Mask B", all[1].Name)

	inRange, err := store.ListProducts(s.ctx, domain.ProductFilter{MinAtMost: utils.Ptr(250), MaxAtLeast: utils.Ptr(250)})
	s.NoError(err)
	s.Len(inRange, 3)

	masks, err := store.ListProducts(s.ctx, domain.ProductFilter{Type: domain.ProductMask, Limit: 1})
	s.NoError(err)
	s.Require().Len(masks, 1)
	s.Equal("Mask A", masks[0].Name)
}

func (s *PostgresIntegrationSuite) TestArticleStore_CreatePatchSearch() {
	store := NewArticleStore(s.db)
	published := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	id, created, err := store.Create(s.ctx, &domain.Article{
		Title:       "Smog returns to Delhi",
		Source:      "example.com",
		URL:         "https://example.com/smog",
		PublishedAt: &published,
		Summary:     "Air quality slipped overnight",
	})
	s.NoError(err)
	s.True(created)

	_, created, err = store.Create(s.ctx, &domain.Article{Title: "dup", URL: "https://example.com/smog"})
	s.NoError(err)
	s.False(created)

	s.NoError(store.Patch(s.ctx, id, domain.ArticlePatch{Summary: utils.Ptr("Updated summary")}))

	got, err := store.GetByURL(s.ctx, "https://example.com/smog")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal("Smog returns to Delhi", got.Title)
	s.Equal("Updated summary", got.Summary)

	_, _, err = store.Create(s.ctx, &domain.Article{Title: "Undated", URL: "https://example.com/undated"})
	s.NoError(err)

	latest, err := store.Latest(s.ctx, 10)
	s.NoError(err)
	s.Require().Len(latest, 2)
	s.Equal(id, latest[0].ID)

	hits, err := store.Search(s.ctx, "SMOG", 10)
	s.NoError(err)
	s.Len(hits, 1)
}

func (s *PostgresIntegrationSuite) TestArticleStore_SearchIsLiteral() {
	store := NewArticleStore(s.db)

	for _, a := range []domain.Article{
		{Title: "AQI up 100% overnight", URL: "https://example.com/a"},
		{Title: "AQI up 1000 points", URL: "https://example.com/b"},
		{Title: "pm2_5 sensor recall", URL: "https://example.com/c"},
		{Title: "pm2.5 sensor recall", URL: "https://example.com/d"},
	} {
		_, _, err := store.Create(s.ctx, &a)
		s.Require().NoError(err)
	}

	hits, err := store.Search(s.ctx, "100%", 10)
	s.NoError(err)
	s.Require().Len(hits, 1)
	s.Equal("https://example.com/a", hits[0].URL)

	hits, err = store.Search(s.ctx, "pm2_5", 10)
	s.NoError(err)
	s.Require().Len(hits, 1)
	s.Equal("https://example.com/c", hits[0].URL)

	hits, err = store.Search(s.ctx, "%", 10)
	s.NoError(err)
	s.Len(hits, 1)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_GetNew() {
	store := NewSyncStateStore(s.db)

	state, err := store.Get(s.ctx, "new-source")
	s.NoError(err)
	s.NotNil(state)
	s.Equal("new-source", state.SourceID)
	s.True(state.LastSyncedAt.IsZero())
	s.Equal(int64(0), state.TotalSynced)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_UpdateExisting() {
	store := NewSyncStateStore(s.db)
	now := time.Now().Truncate(time.Microsecond)

	state := &domain.SyncState{SourceID: "openaq", LastSyncedAt: now, LastRunID: "run-1", TotalSynced: 10}
	s.NoError(store.Update(s.ctx, state))

	state.LastRunID = "run-2"
	state.TotalSynced = 20
	s.NoError(store.Update(s.ctx, state))

	retrieved, err := store.Get(s.ctx, "openaq")
	s.NoError(err)
	s.Equal("run-2", retrieved.LastRunID)
	s.Equal(int64(20), retrieved.TotalSynced)
	s.WithinDuration(now, retrieved.LastSyncedAt, time.Second)

	states, err := store.List(s.ctx)
	s.NoError(err)
	s.Len(states, 1)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	cities := NewCityStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, _, err := cities.GetOrCreate(ctx, &domain.City{Name: "Pune", Country: domain.DefaultCountry, StationCount: 1}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM cities WHERE name = $1", "Pune"))
	s.Equal(0, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	cities := NewCityStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		_, _, err := cities.GetOrCreate(ctx, &domain.City{Name: "Pune", Country: domain.DefaultCountry, StationCount: 1})
		return err
	})
	s.NoError(err)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM cities WHERE name = $1", "Pune"))
	s.Equal(1, count)
}
