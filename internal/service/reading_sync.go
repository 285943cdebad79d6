package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airsense/internal/domain"
	"airsense/internal/reconcile"
)

// ReadingSync reconciles telemetry records into cities, stations and
// readings. Each record is written in its own transaction.
type ReadingSync struct {
	source    TelemetrySource
	cities    CityStore
	stations  StationStore
	readings  ReadingStore
	syncState SyncStateStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
}

func NewReadingSync(
	source TelemetrySource,
	cities CityStore,
	stations StationStore,
	readings ReadingStore,
	syncState SyncStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *ReadingSync {
	return &ReadingSync{
		source:    source,
		cities:    cities,
		stations:  stations,
		readings:  readings,
		syncState: syncState,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
	}
}

type readingResult struct {
	reading        domain.Reading
	created        bool
	cityCreated    bool
	stationCreated bool
}

func (s *ReadingSync) Sync(ctx context.Context) (*domain.SyncStats, error) {
	r := newRun(s.source.ID(), s.syncState, s.publisher, s.logger)
	r.logger.Info("starting sync", "source_name", s.source.Name())

	records, dropped, err := s.source.FetchReadings(ctx)
	if err != nil {
		r.stats.Errors++
		return r.stats, fmt.Errorf("fetch readings: %w", err)
	}

	r.stats.Fetched = len(records) + dropped
	r.stats.Skipped = dropped
	if dropped > 0 {
		r.stats.Details["dropped_invalid"] = dropped
	}
	r.logger.Info("fetched readings from source", "count", len(records), "dropped", dropped)

	for i := range records {
		rec := &records[i]
		if rec.CityName == "" || rec.StationCode == "" {
			r.stats.Skipped++
			continue
		}

		res, err := s.saveRecord(ctx, rec)
		if err != nil {
			r.logger.Warn("failed to save reading",
				"station_code", rec.StationCode,
				"observed_at", rec.ObservedAt,
				"error", err,
			)
			r.stats.Errors++
			continue
		}

		if res.cityCreated {
			r.stats.Inc("cities_created")
		}
		if res.stationCreated {
			r.stats.Inc("stations_created")
		}
		if res.created {
			r.stats.Created++
		} else {
			r.stats.Updated++
		}

		r.publish(ctx, domain.EntityReading, res.created, readingKey(rec), res.reading)
	}

	if err := r.finish(ctx); err != nil {
		return r.stats, fmt.Errorf("update sync state: %w", err)
	}

	return r.stats, nil
}

func (s *ReadingSync) saveRecord(ctx context.Context, rec *domain.ReadingRecord) (readingResult, error) {
	var res readingResult

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		newCity := reconcile.NewCity(*rec)
		city, cityCreated, err := s.cities.GetOrCreate(txCtx, &newCity)
		if err != nil {
			return fmt.Errorf("get or create city: %w", err)
		}

		newStation := reconcile.StationFreezeOnCreate(*rec, city.ID)
		station, stationCreated, err := s.stations.GetOrCreate(txCtx, &newStation)
		if err != nil {
			return fmt.Errorf("get or create station: %w", err)
		}
		if !stationCreated && station.CityID != city.ID {
			s.logger.Debug("station code already bound to another city",
				"station_code", station.Code,
				"station_city_id", station.CityID,
				"record_city", rec.CityName,
			)
		}

		reading := reconcile.ReadingOverwrite(*rec, station.ID, city.ID)
		id, created, err := s.readings.Upsert(txCtx, &reading)
		if err != nil {
			return fmt.Errorf("upsert reading: %w", err)
		}
		reading.ID = id

		res = readingResult{
			reading:        reading,
			created:        created,
			cityCreated:    cityCreated,
			stationCreated: stationCreated,
		}
		return nil
	})

	return res, err
}

func readingKey(rec *domain.ReadingRecord) string {
	return rec.StationCode + "@" + rec.ObservedAt.UTC().Format(time.RFC3339)
}
