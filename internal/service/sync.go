package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"airsense/internal/domain"
)

// run carries the bookkeeping shared by every sync: run id, stats, event
// publishing and the sync_state update.
type run struct {
	stats     *domain.SyncStats
	started   time.Time
	syncState SyncStateStore
	publisher Publisher
	logger    *slog.Logger
}

func newRun(sourceID string, syncState SyncStateStore, publisher Publisher, logger *slog.Logger) *run {
	runID := uuid.NewString()
	return &run{
		stats:     domain.NewSyncStats(runID, sourceID),
		started:   time.Now(),
		syncState: syncState,
		publisher: publisher,
		logger:    logger.With("run_id", runID),
	}
}

func (r *run) publish(ctx context.Context, entity domain.Entity, created bool, key string, payload any) {
	if r.publisher == nil {
		return
	}

	event := &domain.Event{
		RunID:     r.stats.RunID,
		Source:    r.stats.SourceID,
		Entity:    entity,
		Action:    domain.ActionFor(created),
		Key:       key,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("failed to publish event", "entity", entity, "key", key, "error", err)
		r.stats.Errors++
		return
	}
	r.stats.Published++
}

// finish records the run in sync_state and logs the summary.
func (r *run) finish(ctx context.Context) error {
	r.stats.Duration = time.Since(r.started)

	err := r.updateSyncState(ctx)

	r.logger.Info("sync completed",
		"fetched", r.stats.Fetched,
		"created", r.stats.Created,
		"updated", r.stats.Updated,
		"skipped", r.stats.Skipped,
		"errors", r.stats.Errors,
		"published", r.stats.Published,
		"details", r.stats.Details,
		"duration", r.stats.Duration,
	)

	return err
}

func (r *run) updateSyncState(ctx context.Context) error {
	state, err := r.syncState.Get(ctx, r.stats.SourceID)
	if err != nil {
		return err
	}

	state.SourceID = r.stats.SourceID
	state.LastSyncedAt = time.Now()
	state.LastRunID = r.stats.RunID
	state.TotalSynced += int64(r.stats.Created + r.stats.Updated)

	return r.syncState.Update(ctx, state)
}
