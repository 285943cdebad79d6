package domain

import "time"

// SyncStats holds statistics about a sync operation.
type SyncStats struct {
	RunID     string
	SourceID  string
	Fetched   int
	Created   int
	Updated   int
	Skipped   int
	Errors    int
	Published int
	Details   map[string]int
	Duration  time.Duration
}

func NewSyncStats(runID, sourceID string) *SyncStats {
	return &SyncStats{
		RunID:    runID,
		SourceID: sourceID,
		Details:  make(map[string]int),
	}
}

// Inc bumps an entity-specific counter such as "cities_created".
func (s *SyncStats) Inc(key string) {
	s.Details[key]++
}

type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	LastRunID    string    `db:"last_run_id"`
	TotalSynced  int64     `db:"total_synced"`
}
