package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airsense/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_ContinuesAfterFailure(t *testing.T) {
	var order []string
	job := func(name string, err error) Job {
		return Job{Name: name, Run: func(ctx context.Context) (*domain.SyncStats, error) {
			order = append(order, name)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return domain.NewSyncStats("run", name), err
		}}
	}

	s := NewScheduler([]Job{
		job("openaq", errors.New("upstream down")),
		job("waqi", nil),
		job("news", nil),
	}, time.Hour, time.Minute, quietLogger())

	failed := s.RunOnce(context.Background())
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"openaq", "waqi", "news"}, order)
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := 0

	s := NewScheduler([]Job{{Name: "waqi", Run: func(context.Context) (*domain.SyncStats, error) {
		runs++
		cancel()
		return nil, nil
	}}}, time.Hour, time.Minute, quietLogger())

	err := s.Start(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runs)
}
