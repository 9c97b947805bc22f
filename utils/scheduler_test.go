package utils

import (
	"context"
	"errors"
	"testing"

	"coursedelivery/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeMaintenanceScheduler(t *testing.T) {
	log := logger.NewNop()

	c, err := InitializeMaintenanceScheduler("@every 1h", log,
		Job{Name: "a", Run: func(context.Context) error { return nil }},
		Job{Name: "b", Run: func(context.Context) error { return nil }},
	)
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 2)

	_, err = InitializeMaintenanceScheduler("not a schedule", log, Job{Name: "c", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestRunJobSurvivesFailures(t *testing.T) {
	log := logger.NewNop()
	ran := 0

	assert.NotPanics(t, func() {
		RunJob(context.Background(), log, Job{Name: "fails", Run: func(context.Context) error {
			ran++
			return errors.New("boom")
		}})
		RunJob(context.Background(), log, Job{Name: "panics", Run: func(context.Context) error {
			ran++
			panic("unexpected")
		}})
	})
	assert.Equal(t, 2, ran)
}

func TestRunJobSetsDeadline(t *testing.T) {
	RunJob(context.Background(), logger.NewNop(), Job{Name: "deadline", Run: func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	}})
}
