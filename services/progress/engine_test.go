package progress

import (
	"testing"
	"time"

	"coursedelivery/models"
	"coursedelivery/models/course"

	"github.com/stretchr/testify/assert"
)

func TestComputeUnlockState(t *testing.T) {
	units := []uint{11, 12, 13}

	state := ComputeUnlockState(units, nil)
	assert.Equal(t, []UnitState{
		{ID: 11, Unlocked: true},
		{ID: 12, Unlocked: false},
		{ID: 13, Unlocked: false},
	}, state)

	state = ComputeUnlockState(units, map[uint]bool{11: true})
	assert.Equal(t, []UnitState{
		{ID: 11, Unlocked: true, Completed: true},
		{ID: 12, Unlocked: true},
		{ID: 13, Unlocked: false},
	}, state)

	assert.Empty(t, ComputeUnlockState(nil, nil))
}

func class(id uint, duration int) course.Class {
	return course.Class{Base: models.Base{ID: id}, Duration: duration}
}

func module(id uint, classes ...course.Class) course.Module {
	return course.Module{Base: models.Base{ID: id}, Topics: []course.Topic{{Classes: classes}}}
}

func row(classID uint, watched int, done bool) course.UserProgress {
	return course.UserProgress{ClassID: classID, WatchedDuration: watched, IsCompleted: done}
}

func TestComputeProgressSummary(t *testing.T) {
	tree := &course.Course{Modules: []course.Module{
		module(1, class(1, 100), class(2, 100), class(3, 100)),
		module(2, class(4, 50)),
		module(3),
	}}

	s := ComputeProgressSummary(tree, []course.UserProgress{
		row(1, 100, true),
		row(2, 40, false),
		row(4, 80, true), // watched past the class length
		row(99, 10, true),
	})

	assert.Equal(t, 4, s.TotalClasses)
	assert.Equal(t, 2, s.CompletedClasses)
	assert.Equal(t, 50, s.Percentage)
	assert.Equal(t, 3, s.TotalModules)
	assert.Equal(t, 2, s.CompletedModules, "module 2 is done and module 3 has nothing to do")
	assert.Equal(t, 350, s.TotalDuration)
	assert.Equal(t, 220, s.WatchedDuration)

	assert.Equal(t, ModuleSummary{ModuleID: 1, TotalClasses: 3, CompletedClasses: 1, Duration: 300, WatchedDuration: 140, WatchedPercentage: 47}, s.Modules[0])
	assert.Equal(t, 100, s.Modules[1].WatchedPercentage, "clamped")
	assert.True(t, s.Modules[1].Completed)
	assert.Equal(t, 0, s.Modules[2].WatchedPercentage)
}

func TestComputeProgressSummaryEmpty(t *testing.T) {
	s := ComputeProgressSummary(&course.Course{}, nil)
	assert.Equal(t, 0, s.Percentage)
	assert.Equal(t, 0, s.TotalClasses)
	assert.Empty(t, s.Modules)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 50, percent(1, 2))
	assert.Equal(t, 0, percent(5, 0))
	assert.Equal(t, 100, percent(7, 3))
}

func TestModuleCompletionThreshold(t *testing.T) {
	tree := &course.Course{Modules: []course.Module{
		module(1, class(1, 10), class(2, 10), class(3, 10), class(4, 10)),
	}}
	done := map[uint]bool{1: true, 2: true, 3: true}

	assert.False(t, ModuleCompletion(tree, done, 1)[1])
	assert.True(t, ModuleCompletion(tree, done, 0.75)[1])
}

func TestMergeProgress(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	yes, no := true, false
	d60, d90, pos := 60, 90, 42

	first := mergeProgress(course.UserProgress{}, RecordInput{WatchedDuration: &d60, IsCompleted: &yes}, t0)
	assert.True(t, first.IsCompleted)
	assert.Equal(t, t0, *first.CompletedAt)
	assert.Equal(t, 0, first.LastPosition)

	second := mergeProgress(first, RecordInput{WatchedDuration: &d90, LastPosition: &pos, IsCompleted: &no}, t1)
	assert.True(t, second.IsCompleted)
	assert.Equal(t, t0, *second.CompletedAt)
	assert.Equal(t, t1, second.LastWatchedAt)
	assert.Equal(t, 90, second.WatchedDuration)
	assert.Equal(t, 42, second.LastPosition)

	untouched := mergeProgress(course.UserProgress{}, RecordInput{WatchedDuration: &d60}, t0)
	assert.False(t, untouched.IsCompleted)
	assert.Nil(t, untouched.CompletedAt)
}
