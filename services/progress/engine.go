package progress

import (
	"math"
	"time"

	"coursedelivery/models/course"
)

// UnitState is the gating view of one module, topic or class.
type UnitState struct {
	ID        uint `json:"id"`
	Unlocked  bool `json:"unlocked"`
	Completed bool `json:"completed"`
}

// ComputeUnlockState gates units linearly: the first is always open and each
// later unit opens once the one before it is completed. Units missing from
// completed count as not completed.
func ComputeUnlockState(units []uint, completed map[uint]bool) []UnitState {
	out := make([]UnitState, len(units))
	for i, id := range units {
		out[i] = UnitState{
			ID:        id,
			Unlocked:  i == 0 || completed[units[i-1]],
			Completed: completed[id],
		}
	}
	return out
}

// ModuleClasses returns a module's classes in navigation order.
func ModuleClasses(m course.Module) []course.Class {
	var out []course.Class
	for _, t := range m.Topics {
		out = append(out, t.Classes...)
	}
	return out
}

// LooseClasses returns the classes of topics attached directly to the course.
func LooseClasses(c *course.Course) []course.Class {
	var out []course.Class
	for _, t := range c.Topics {
		out = append(out, t.Classes...)
	}
	return out
}

// Flatten lists every class of a loaded tree in navigation order: modules
// first, then topics without a module.
func Flatten(c *course.Course) []course.Class {
	var out []course.Class
	for _, m := range c.Modules {
		out = append(out, ModuleClasses(m)...)
	}
	return append(out, LooseClasses(c)...)
}

// ModuleCompletion marks a module complete once the share of its classes that
// are completed reaches threshold. Modules without classes never block.
func ModuleCompletion(c *course.Course, completed map[uint]bool, threshold float64) map[uint]bool {
	out := make(map[uint]bool, len(c.Modules))
	for _, m := range c.Modules {
		classes := ModuleClasses(m)
		if len(classes) == 0 {
			out[m.ID] = true
			continue
		}
		done := 0
		for _, cl := range classes {
			if completed[cl.ID] {
				done++
			}
		}
		out[m.ID] = float64(done)/float64(len(classes)) >= threshold
	}
	return out
}

type ModuleSummary struct {
	ModuleID          uint `json:"moduleId"`
	TotalClasses      int  `json:"totalClasses"`
	CompletedClasses  int  `json:"completedClasses"`
	Duration          int  `json:"duration"`
	WatchedDuration   int  `json:"watchedDuration"`
	WatchedPercentage int  `json:"watchedPercentage"`
	Completed         bool `json:"completed"`
}

type Summary struct {
	TotalClasses     int             `json:"totalClasses"`
	CompletedClasses int             `json:"completedClasses"`
	TotalModules     int             `json:"totalModules"`
	CompletedModules int             `json:"completedModules"`
	TotalDuration    int             `json:"totalDuration"`
	WatchedDuration  int             `json:"watchedDuration"`
	Percentage       int             `json:"percentage"`
	Modules          []ModuleSummary `json:"modules"`
}

// ComputeProgressSummary aggregates rows over a loaded tree. Rows for classes
// outside the tree are ignored.
func ComputeProgressSummary(c *course.Course, rows []course.UserProgress) Summary {
	byClass := make(map[uint]course.UserProgress, len(rows))
	for _, r := range rows {
		byClass[r.ClassID] = r
	}
	completed := completedSet(rows)

	var s Summary
	for _, cl := range Flatten(c) {
		s.TotalClasses++
		s.TotalDuration += cl.Duration
		if r, ok := byClass[cl.ID]; ok {
			s.WatchedDuration += r.WatchedDuration
			if r.IsCompleted {
				s.CompletedClasses++
			}
		}
	}
	s.Percentage = percent(s.CompletedClasses, s.TotalClasses)

	moduleDone := ModuleCompletion(c, completed, 1)
	s.TotalModules = len(c.Modules)
	s.Modules = make([]ModuleSummary, 0, len(c.Modules))
	for _, m := range c.Modules {
		ms := ModuleSummary{ModuleID: m.ID, Completed: moduleDone[m.ID]}
		for _, cl := range ModuleClasses(m) {
			ms.TotalClasses++
			ms.Duration += cl.Duration
			if r, ok := byClass[cl.ID]; ok {
				ms.WatchedDuration += r.WatchedDuration
				if r.IsCompleted {
					ms.CompletedClasses++
				}
			}
		}
		ms.WatchedPercentage = percent(ms.WatchedDuration, ms.Duration)
		if ms.Completed {
			s.CompletedModules++
		}
		s.Modules = append(s.Modules, ms)
	}
	return s
}

// percent is round(n/d*100) clamped to [0,100]; 0 when d is not positive.
func percent(n, d int) int {
	if d <= 0 {
		return 0
	}
	p := int(math.Round(float64(n) / float64(d) * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func completedSet(rows []course.UserProgress) map[uint]bool {
	out := make(map[uint]bool, len(rows))
	for _, r := range rows {
		if r.IsCompleted {
			out[r.ClassID] = true
		}
	}
	return out
}

// mergeProgress applies one progress ping to the stored row. Completion is
// sticky and CompletedAt is stamped only on the false to true transition.
func mergeProgress(existing course.UserProgress, in RecordInput, now time.Time) course.UserProgress {
	out := existing
	out.WatchedDuration = *in.WatchedDuration
	out.LastPosition = 0
	if in.LastPosition != nil {
		out.LastPosition = *in.LastPosition
	}
	out.LastWatchedAt = now

	requested := in.IsCompleted != nil && *in.IsCompleted
	if requested && !existing.IsCompleted {
		stamp := now
		out.CompletedAt = &stamp
	}
	out.IsCompleted = existing.IsCompleted || requested
	return out
}
