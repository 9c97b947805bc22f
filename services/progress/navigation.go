package progress

import "coursedelivery/models/course"

// ClassContext is a class together with where it sits in its course.
type ClassContext struct {
	Class               course.Class   `json:"class"`
	Topic               course.Topic   `json:"topic"`
	Module              *course.Module `json:"module"`
	Course              course.Course  `json:"course"`
	Siblings            []course.Class `json:"siblings"`
	PreviousClass       *course.Class  `json:"previousClass"`
	NextClass           *course.Class  `json:"nextClass"`
	IsLastClassOfModule bool           `json:"isLastClassOfModule"`
	IsLastClassOfCourse bool           `json:"isLastClassOfCourse"`
}

// Navigate locates classID in a loaded tree. Siblings are scoped to the
// class's module, or to the course's module-less topics when the class's topic
// has no module. The returned course, module and topic are shallow copies
// without their children.
func Navigate(c *course.Course, classID uint) (*ClassContext, bool) {
	lastModule := -1
	for i, m := range c.Modules {
		if len(ModuleClasses(m)) > 0 {
			lastModule = i
		}
	}

	for i, m := range c.Modules {
		for _, t := range m.Topics {
			for _, cl := range t.Classes {
				if cl.ID != classID {
					continue
				}
				mod := m
				mod.Topics = nil
				view := build(c, t, &mod, ModuleClasses(m), classID)
				view.IsLastClassOfCourse = view.IsLastClassOfModule && i == lastModule
				return view, true
			}
		}
	}

	for _, t := range c.Topics {
		for _, cl := range t.Classes {
			if cl.ID != classID {
				continue
			}
			view := build(c, t, nil, LooseClasses(c), classID)
			view.IsLastClassOfCourse = view.IsLastClassOfModule && lastModule < 0
			return view, true
		}
	}
	return nil, false
}

func build(c *course.Course, t course.Topic, m *course.Module, scope []course.Class, classID uint) *ClassContext {
	shallow := *c
	shallow.Modules, shallow.Topics = nil, nil
	t.Classes = nil

	view := &ClassContext{Topic: t, Module: m, Course: shallow, Siblings: scope}
	for i := range scope {
		if scope[i].ID != classID {
			continue
		}
		view.Class = scope[i]
		if i > 0 {
			prev := scope[i-1]
			view.PreviousClass = &prev
		}
		if i < len(scope)-1 {
			next := scope[i+1]
			view.NextClass = &next
		}
		view.IsLastClassOfModule = i == len(scope)-1
		break
	}
	return view
}
