// Package testutil opens throwaway databases and seeds fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"coursedelivery/database"
	"coursedelivery/models"
	"coursedelivery/models/course"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open(sqlite.Open(dsn), gormlogger.Silent)
	require.NoError(tb, err)

	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(tb, database.Migrate(db))
	return db
}

// Clock is a settable time source for services that take a Now func.
type Clock struct {
	t time.Time
}

func NewClock() *Clock {
	return &Clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time          { return c.t }
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *Clock) Set(t time.Time)         { c.t = t }

func SeedUser(tb testing.TB, db *gorm.DB, email string) models.User {
	tb.Helper()
	u := models.User{Email: models.NormalizeEmail(email), Role: models.RoleUser}
	require.NoError(tb, db.Create(&u).Error)
	return u
}

func SeedAdmin(tb testing.TB, db *gorm.DB, email string) models.User {
	tb.Helper()
	u := models.User{Email: models.NormalizeEmail(email), Role: models.RoleAdmin}
	require.NoError(tb, db.Create(&u).Error)
	return u
}

func SeedAccess(tb testing.TB, db *gorm.DB, userID, courseID uint) {
	tb.Helper()
	require.NoError(tb, db.Create(&models.CourseAccess{UserID: userID, CourseID: courseID, GrantedAt: time.Now()}).Error)
}

// Tree describes a seeded course. IDs are filled in by SeedCourse.
type Tree struct {
	Course  course.Course
	Modules []course.Module
	Topics  []course.Topic
	Classes []course.Class // in navigation order
}

// SeedCourse creates a course with the given number of modules, each holding
// topicsPer topics of classesPer video classes of 100 seconds. Rows are
// inserted in reverse order so tests catch reads that rely on insertion order.
// modules == 0 seeds a module-less course with topicsPer topics.
func SeedCourse(tb testing.TB, db *gorm.DB, title string, modules, topicsPer, classesPer int) Tree {
	tb.Helper()

	tree := Tree{Course: course.Course{Title: title, Type: course.TypeSkillBased}}
	require.NoError(tb, db.Create(&tree.Course).Error)

	addTopics := func(moduleID *uint, prefix string) {
		topics := make([]course.Topic, topicsPer)
		for ti := topicsPer - 1; ti >= 0; ti-- {
			topics[ti] = course.Topic{
				CourseID: tree.Course.ID,
				ModuleID: moduleID,
				Title:    fmt.Sprintf("%sT%d", prefix, ti+1),
				Order:    ti + 1,
			}
			require.NoError(tb, db.Create(&topics[ti]).Error)
		}
		for ti := range topics {
			classes := make([]course.Class, classesPer)
			for ci := classesPer - 1; ci >= 0; ci-- {
				classes[ci] = course.Class{
					TopicID:     topics[ti].ID,
					Title:       fmt.Sprintf("%sT%dC%d", prefix, ti+1, ci+1),
					ContentType: course.ContentVideo,
					VideoURL:    "https://videos.example.com/" + fmt.Sprint(ci+1),
					Duration:    100,
					Order:       ci + 1,
				}
				require.NoError(tb, db.Create(&classes[ci]).Error)
			}
			tree.Classes = append(tree.Classes, classes...)
		}
		tree.Topics = append(tree.Topics, topics...)
	}

	if modules == 0 {
		addTopics(nil, "")
		return tree
	}

	tree.Modules = make([]course.Module, modules)
	for mi := modules - 1; mi >= 0; mi-- {
		tree.Modules[mi] = course.Module{
			CourseID: tree.Course.ID,
			Title:    fmt.Sprintf("M%d", mi+1),
			Order:    mi + 1,
		}
		require.NoError(tb, db.Create(&tree.Modules[mi]).Error)
	}
	for mi := range tree.Modules {
		id := tree.Modules[mi].ID
		addTopics(&id, tree.Modules[mi].Title)
	}
	return tree
}
