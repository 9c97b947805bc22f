package catalog

import (
	"context"
	"strings"
	"testing"

	"coursedelivery/apperr"
	"coursedelivery/logger"
	"coursedelivery/models"
	"coursedelivery/models/course"
	"coursedelivery/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return New(testutil.NewDB(t), logger.NewNop())
}

func ptr[T any](v T) *T { return &v }

func count(t *testing.T, s *Service, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB.Model(model).Count(&n).Error)
	return n
}

func TestCreateCourseValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, CourseInput{Title: "Go", Type: "weekend"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "type")

	c, err := svc.CreateCourse(ctx, CourseInput{Title: "  Go in Practice ", Type: "Skill-Based", Tag: "golang"})
	require.NoError(t, err)
	assert.Equal(t, "Go in Practice", c.Title)
	assert.Equal(t, course.TypeSkillBased, c.Type)

	updated, err := svc.UpdateCourse(ctx, c.ID, CourseInput{Title: "Go at Scale", Type: course.TypeRoleSpecific})
	require.NoError(t, err)
	assert.Equal(t, "Go at Scale", updated.Title)
	assert.Empty(t, updated.Tag)

	_, err = svc.UpdateCourse(ctx, 999, CourseInput{Title: "Missing", Type: course.TypeRoleSpecific})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrderDefaultsToEndOfSiblings(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	c, err := svc.CreateCourse(ctx, CourseInput{Title: "Go basics", Type: course.TypeSkillBased})
	require.NoError(t, err)

	m1, err := svc.CreateModule(ctx, ModuleInput{CourseID: c.ID, Title: "Intro", LearningOutcomes: []string{"Install Go"}})
	require.NoError(t, err)
	m2, err := svc.CreateModule(ctx, ModuleInput{CourseID: c.ID, Title: "Types", Order: ptr(7)})
	require.NoError(t, err)
	m3, err := svc.CreateModule(ctx, ModuleInput{CourseID: c.ID, Title: "Concurrency"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 7, 8}, []int{m1.Order, m2.Order, m3.Order})
	assert.Equal(t, []string{"Install Go"}, []string(m1.LearningOutcomes))

	t1, err := svc.CreateTopic(ctx, TopicInput{CourseID: c.ID, ModuleID: &m1.ID, Title: "Setup"})
	require.NoError(t, err)
	loose, err := svc.CreateTopic(ctx, TopicInput{CourseID: c.ID, Title: "Appendix"})
	require.NoError(t, err)
	assert.Equal(t, 1, t1.Order)
	assert.Equal(t, 1, loose.Order, "module-less topics are numbered separately")

	cl1, courseID, err := svc.CreateClass(ctx, ClassInput{TopicID: t1.ID, Title: "Install", ContentType: "video", VideoURL: "https://v.example.com/1", Duration: 60})
	require.NoError(t, err)
	assert.Equal(t, c.ID, courseID)
	cl2, _, err := svc.CreateClass(ctx, ClassInput{TopicID: t1.ID, Title: "Hello", ContentType: "text", TextContent: "package main"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{cl1.Order, cl2.Order})
}

func TestTopicModuleMustShareCourse(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	a := testutil.SeedCourse(t, svc.DB, "A", 1, 1, 1)
	b := testutil.SeedCourse(t, svc.DB, "B", 1, 1, 1)

	_, err := svc.CreateTopic(ctx, TopicInput{CourseID: a.Course.ID, ModuleID: &b.Modules[0].ID, Title: "Wrong"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateTopic(ctx, TopicInput{CourseID: a.Course.ID, ModuleID: ptr(uint(999)), Title: "Gone"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.CreateModule(ctx, ModuleInput{CourseID: 999, Title: "Orphan"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestClassPayloadMatchesContentType(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	tree := testutil.SeedCourse(t, svc.DB, "Go", 1, 1, 1)
	topicID := tree.Topics[0].ID

	cases := []struct {
		name  string
		in    ClassInput
		field string
	}{
		{"video without url", ClassInput{TopicID: topicID, Title: "V", ContentType: "video", TextContent: "x"}, "videoUrl"},
		{"text without body", ClassInput{TopicID: topicID, Title: "T", ContentType: "text", TextContent: "   "}, "textContent"},
		{"contest without url", ClassInput{TopicID: topicID, Title: "C", ContentType: "contest"}, "contestUrl"},
		{"unknown type", ClassInput{TopicID: topicID, Title: "Q", ContentType: "quiz"}, "contentType"},
		{"negative duration", ClassInput{TopicID: topicID, Title: "N", ContentType: "video", VideoURL: "https://v.example.com", Duration: -5}, "duration"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.CreateClass(ctx, tc.in)
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Fields, tc.field)
		})
	}

	_, _, err := svc.CreateClass(ctx, ClassInput{TopicID: 999, Title: "X", ContentType: "contest", ContestURL: "https://contest.example.com"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateClassKeepsOnlyMatchingPayload(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	tree := testutil.SeedCourse(t, svc.DB, "Go", 1, 1, 1)
	cl := tree.Classes[0]

	updated, courseID, err := svc.UpdateClass(ctx, cl.ID, ClassInput{
		TopicID:     999, // ignored
		Title:       "Now text",
		ContentType: "text",
		VideoURL:    "https://stale.example.com",
		TextContent: "Read this",
	})
	require.NoError(t, err)
	assert.Equal(t, tree.Course.ID, courseID)
	assert.Equal(t, cl.TopicID, updated.TopicID)
	assert.Empty(t, updated.VideoURL)
	assert.Equal(t, "Read this", updated.TextContent)
	assert.Equal(t, cl.Order, updated.Order, "order kept when not sent")
}

func TestDeleteCourseCascades(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	doomed := testutil.SeedCourse(t, svc.DB, "Doomed", 2, 2, 2)
	kept := testutil.SeedCourse(t, svc.DB, "Kept", 1, 1, 1)
	user := testutil.SeedUser(t, svc.DB, "ada@example.com")
	testutil.SeedAccess(t, svc.DB, user.ID, doomed.Course.ID)
	testutil.SeedAccess(t, svc.DB, user.ID, kept.Course.ID)

	require.NoError(t, svc.DeleteCourse(ctx, doomed.Course.ID))

	assert.EqualValues(t, 1, count(t, svc, &course.Course{}))
	assert.EqualValues(t, 1, count(t, svc, &course.Module{}))
	assert.EqualValues(t, 1, count(t, svc, &course.Topic{}))
	assert.EqualValues(t, 1, count(t, svc, &course.Class{}))
	assert.EqualValues(t, 1, count(t, svc, &models.CourseAccess{}))

	assert.True(t, apperr.Is(svc.DeleteCourse(ctx, doomed.Course.ID), apperr.KindNotFound))
}

func TestDeleteModuleAndTopicCascade(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	tree := testutil.SeedCourse(t, svc.DB, "Go", 2, 2, 2)

	courseID, err := svc.DeleteModule(ctx, tree.Modules[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tree.Course.ID, courseID)
	assert.EqualValues(t, 2, count(t, svc, &course.Topic{}))
	assert.EqualValues(t, 4, count(t, svc, &course.Class{}))

	courseID, err = svc.DeleteTopic(ctx, tree.Topics[2].ID)
	require.NoError(t, err)
	assert.Equal(t, tree.Course.ID, courseID)
	assert.EqualValues(t, 2, count(t, svc, &course.Class{}))

	courseID, err = svc.DeleteClass(ctx, tree.Classes[7].ID)
	require.NoError(t, err)
	assert.Equal(t, tree.Course.ID, courseID)
	assert.EqualValues(t, 1, count(t, svc, &course.Class{}))

	_, err = svc.DeleteClass(ctx, tree.Classes[7].ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

const sheet = `course_title,course_type,course_tag,module_title,module_order,topic_title,topic_order,class_title,class_order,content_type,content,duration
Go Backend,role-specific,Backend Engineer,Basics,1,Setup,1,Install,1,video,https://v.example.com/install,300
Go Backend,role-specific,Backend Engineer,Basics,1,Setup,1,Hello world,2,text,"package main",0
Go Backend,,,Basics,,Tooling,,Modules,,contest,https://contest.example.com/1,
Go Backend,,,,,Appendix,,Glossary,,text,Terms,
Broken,,,,,Setup,,Nothing,,video,,10
SQL,weekend,,,,Intro,,Select,,text,SELECT 1,
Go Backend,,,Basics,1,Setup,1,Install,1,video,https://v.example.com/install-v2,320
`

func TestImportCSV(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	report, err := svc.ImportCSV(ctx, strings.NewReader(sheet))
	require.NoError(t, err)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 1, report.Courses)
	assert.Equal(t, 1, report.Modules)
	assert.Equal(t, 3, report.Topics)
	assert.Equal(t, 4, report.Classes)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Skipped)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 6, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Reason, "videoUrl")
	assert.Equal(t, 7, report.Errors[1].Row)
	assert.Len(t, report.CourseIDs, 1)

	var c course.Course
	require.NoError(t, svc.DB.Preload("Modules.Topics.Classes").First(&c, report.CourseIDs[0]).Error)
	assert.Equal(t, course.TypeRoleSpecific, c.Type)
	assert.Equal(t, "Backend Engineer", c.Tag)
	require.Len(t, c.Modules, 1)
	require.Len(t, c.Modules[0].Topics, 2)

	var install course.Class
	require.NoError(t, svc.DB.Where("title = ?", "Install").Take(&install).Error)
	assert.Equal(t, "https://v.example.com/install-v2", install.VideoURL)
	assert.Equal(t, 320, install.Duration)

	var appendix course.Topic
	require.NoError(t, svc.DB.Where("title = ?", "Appendix").Take(&appendix).Error)
	assert.Nil(t, appendix.ModuleID)

	again, err := svc.ImportCSV(ctx, strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Zero(t, again.Courses+again.Modules+again.Topics+again.Classes, "re-import reuses rows")
	assert.Equal(t, 5, again.Updated)
}

func TestImportCSVRejectsBadHeader(t *testing.T) {
	svc := newService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(""))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.ImportCSV(context.Background(), strings.NewReader("course_title,class_title\nGo,Intro\n"))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "topic_title")
	assert.Contains(t, appErr.Fields, "content_type")
}
