package service

import (
	"testing"

	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCourseValidation(t *testing.T) {
	svc := NewCourseService(repository.NewCourseRepository(newTestDB(t)))

	tests := []struct {
		name string
		req  CreateCourseRequest
	}{
		{"missing title", CreateCourseRequest{Instructor: "Gavin"}},
		{"missing instructor", CreateCourseRequest{Title: "Substrate"}},
		{"negative duration", CreateCourseRequest{Title: "Substrate", Instructor: "Gavin", Duration: -1}},
		{"negative price", CreateCourseRequest{Title: "Substrate", Instructor: "Gavin", Price: decimal.NewFromInt(-1)}},
		{"lesson without title", CreateCourseRequest{Title: "Substrate", Instructor: "Gavin", Lessons: []LessonRequest{{Content: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCourse(tt.req)
			assert.ErrorIs(t, err, util.ErrValidation)
		})
	}

	courses, err := svc.ListCourses()
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestCourseLifecycle(t *testing.T) {
	svc := NewCourseService(repository.NewCourseRepository(newTestDB(t)))

	course, err := svc.CreateCourse(CreateCourseRequest{
		Title:      "Substrate Basics",
		Instructor: "Gavin",
		Duration:   12,
		Price:      decimal.NewFromInt(5),
		Lessons: []LessonRequest{
			{Title: "Runtime", Order: 3},
			{Title: "Intro"},
		},
	})
	require.NoError(t, err)
	assert.True(t, course.IsPaid())

	lessons, err := svc.ListLessons(course.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Intro", lessons[0].Title)
	assert.Equal(t, "Runtime", lessons[1].Title)

	free := decimal.Zero
	title := "Substrate 101"
	updated, err := svc.UpdateCourse(course.ID, UpdateCourseRequest{Title: &title, Price: &free})
	require.NoError(t, err)
	assert.Equal(t, "Substrate 101", updated.Title)
	assert.False(t, updated.IsPaid())

	got, err := svc.GetCourse(course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Substrate 101", got.Title)
	assert.Len(t, got.Lessons, 2)

	empty := ""
	_, err = svc.UpdateCourse(course.ID, UpdateCourseRequest{Instructor: &empty})
	assert.ErrorIs(t, err, util.ErrValidation)

	require.NoError(t, svc.DeleteCourse(course.ID))
	_, err = svc.GetCourse(course.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
	_, err = svc.ListLessons(course.ID)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
	assert.ErrorIs(t, svc.DeleteCourse(course.ID), util.ErrCourseNotFound)
}
