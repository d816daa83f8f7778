package course

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/internshipkaro/platform-api/app/observability/metrics"
	"github.com/internshipkaro/platform-api/internal/types"
)

var courseTestColumns = []string{
	"id", "title", "slug", "description", "long_description", "difficulty",
	"estimated_hours", "language", "skills_targeted", "status",
	"enrollment_count", "created_at", "updated_at",
}

func courseRow(courseID uuid.UUID, now time.Time) []any {
	return []any{
		courseID, "Backend Engineering with Go", "backend-engineering-go",
		"Build production HTTP services.", nil, types.DifficultyIntermediate,
		40.0, "en", []string{"go", "postgres"}, types.CourseStatusPublished,
		12, now, now,
	}
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresCourseRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	appMetrics, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return mockPool, NewPostgresCourseRepo(mockPool, appMetrics, slog.Default())
}

func TestListPublished(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		courseID := uuid.New()
		now := time.Now()

		mockPool.ExpectQuery("SELECT count").
			WithArgs(types.CourseStatusPublished).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(41))
		mockPool.ExpectQuery("SELECT (.+) FROM courses").
			WithArgs(types.CourseStatusPublished, 20, 20).
			WillReturnRows(pgxmock.NewRows(courseTestColumns).AddRow(courseRow(courseID, now)...))

		list, err := repo.ListPublished(context.Background(), 2, 20)

		require.NoError(t, err)
		require.Len(t, list.Courses, 1)
		assert.Equal(t, courseID, list.Courses[0].ID)
		assert.Equal(t, 41, list.Pagination.Total)
		assert.Equal(t, 3, list.Pagination.TotalPages)
		assert.Equal(t, 2, list.Pagination.Page)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("EmptyPage", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("SELECT count").
			WithArgs(types.CourseStatusPublished).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		mockPool.ExpectQuery("SELECT (.+) FROM courses").
			WithArgs(types.CourseStatusPublished, 20, 0).
			WillReturnRows(pgxmock.NewRows(courseTestColumns))

		list, err := repo.ListPublished(context.Background(), 1, 20)

		require.NoError(t, err)
		assert.Empty(t, list.Courses)
		assert.Equal(t, 0, list.Pagination.Total)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		courseID := uuid.New()
		now := time.Now()

		mockPool.ExpectQuery("SELECT (.+) FROM courses WHERE id =").
			WithArgs(courseID).
			WillReturnRows(pgxmock.NewRows(courseTestColumns).AddRow(courseRow(courseID, now)...))

		course, err := repo.GetByID(context.Background(), courseID)

		require.NoError(t, err)
		assert.Equal(t, courseID, course.ID)
		assert.Equal(t, []string{"go", "postgres"}, course.SkillsTargeted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		courseID := uuid.New()

		mockPool.ExpectQuery("SELECT (.+) FROM courses WHERE id =").
			WithArgs(courseID).
			WillReturnRows(pgxmock.NewRows(courseTestColumns))

		course, err := repo.GetByID(context.Background(), courseID)

		assert.Nil(t, course)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnroll(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		courseID := uuid.New()
		enrollmentID := uuid.New()
		now := time.Now()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery("SELECT status FROM courses WHERE id =").
			WithArgs(courseID).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(types.CourseStatusPublished))
		mockPool.ExpectQuery("INSERT INTO enrollments").
			WithArgs(userID, courseID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "course_id", "enrolled_at"}).
				AddRow(enrollmentID, userID, courseID, now))
		mockPool.ExpectExec("UPDATE courses SET enrollment_count").
			WithArgs(courseID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback()

		enrollment, err := repo.Enroll(context.Background(), userID, courseID)

		require.NoError(t, err)
		assert.Equal(t, enrollmentID, enrollment.ID)
		assert.Equal(t, userID, enrollment.UserID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("CourseNotFound", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		courseID := uuid.New()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery("SELECT status FROM courses WHERE id =").
			WithArgs(courseID).
			WillReturnRows(pgxmock.NewRows([]string{"status"}))
		mockPool.ExpectRollback()

		enrollment, err := repo.Enroll(context.Background(), userID, courseID)

		assert.Nil(t, enrollment)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("CourseNotPublished", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		courseID := uuid.New()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery("SELECT status FROM courses WHERE id =").
			WithArgs(courseID).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(types.CourseStatusDraft))
		mockPool.ExpectRollback()

		enrollment, err := repo.Enroll(context.Background(), userID, courseID)

		assert.Nil(t, enrollment)
		assert.ErrorIs(t, err, types.ErrValidation)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("AlreadyEnrolled", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		courseID := uuid.New()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery("SELECT status FROM courses WHERE id =").
			WithArgs(courseID).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(types.CourseStatusPublished))
		mockPool.ExpectQuery("INSERT INTO enrollments").
			WithArgs(userID, courseID).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "enrollments_user_id_course_id_key"})
		mockPool.ExpectRollback()

		enrollment, err := repo.Enroll(context.Background(), userID, courseID)

		assert.Nil(t, enrollment)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
