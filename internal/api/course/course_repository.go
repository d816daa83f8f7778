package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/internshipkaro/platform-api/app/observability/metrics"
	"github.com/internshipkaro/platform-api/internal/api"
	"github.com/internshipkaro/platform-api/internal/types"
)

var _ CourseRepo = (*PostgresCourseRepo)(nil)

// CourseRepo defines the contract for catalog and enrollment persistence.
type CourseRepo interface {
	// ListPublished returns one page of PUBLISHED courses, newest first.
	ListPublished(ctx context.Context, page, limit int) (*types.CourseList, error)

	// GetByID retrieves a single course.
	// Returns types.ErrNotFound if no course exists with that ID.
	GetByID(ctx context.Context, courseID uuid.UUID) (*types.Course, error)

	// Enroll records the user's enrollment and bumps the course counter in
	// one transaction. Returns types.ErrNotFound for a missing course,
	// types.ErrValidation for an unpublished one and types.ErrConflict when
	// the user is already enrolled.
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
}

const courseColumns = `id, title, slug, description, long_description, difficulty,
       estimated_hours, language, skills_targeted, status, enrollment_count,
       created_at, updated_at`

type PostgresCourseRepo struct {
	logger  *slog.Logger
	pgpool  api.PGXPool
	metrics *metrics.AppMetrics
}

func NewPostgresCourseRepo(pgpool api.PGXPool, appMetrics *metrics.AppMetrics, logger *slog.Logger) *PostgresCourseRepo {
	return &PostgresCourseRepo{
		logger:  logger,
		pgpool:  pgpool,
		metrics: appMetrics,
	}
}

func scanCourse(row pgx.Row) (*types.Course, error) {
	var c types.Course
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.LongDescription,
		&c.Difficulty, &c.EstimatedHours, &c.Language, &c.SkillsTargeted,
		&c.Status, &c.EnrollmentCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCourseRepo) ListPublished(ctx context.Context, page, limit int) (*types.CourseList, error) {
	ctx, span := otel.Tracer("CourseRepo").Start(ctx, "ListPublished", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "courses"),
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "list_published_courses", time.Now())

	l := r.logger.With(slog.String("method", "ListPublished"), slog.Int("page", page), slog.Int("limit", limit))
	l.DebugContext(ctx, "Listing published courses")

	var total int
	err := r.pgpool.QueryRow(ctx,
		"SELECT count(*) FROM courses WHERE status = $1", types.CourseStatusPublished).Scan(&total)
	if err != nil {
		l.ErrorContext(ctx, "Failed to count courses", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB count failed")
		return nil, fmt.Errorf("database error counting courses: %w", err)
	}

	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pgpool.Query(ctx, query, types.CourseStatusPublished, limit, (page-1)*limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query courses", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]types.Course, 0, limit)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			l.ErrorContext(ctx, "Failed to scan course row", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning course: %w", err)
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rows iteration failed")
		return nil, fmt.Errorf("database error iterating courses: %w", err)
	}

	totalPages := (total + limit - 1) / limit

	l.InfoContext(ctx, "Courses listed", slog.Int("count", len(courses)), slog.Int("total", total))
	span.SetStatus(codes.Ok, "Courses listed")
	return &types.CourseList{
		Courses: courses,
		Pagination: types.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (r *PostgresCourseRepo) GetByID(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "courses"),
		attribute.String("db.course.id", courseID.String()),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "get_course_by_id", time.Now())

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	course, err := scanCourse(r.pgpool.QueryRow(ctx, query, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Course not found")
			return nil, fmt.Errorf("course %s: %w", courseID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch course", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching course: %w", err)
	}

	span.SetStatus(codes.Ok, "Course fetched")
	return course, nil
}

func (r *PostgresCourseRepo) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	ctx, span := otel.Tracer("CourseRepo").Start(ctx, "Enroll", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", userID.String()),
		attribute.String("db.course.id", courseID.String()),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "enroll", time.Now())

	l := r.logger.With(slog.String("method", "Enroll"),
		slog.String("userID", userID.String()), slog.String("courseID", courseID.String()))
	l.DebugContext(ctx, "Enrolling user in course")

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Begin failed")
		return nil, fmt.Errorf("database error starting enrollment: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM courses WHERE id = $1 FOR UPDATE", courseID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Course not found")
			return nil, fmt.Errorf("course %s: %w", courseID, types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to lock course row", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching course: %w", err)
	}
	if status != types.CourseStatusPublished {
		l.WarnContext(ctx, "Enrollment attempt on unpublished course", slog.String("status", status))
		span.SetStatus(codes.Error, "Course not published")
		return nil, fmt.Errorf("course is not open for enrollment: %w", types.ErrValidation)
	}

	var enrollment types.Enrollment
	err = tx.QueryRow(ctx, `
		INSERT INTO enrollments (user_id, course_id)
		VALUES ($1, $2)
		RETURNING id, user_id, course_id, enrolled_at`,
		userID, courseID).Scan(&enrollment.ID, &enrollment.UserID, &enrollment.CourseID, &enrollment.EnrolledAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "User already enrolled")
			span.SetStatus(codes.Error, "Already enrolled")
			return nil, fmt.Errorf("already enrolled: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert enrollment", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating enrollment: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE courses SET enrollment_count = enrollment_count + 1, updated_at = now() WHERE id = $1",
		courseID); err != nil {
		l.ErrorContext(ctx, "Failed to bump enrollment count", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating enrollment count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit enrollment", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return nil, fmt.Errorf("database error committing enrollment: %w", err)
	}

	l.InfoContext(ctx, "User enrolled in course", slog.String("enrollmentID", enrollment.ID.String()))
	span.SetStatus(codes.Ok, "Enrollment created")
	return &enrollment, nil
}
