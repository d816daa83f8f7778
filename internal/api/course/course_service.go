package course

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/internshipkaro/platform-api/internal/types"
)

// Catalog pages are cached in-process. 60 seconds keeps the hot landing page
// cheap without making admin publishes invisible for long.
const (
	catalogCacheTTL     = 60 * time.Second
	catalogCacheCleanup = 5 * time.Minute
)

var _ CourseService = (*CourseServiceImpl)(nil)

// CourseService defines the business logic contract for catalog operations.
type CourseService interface {
	ListCourses(ctx context.Context, page, limit int) (*types.CourseList, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	EnrollUser(ctx context.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
}

// CourseServiceImpl provides the implementation for CourseService.
type CourseServiceImpl struct {
	logger    *slog.Logger
	repo      CourseRepo
	pageCache *gocache.Cache
}

// NewCourseService creates a new course service instance.
func NewCourseService(repo CourseRepo, logger *slog.Logger) *CourseServiceImpl {
	return &CourseServiceImpl{
		logger:    logger,
		repo:      repo,
		pageCache: gocache.New(catalogCacheTTL, catalogCacheCleanup),
	}
}

func catalogCacheKey(page, limit int) string {
	return fmt.Sprintf("courses:page:%d:limit:%d", page, limit)
}

// ListCourses returns one page of the published catalog.
func (s *CourseServiceImpl) ListCourses(ctx context.Context, page, limit int) (*types.CourseList, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "ListCourses", trace.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ListCourses"), slog.Int("page", page), slog.Int("limit", limit))
	l.DebugContext(ctx, "Listing courses")

	key := catalogCacheKey(page, limit)
	if cached, found := s.pageCache.Get(key); found {
		if list, ok := cached.(*types.CourseList); ok {
			l.DebugContext(ctx, "Catalog page served from cache")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "Catalog page served from cache")
			return list, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	list, err := s.repo.ListPublished(ctx, page, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list courses", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list courses")
		return nil, fmt.Errorf("error listing courses: %w", err)
	}

	s.pageCache.Set(key, list, gocache.DefaultExpiration)

	l.InfoContext(ctx, "Courses listed", slog.Int("count", len(list.Courses)))
	span.SetStatus(codes.Ok, "Courses listed")
	return list, nil
}

// GetCourse retrieves a single course by ID.
func (s *CourseServiceImpl) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GetCourse", trace.WithAttributes(
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetCourse"), slog.String("courseID", courseID.String()))
	l.DebugContext(ctx, "Fetching course")

	course, err := s.repo.GetByID(ctx, courseID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch course", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch course")
		return nil, fmt.Errorf("error fetching course: %w", err)
	}

	span.SetStatus(codes.Ok, "Course fetched")
	return course, nil
}

// EnrollUser enrolls the user and drops cached catalog pages so enrollment
// counts stay roughly current.
func (s *CourseServiceImpl) EnrollUser(ctx context.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "EnrollUser", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "EnrollUser"),
		slog.String("userID", userID.String()), slog.String("courseID", courseID.String()))
	l.DebugContext(ctx, "Enrolling user")

	enrollment, err := s.repo.Enroll(ctx, userID, courseID)
	if err != nil {
		l.WarnContext(ctx, "Failed to enroll user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to enroll user")
		return nil, fmt.Errorf("error enrolling user: %w", err)
	}

	s.pageCache.Flush()

	l.InfoContext(ctx, "User enrolled", slog.String("enrollmentID", enrollment.ID.String()))
	span.SetStatus(codes.Ok, "User enrolled")
	return enrollment, nil
}
