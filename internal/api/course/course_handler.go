package course

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/internshipkaro/platform-api/internal/api"
	"github.com/internshipkaro/platform-api/internal/api/auth"
	"github.com/internshipkaro/platform-api/internal/types"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListCourses(w http.ResponseWriter, r *http.Request)
	GetCourse(w http.ResponseWriter, r *http.Request)
	Enroll(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	courseService CourseService
	logger        *slog.Logger
}

// NewHandlerImpl creates a new course HandlerImpl instance.
func NewHandlerImpl(courseService CourseService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		courseService: courseService,
		logger:        logger,
	}
}

// parsePagination reads page and limit from the query string, falling back
// to defaults on garbage and clamping limit to maxPageLimit.
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	limit = defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// ListCourses handles GET /api/courses.
func (h *HandlerImpl) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ListCourses"))

	page, limit := parsePagination(r)

	list, err := h.courseService.ListCourses(ctx, page, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list courses", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve courses")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    list,
	})
}

// GetCourse handles GET /api/courses/{courseID}.
func (h *HandlerImpl) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetCourse"))

	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid course ID")
		return
	}

	course, err := h.courseService.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Course not found")
			return
		}
		l.ErrorContext(ctx, "Failed to get course", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve course")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Data:    course,
	})
}

// Enroll handles POST /api/courses/{courseID}/enroll. Requires the
// Authenticate middleware.
func (h *HandlerImpl) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Enroll"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid course ID")
		return
	}

	enrollment, err := h.courseService.EnrollUser(ctx, userID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Course not found")
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusBadRequest, "Already enrolled in this course")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, "Course is not open for enrollment")
		default:
			l.ErrorContext(ctx, "Failed to enroll user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to enroll in course")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Message: "Enrolled successfully",
		Data:    enrollment,
	})
}
