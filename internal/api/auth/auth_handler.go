package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/internshipkaro/platform-api/internal/api"
	"github.com/internshipkaro/platform-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new auth HandlerImpl instance.
func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /api/auth/register.
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := h.authService.Register(ctx, req)
	if err != nil {
		var vErrs *types.ValidationErrors
		switch {
		case errors.As(err, &vErrs):
			api.ValidationErrorResponse(w, r, vErrs.Fields)
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusBadRequest, "User with this email already exists")
		default:
			l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.Response{
		Success: true,
		Message: "User registered successfully",
		Data:    payload,
	})
}

// Login handles POST /api/auth/login.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := h.authService.Login(ctx, req)
	if err != nil {
		var vErrs *types.ValidationErrors
		switch {
		case errors.As(err, &vErrs):
			api.ValidationErrorResponse(w, r, vErrs.Fields)
		case errors.Is(err, types.ErrUnauthenticated):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid email or password")
		default:
			l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to log in")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Login successful",
		Data:    payload,
	})
}

// Refresh handles POST /api/auth/refresh.
func (h *HandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Refresh"))

	var req types.RefreshRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Refresh token is required")
		return
	}

	payload, err := h.authService.RefreshSession(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrTokenExpired):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Refresh token has expired")
		case errors.Is(err, types.ErrTokenInvalid), errors.Is(err, types.ErrTokenWrongType):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid refresh token")
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusUnauthorized, "User not found")
		default:
			l.ErrorContext(ctx, "Refresh failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Token refreshed successfully",
		Data:    payload,
	})
}

// Logout handles POST /api/auth/logout. Requires the Authenticate middleware.
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Logout"))

	userIDStr, ok := GetUserIDFromContext(ctx)
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

	if err := h.authService.Logout(ctx, userID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
			return
		}
		l.ErrorContext(ctx, "Logout failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to log out")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Logged out successfully",
	})
}
