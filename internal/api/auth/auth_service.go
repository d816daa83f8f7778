package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/internshipkaro/platform-api/app/observability/metrics"
	"github.com/internshipkaro/platform-api/internal/types"
)

// passwordHashCost is the bcrypt work factor for new accounts.
const passwordHashCost = 12

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for authentication.
type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthPayload, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthPayload, error)
	RefreshSession(ctx context.Context, refreshToken string) (*types.AuthPayload, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     AuthRepo
	tokens   *TokenService
	metrics  *metrics.AppMetrics
	hashCost int
}

// NewAuthService creates a new auth service instance.
func NewAuthService(repo AuthRepo, tokens *TokenService, appMetrics *metrics.AppMetrics, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:   logger,
		repo:     repo,
		tokens:   tokens,
		metrics:  appMetrics,
		hashCost: passwordHashCost,
	}
}

func validateRegisterRequest(req types.RegisterRequest) *types.ValidationErrors {
	v := &types.ValidationErrors{}
	if req.Email == "" {
		v.Add("email", "email is required")
	} else if !emailPattern.MatchString(req.Email) {
		v.Add("email", "email is not a valid address")
	}
	if req.Password == "" {
		v.Add("password", "password is required")
	} else if len(req.Password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if req.FirstName == "" {
		v.Add("firstName", "first name is required")
	}
	if req.LastName == "" {
		v.Add("lastName", "last name is required")
	}
	if req.ExperienceLevel == "" {
		v.Add("experienceLevel", "experience level is required")
	} else if !types.ValidExperienceLevel(req.ExperienceLevel) {
		v.Add("experienceLevel", "experience level must be one of BEGINNER, INTERMEDIATE, ADVANCED, EXPERT")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Register validates the request, hashes the password and creates the
// account, returning the stored profile with a fresh token pair.
func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthPayload, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.email", req.Email),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("email", req.Email))
	l.DebugContext(ctx, "Registering new user")

	if vErrs := validateRegisterRequest(req); vErrs != nil {
		l.WarnContext(ctx, "Registration input invalid", slog.Int("field_errors", len(vErrs.Fields)))
		span.SetStatus(codes.Error, "Validation failed")
		s.metrics.RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid")))
		return nil, vErrs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:           req.Email,
		PasswordHash:    string(hash),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ExperienceLevel: req.ExperienceLevel,
	})
	if err != nil {
		l.WarnContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "User creation failed")
		s.metrics.RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	tokenPair, err := s.tokens.IssueTokenPair(profile.ID.String(), profile.Email)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue tokens", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issuance failed")
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}

	l.InfoContext(ctx, "User registered successfully", slog.String("userID", profile.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	s.metrics.RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	return &types.AuthPayload{User: profile, Tokens: tokenPair}, nil
}

// Login checks the credentials and returns the profile with a fresh token
// pair. Unknown email and wrong password both come back as
// types.ErrUnauthenticated so the response never reveals which one failed.
func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.AuthPayload, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("email", req.Email))
	l.DebugContext(ctx, "Logging user in")

	if req.Email == "" || req.Password == "" {
		v := &types.ValidationErrors{}
		if req.Email == "" {
			v.Add("email", "email is required")
		}
		if req.Password == "" {
			v.Add("password", "password is required")
		}
		span.SetStatus(codes.Error, "Validation failed")
		return nil, v
	}

	ua, err := s.repo.GetUserAuthByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login attempt for unknown email")
			span.SetStatus(codes.Error, "Unknown email")
			s.metrics.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "unknown_email")))
			return nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
		}
		l.ErrorContext(ctx, "Failed to fetch user for login", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB lookup failed")
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ua.PasswordHash), []byte(req.Password)); err != nil {
		l.WarnContext(ctx, "Password mismatch on login")
		span.SetStatus(codes.Error, "Password mismatch")
		s.metrics.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "bad_password")))
		return nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
	}

	profile := &ua.Profile
	tokenPair, err := s.tokens.IssueTokenPair(profile.ID.String(), profile.Email)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue tokens", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issuance failed")
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}

	// Stamp activity but never fail the login over it.
	if err := s.repo.UpdateLastActive(ctx, profile.ID); err != nil {
		l.WarnContext(ctx, "Failed to update last_active on login", slog.Any("error", err))
	}

	l.InfoContext(ctx, "User logged in successfully", slog.String("userID", profile.ID.String()))
	span.SetStatus(codes.Ok, "Login successful")
	s.metrics.LoginRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	return &types.AuthPayload{User: profile, Tokens: tokenPair}, nil
}

// RefreshSession exchanges a valid refresh token for a brand new pair. The
// user is re-read from the database so tokens for deleted accounts stop
// working at the first refresh.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (*types.AuthPayload, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "RefreshSession")
	defer span.End()

	l := s.logger.With(slog.String("method", "RefreshSession"))
	l.DebugContext(ctx, "Refreshing session")

	claims, err := s.tokens.Verify(refreshToken, types.TokenTypeRefresh)
	if err != nil {
		l.WarnContext(ctx, "Refresh token rejected", slog.Any("error", err))
		span.SetStatus(codes.Error, "Refresh token rejected")
		s.metrics.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "bad_refresh_token")))
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		l.WarnContext(ctx, "Refresh token carries malformed user ID", slog.Any("error", err))
		span.SetStatus(codes.Error, "Malformed user ID claim")
		return nil, fmt.Errorf("malformed user ID in token: %w", types.ErrTokenInvalid)
	}

	profile, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.WarnContext(ctx, "User for refresh token no longer exists", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "User lookup failed")
		return nil, fmt.Errorf("error fetching user for refresh: %w", err)
	}

	tokenPair, err := s.tokens.IssueTokenPair(profile.ID.String(), profile.Email)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue tokens", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issuance failed")
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}

	l.InfoContext(ctx, "Session refreshed", slog.String("userID", profile.ID.String()))
	span.SetStatus(codes.Ok, "Session refreshed")
	s.metrics.TokenRefreshesTotal.Add(ctx, 1)
	return &types.AuthPayload{User: profile, Tokens: tokenPair}, nil
}

// Logout stamps last_active. Tokens are stateless, so the client discards
// them; nothing is revoked server-side.
func (s *AuthServiceImpl) Logout(ctx context.Context, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "Logout"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Logging user out")

	if err := s.repo.UpdateLastActive(ctx, userID); err != nil {
		l.ErrorContext(ctx, "Failed to update last_active on logout", slog.Any("error", err))
		return fmt.Errorf("error updating last active: %w", err)
	}

	l.InfoContext(ctx, "User logged out")
	return nil
}
