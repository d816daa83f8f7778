package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/internshipkaro/platform-api/internal/types"
)

// profileCacheTTL bounds staleness for profiles read through Redis. Updates
// invalidate the key, so the TTL only matters for writes that bypass the API.
const profileCacheTTL = 5 * time.Minute

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for profile operations.
type UserService interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error)
}

// UserServiceImpl provides the implementation for UserService with a Redis
// read-through cache in front of the repository. Cache failures are logged
// and the request proceeds against Postgres.
type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	cache  *redis.Client
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, cache *redis.Client, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache,
	}
}

func profileCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:profile:%s", userID)
}

// GetUserProfile retrieves a user's profile, serving from Redis when possible.
func (s *UserServiceImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetUserProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Fetching user profile")

	key := profileCacheKey(userID)
	cached, err := s.cache.Get(ctx, key).Result()
	if err == nil {
		var profile types.UserProfile
		if err := json.Unmarshal([]byte(cached), &profile); err == nil {
			l.DebugContext(ctx, "Profile served from cache")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "Profile served from cache")
			return &profile, nil
		}
		l.WarnContext(ctx, "Corrupt cache entry, falling back to database", slog.Any("error", err))
	} else if !errors.Is(err, redis.Nil) {
		l.WarnContext(ctx, "Cache read failed, falling back to database", slog.Any("error", err))
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	profile, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch user profile")
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}

	if data, err := json.Marshal(profile); err == nil {
		if err := s.cache.Set(ctx, key, data, profileCacheTTL).Err(); err != nil {
			l.WarnContext(ctx, "Failed to cache profile", slog.Any("error", err))
		}
	}

	l.InfoContext(ctx, "User profile fetched successfully")
	span.SetStatus(codes.Ok, "User profile fetched successfully")
	return profile, nil
}

// UpdateUserProfile applies a partial update and invalidates the cached
// profile. An empty update returns the current profile untouched.
func (s *UserServiceImpl) UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateUserProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Updating user profile")

	if params.IsEmpty() {
		l.DebugContext(ctx, "No fields provided, returning current profile")
		return s.GetUserProfile(ctx, userID)
	}

	profile, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user profile")
		return nil, fmt.Errorf("error updating user profile: %w", err)
	}

	if err := s.cache.Del(ctx, profileCacheKey(userID)).Err(); err != nil {
		l.WarnContext(ctx, "Failed to invalidate cached profile", slog.Any("error", err))
	}

	l.InfoContext(ctx, "User profile updated successfully")
	span.SetStatus(codes.Ok, "User profile updated successfully")
	return profile, nil
}
