package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/internshipkaro/platform-api/app/observability/metrics"
	"github.com/internshipkaro/platform-api/internal/api"
	"github.com/internshipkaro/platform-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user profile persistence.
type UserRepo interface {
	// GetUserByID retrieves a user's full profile by their unique ID.
	// Returns types.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)

	// UpdateProfile updates mutable fields on a user's profile and returns
	// the updated row. Only non-nil fields in params are written.
	// Returns types.ErrNotFound if the user doesn't exist.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error)
}

// current_role is a reserved word in Postgres and must stay quoted.
const userColumns = `id, email, first_name, last_name, avatar, bio, "current_role",
       location, linkedin_profile, portfolio_url, experience_level,
       subscription_status, created_at, updated_at, last_active`

type PostgresUserRepo struct {
	logger  *slog.Logger
	pgpool  api.PGXPool
	metrics *metrics.AppMetrics
}

func NewPostgresUserRepo(pgpool api.PGXPool, appMetrics *metrics.AppMetrics, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger:  logger,
		pgpool:  pgpool,
		metrics: appMetrics,
	}
}

func scanUserProfile(row pgx.Row) (*types.UserProfile, error) {
	var u types.UserProfile
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar, &u.Bio,
		&u.CurrentRole, &u.Location, &u.LinkedinProfile, &u.PortfolioURL,
		&u.ExperienceLevel, &u.SubscriptionStatus, &u.CreatedAt, &u.UpdatedAt, &u.LastActive)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "get_user_by_id", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	profile, err := scanUserProfile(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user by ID", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return profile, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "update_profile", time.Now())

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Updating user profile")

	var setClauses []string
	var args []interface{}
	argID := 1

	addClause := func(column string, value *string) {
		if value == nil {
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, *value)
		argID++
		span.SetAttributes(attribute.Bool("update."+strings.Trim(column, `"`), true))
	}

	addClause("first_name", params.FirstName)
	addClause("last_name", params.LastName)
	addClause("avatar", params.Avatar)
	addClause("bio", params.Bio)
	addClause(`"current_role"`, params.CurrentRole)
	addClause("location", params.Location)
	addClause("linkedin_profile", params.LinkedinProfile)
	addClause("portfolio_url", params.PortfolioURL)

	if len(setClauses) == 0 {
		l.WarnContext(ctx, "UpdateProfile called with no fields to update")
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetUserByID(ctx, userID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argID))
	args = append(args, time.Now())
	argID++

	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argID, userColumns)

	l.DebugContext(ctx, "Executing dynamic update query", slog.Int("arg_count", len(args)))

	profile, err := scanUserProfile(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.WarnContext(ctx, "User not found for update")
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user not found for update: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to execute update profile query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated successfully")
	span.SetStatus(codes.Ok, "Profile updated")
	return profile, nil
}
