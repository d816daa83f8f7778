package auth

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

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for credential and account persistence.
type AuthRepo interface {
	// CreateUser inserts a new account and returns the stored profile.
	// Returns types.ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, params CreateUserParams) (*types.UserProfile, error)

	// GetUserAuthByEmail retrieves the profile together with the password
	// hash for credential checks. Returns types.ErrNotFound when no account
	// exists for the email.
	GetUserAuthByEmail(ctx context.Context, email string) (*types.UserAuth, error)

	// GetUserByID retrieves a profile by its ID.
	// Returns types.ErrNotFound if the account no longer exists.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)

	// UpdateLastActive stamps the account's last_active timestamp.
	UpdateLastActive(ctx context.Context, userID uuid.UUID) error
}

// CreateUserParams carries the already-hashed credentials for a new account.
type CreateUserParams struct {
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	ExperienceLevel string
}

// userColumns is the shared SELECT list for profile scans. current_role is a
// reserved word in Postgres and must stay quoted.
const userColumns = `id, email, first_name, last_name, avatar, bio, "current_role",
       location, linkedin_profile, portfolio_url, experience_level,
       subscription_status, created_at, updated_at, last_active`

type PostgresAuthRepo struct {
	logger  *slog.Logger
	pgpool  api.PGXPool
	metrics *metrics.AppMetrics
}

func NewPostgresAuthRepo(pgpool api.PGXPool, appMetrics *metrics.AppMetrics, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
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

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, params CreateUserParams) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "create_user", time.Now())

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("email", params.Email))
	l.DebugContext(ctx, "Inserting new user")

	// New accounts start out active; last_active is stamped at creation, the
	// same instant as created_at.
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, experience_level, last_active)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING ` + userColumns

	profile, err := scanUserProfile(r.pgpool.QueryRow(ctx, query,
		params.Email, params.PasswordHash, params.FirstName, params.LastName, params.ExperienceLevel))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Email already registered")
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.String("userID", profile.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return profile, nil
}

func (r *PostgresAuthRepo) GetUserAuthByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserAuthByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "get_user_auth_by_email", time.Now())

	query := `
		SELECT password_hash, ` + userColumns + `
		FROM users WHERE email = $1`

	var ua types.UserAuth
	u := &ua.Profile
	err := r.pgpool.QueryRow(ctx, query, email).Scan(&ua.PasswordHash,
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar, &u.Bio,
		&u.CurrentRole, &u.Location, &u.LinkedinProfile, &u.PortfolioURL,
		&u.ExperienceLevel, &u.SubscriptionStatus, &u.CreatedAt, &u.UpdatedAt, &u.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("no account for email: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user by email", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return &ua, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
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

func (r *PostgresAuthRepo) UpdateLastActive(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "UpdateLastActive", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer r.metrics.ObserveDBQuery(ctx, "update_last_active", time.Now())

	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET last_active = $1 WHERE id = $2",
		time.Now(), userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update last_active", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating last_active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "last_active updated")
	return nil
}
