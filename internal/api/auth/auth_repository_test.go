package auth

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
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/internshipkaro/platform-api/app/observability/metrics"
	"github.com/internshipkaro/platform-api/internal/types"
)

var profileColumns = []string{
	"id", "email", "first_name", "last_name", "avatar", "bio", "current_role",
	"location", "linkedin_profile", "portfolio_url", "experience_level",
	"subscription_status", "created_at", "updated_at", "last_active",
}

func profileRow(userID uuid.UUID, email string, now time.Time) []any {
	return []any{
		userID, email, "Test", "User", nil, nil, nil,
		nil, nil, nil, types.ExperienceBeginner,
		types.SubscriptionFree, now, now, nil,
	}
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresAuthRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	appMetrics, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return mockPool, NewPostgresAuthRepo(mockPool, appMetrics, slog.Default())
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		now := time.Now()

		// last_active is written at creation alongside created_at.
		row := profileRow(userID, "new@example.com", now)
		row[len(row)-1] = &now
		mockPool.ExpectQuery(`INSERT INTO users \(email, password_hash, first_name, last_name, experience_level, last_active\)`).
			WithArgs("new@example.com", "hashed-password", "Test", "User", types.ExperienceBeginner).
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(row...))

		profile, err := repo.CreateUser(context.Background(), CreateUserParams{
			Email:           "new@example.com",
			PasswordHash:    "hashed-password",
			FirstName:       "Test",
			LastName:        "User",
			ExperienceLevel: types.ExperienceBeginner,
		})

		require.NoError(t, err)
		assert.Equal(t, userID, profile.ID)
		assert.Equal(t, "new@example.com", profile.Email)
		assert.Equal(t, types.SubscriptionFree, profile.SubscriptionStatus)
		require.NotNil(t, profile.LastActive)
		assert.WithinDuration(t, now, *profile.LastActive, time.Second)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs("taken@example.com", "hashed-password", "Test", "User", types.ExperienceBeginner).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		profile, err := repo.CreateUser(context.Background(), CreateUserParams{
			Email:           "taken@example.com",
			PasswordHash:    "hashed-password",
			FirstName:       "Test",
			LastName:        "User",
			ExperienceLevel: types.ExperienceBeginner,
		})

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetUserAuthByEmail(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		now := time.Now()

		columns := append([]string{"password_hash"}, profileColumns...)
		row := append([]any{"hashed-password"}, profileRow(userID, "test@example.com", now)...)

		mockPool.ExpectQuery("SELECT password_hash,").
			WithArgs("test@example.com").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(row...))

		ua, err := repo.GetUserAuthByEmail(context.Background(), "test@example.com")

		require.NoError(t, err)
		assert.Equal(t, "hashed-password", ua.PasswordHash)
		assert.Equal(t, userID, ua.Profile.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("SELECT password_hash,").
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows(append([]string{"password_hash"}, profileColumns...)))

		ua, err := repo.GetUserAuthByEmail(context.Background(), "nobody@example.com")

		assert.Nil(t, ua)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		now := time.Now()

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE id =").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(profileRow(userID, "test@example.com", now)...))

		profile, err := repo.GetUserByID(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, userID, profile.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE id =").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows(profileColumns))

		profile, err := repo.GetUserByID(context.Background(), userID)

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestUpdateLastActive(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()

		mockPool.ExpectExec("UPDATE users SET last_active").
			WithArgs(pgxmock.AnyArg(), userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateLastActive(context.Background(), userID)

		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()

		mockPool.ExpectExec("UPDATE users SET last_active").
			WithArgs(pgxmock.AnyArg(), userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateLastActive(context.Background(), userID)

		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestQueriesRecordDuration(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	reader := sdkmetric.NewManualReader()
	appMetrics, err := metrics.New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	repo := NewPostgresAuthRepo(mockPool, appMetrics, slog.Default())

	userID := uuid.New()
	mockPool.ExpectQuery("SELECT").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(profileRow(userID, "timed@example.com", time.Now())...))

	_, err = repo.GetUserByID(context.Background(), userID)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var recorded bool
	for _, sm := range rm.ScopeMetrics[0].Metrics {
		if sm.Name != "db_query_duration_seconds" {
			continue
		}
		hist, ok := sm.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
		recorded = true
	}
	assert.True(t, recorded, "query duration histogram was not recorded")
}
