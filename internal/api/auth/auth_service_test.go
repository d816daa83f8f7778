package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/crypto/bcrypt"

	"github.com/internshipkaro/platform-api/app/observability/metrics"
	"github.com/internshipkaro/platform-api/internal/types"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, params CreateUserParams) (*types.UserProfile, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockAuthRepo) GetUserAuthByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

func (m *MockAuthRepo) UpdateLastActive(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestAuthService(repo AuthRepo) *AuthServiceImpl {
	appMetrics, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		panic(err)
	}
	svc := NewAuthService(repo, NewTokenService(testJWTConfig()), appMetrics, slog.Default())
	svc.hashCost = bcrypt.MinCost // keep the tests fast
	return svc
}

func testUserProfile(email string) *types.UserProfile {
	now := time.Now()
	return &types.UserProfile{
		ID:                 uuid.New(),
		Email:              email,
		FirstName:          "Test",
		LastName:           "User",
		ExperienceLevel:    types.ExperienceBeginner,
		SubscriptionStatus: types.SubscriptionFree,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		profile := testUserProfile("new@example.com")
		mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(p CreateUserParams) bool {
			return p.Email == "new@example.com" &&
				p.FirstName == "Test" &&
				p.ExperienceLevel == types.ExperienceBeginner &&
				bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("password123")) == nil
		})).Return(profile, nil).Once()

		payload, err := service.Register(ctx, types.RegisterRequest{
			Email:           "new@example.com",
			Password:        "password123",
			FirstName:       "Test",
			LastName:        "User",
			ExperienceLevel: types.ExperienceBeginner,
		})

		require.NoError(t, err)
		assert.Equal(t, profile, payload.User)
		assert.NotEmpty(t, payload.Tokens.AccessToken)
		assert.NotEmpty(t, payload.Tokens.RefreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("EmailExists", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		mockRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("CreateUserParams")).
			Return(nil, types.ErrConflict).Once()

		payload, err := service.Register(ctx, types.RegisterRequest{
			Email:           "existing@example.com",
			Password:        "password123",
			FirstName:       "Test",
			LastName:        "User",
			ExperienceLevel: types.ExperienceBeginner,
		})

		assert.Nil(t, payload)
		assert.ErrorIs(t, err, types.ErrConflict)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ValidationFailures", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		payload, err := service.Register(ctx, types.RegisterRequest{
			Email:    "not-an-email",
			Password: "short",
		})

		assert.Nil(t, payload)
		assert.ErrorIs(t, err, types.ErrValidation)

		var vErrs *types.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		fields := make([]string, 0, len(vErrs.Fields))
		for _, f := range vErrs.Fields {
			fields = append(fields, f.Field)
		}
		assert.ElementsMatch(t, []string{"email", "password", "firstName", "lastName", "experienceLevel"}, fields)
		mockRepo.AssertNotCalled(t, "CreateUser")
	})

	t.Run("MissingExperienceLevel", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		_, err := service.Register(ctx, types.RegisterRequest{
			Email:     "new@example.com",
			Password:  "password123",
			FirstName: "Test",
			LastName:  "User",
		})

		var vErrs *types.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		require.Len(t, vErrs.Fields, 1)
		assert.Equal(t, "experienceLevel", vErrs.Fields[0].Field)
		mockRepo.AssertNotCalled(t, "CreateUser")
	})

	t.Run("InvalidExperienceLevel", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		_, err := service.Register(ctx, types.RegisterRequest{
			Email:           "new@example.com",
			Password:        "password123",
			FirstName:       "Test",
			LastName:        "User",
			ExperienceLevel: "WIZARD",
		})

		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "CreateUser")
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		password := "password123"
		hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		profile := testUserProfile("test@example.com")
		ua := &types.UserAuth{Profile: *profile, PasswordHash: string(hashed)}

		mockRepo.On("GetUserAuthByEmail", mock.Anything, "test@example.com").Return(ua, nil).Once()
		mockRepo.On("UpdateLastActive", mock.Anything, profile.ID).Return(nil).Once()

		payload, err := service.Login(ctx, types.LoginRequest{Email: "test@example.com", Password: password})

		require.NoError(t, err)
		assert.Equal(t, profile.ID, payload.User.ID)
		assert.NotEmpty(t, payload.Tokens.AccessToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		mockRepo.On("GetUserAuthByEmail", mock.Anything, "nobody@example.com").Return(nil, types.ErrNotFound).Once()

		payload, err := service.Login(ctx, types.LoginRequest{Email: "nobody@example.com", Password: "password123"})

		assert.Nil(t, payload)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		hashed, _ := bcrypt.GenerateFromPassword([]byte("correctpassword"), bcrypt.MinCost)
		profile := testUserProfile("test@example.com")
		ua := &types.UserAuth{Profile: *profile, PasswordHash: string(hashed)}

		mockRepo.On("GetUserAuthByEmail", mock.Anything, "test@example.com").Return(ua, nil).Once()

		payload, err := service.Login(ctx, types.LoginRequest{Email: "test@example.com", Password: "wrongpassword"})

		assert.Nil(t, payload)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
		mockRepo.AssertNotCalled(t, "UpdateLastActive")
		mockRepo.AssertExpectations(t)
	})

	t.Run("LastActiveFailureDoesNotFailLogin", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		password := "password123"
		hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		profile := testUserProfile("test@example.com")
		ua := &types.UserAuth{Profile: *profile, PasswordHash: string(hashed)}

		mockRepo.On("GetUserAuthByEmail", mock.Anything, "test@example.com").Return(ua, nil).Once()
		mockRepo.On("UpdateLastActive", mock.Anything, profile.ID).Return(errors.New("database error")).Once()

		payload, err := service.Login(ctx, types.LoginRequest{Email: "test@example.com", Password: password})

		require.NoError(t, err)
		assert.NotNil(t, payload)
		mockRepo.AssertExpectations(t)
	})
}

func TestRefreshSession(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		profile := testUserProfile("test@example.com")
		pair, err := service.tokens.IssueTokenPair(profile.ID.String(), profile.Email)
		require.NoError(t, err)

		mockRepo.On("GetUserByID", mock.Anything, profile.ID).Return(profile, nil).Once()

		payload, err := service.RefreshSession(ctx, pair.RefreshToken)

		require.NoError(t, err)
		assert.Equal(t, profile, payload.User)
		assert.NotEmpty(t, payload.Tokens.AccessToken)
		assert.NotEmpty(t, payload.Tokens.RefreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		pair, err := service.tokens.IssueTokenPair(uuid.NewString(), "test@example.com")
		require.NoError(t, err)

		payload, err := service.RefreshSession(ctx, pair.AccessToken)

		assert.Nil(t, payload)
		assert.ErrorIs(t, err, types.ErrTokenInvalid)
		mockRepo.AssertNotCalled(t, "GetUserByID")
	})

	t.Run("UserDeleted", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		userID := uuid.New()
		pair, err := service.tokens.IssueTokenPair(userID.String(), "gone@example.com")
		require.NoError(t, err)

		mockRepo.On("GetUserByID", mock.Anything, userID).Return(nil, types.ErrNotFound).Once()

		payload, err := service.RefreshSession(ctx, pair.RefreshToken)

		assert.Nil(t, payload)
		assert.ErrorIs(t, err, types.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()

		payload, err := service.RefreshSession(ctx, "not-a-jwt")

		assert.Nil(t, payload)
		assert.ErrorIs(t, err, types.ErrTokenInvalid)
	})
}

func TestLogout(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()
		userID := uuid.New()

		mockRepo.On("UpdateLastActive", ctx, userID).Return(nil).Once()

		err := service.Logout(ctx, userID)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo)
		ctx := context.Background()
		userID := uuid.New()
		expectedError := errors.New("database error")

		mockRepo.On("UpdateLastActive", ctx, userID).Return(expectedError).Once()

		err := service.Logout(ctx, userID)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), expectedError.Error())
		mockRepo.AssertExpectations(t)
	})
}
