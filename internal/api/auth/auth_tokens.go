package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/internshipkaro/platform-api/config"
	"github.com/internshipkaro/platform-api/internal/types"
)

// TokenService signs and verifies the access/refresh token pair. Access and
// refresh tokens use separate secrets and carry a "type" claim, so a refresh
// token can never be presented as an access token or vice versa.
type TokenService struct {
	cfg config.JWTConfig
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// IssueTokenPair creates a fresh access + refresh token pair for the user.
func (t *TokenService) IssueTokenPair(userID, email string) (*types.TokenPair, error) {
	accessToken, err := t.sign(userID, email, types.TokenTypeAccess, t.cfg.AccessTokenTTL, t.cfg.AccessSecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := t.sign(userID, email, types.TokenTypeRefresh, t.cfg.RefreshTokenTTL, t.cfg.RefreshSecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &types.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(t.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (t *TokenService) sign(userID, email, tokenType string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Verify parses and validates a token of the expected type and returns its
// claims. Expired tokens, bad signatures and type mismatches each map to
// their own sentinel so callers can log and respond precisely.
func (t *TokenService) Verify(raw, expectedType string) (*types.Claims, error) {
	secret := t.cfg.AccessSecretKey
	if expectedType == types.TokenTypeRefresh {
		secret = t.cfg.RefreshSecretKey
	}

	claims := &types.Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(t.cfg.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", types.ErrTokenInvalid, err)
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("%w: got %q, want %q", types.ErrTokenWrongType, claims.TokenType, expectedType)
	}

	return claims, nil
}
