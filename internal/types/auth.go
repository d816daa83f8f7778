package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminator carried in the "type" claim. Both token kinds
// share a claim shape, so the verifier rejects a token presented for the
// wrong purpose.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the signed JWT payload for both access and refresh tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is the envelope returned to clients after register, login and
// refresh. ExpiresIn is the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthPayload is the data section of every successful auth response.
type AuthPayload struct {
	User   *UserProfile `json:"user"`
	Tokens *TokenPair   `json:"tokens"`
}

// RegisterRequest is the POST /api/auth/register body.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ExperienceLevel string `json:"experienceLevel"`
}

// LoginRequest is the POST /api/auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the POST /api/auth/refresh body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
