package types

import (
	"time"

	"github.com/google/uuid"
)

// Experience levels a user can self-report.
const (
	ExperienceBeginner     = "BEGINNER"
	ExperienceIntermediate = "INTERMEDIATE"
	ExperienceAdvanced     = "ADVANCED"
	ExperienceExpert       = "EXPERT"
)

// Subscription tiers. New accounts always start on FREE.
const (
	SubscriptionFree       = "FREE"
	SubscriptionBasic      = "BASIC"
	SubscriptionPremium    = "PREMIUM"
	SubscriptionEnterprise = "ENTERPRISE"
)

// ValidExperienceLevel reports whether s is one of the known levels.
func ValidExperienceLevel(s string) bool {
	switch s {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced, ExperienceExpert:
		return true
	}
	return false
}

// UserProfile is the user record as returned to clients. The password hash
// never leaves the repository layer in this struct.
type UserProfile struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"firstName"`
	LastName           string     `json:"lastName"`
	Avatar             *string    `json:"avatar,omitempty"`
	Bio                *string    `json:"bio,omitempty"`
	CurrentRole        *string    `json:"currentRole,omitempty"`
	Location           *string    `json:"location,omitempty"`
	LinkedinProfile    *string    `json:"linkedinProfile,omitempty"`
	PortfolioURL       *string    `json:"portfolioUrl,omitempty"`
	ExperienceLevel    string     `json:"experienceLevel"`
	SubscriptionStatus string     `json:"subscriptionStatus"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	LastActive         *time.Time `json:"lastActive,omitempty"`
}

// UserAuth carries the profile together with the stored password hash.
// Only the auth repository produces it and only the auth service consumes it.
type UserAuth struct {
	Profile      UserProfile
	PasswordHash string
}

// UpdateProfileParams is the mutable field set for partial profile updates.
// Pointers distinguish "not provided" from "set to empty". Email, experience
// level and subscription status are deliberately absent: they are immutable
// through this endpoint.
type UpdateProfileParams struct {
	FirstName       *string `json:"firstName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	Avatar          *string `json:"avatar,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	CurrentRole     *string `json:"currentRole,omitempty"`
	Location        *string `json:"location,omitempty"`
	LinkedinProfile *string `json:"linkedinProfile,omitempty"`
	PortfolioURL    *string `json:"portfolioUrl,omitempty"`
}

// IsEmpty reports whether no field was provided at all.
func (p UpdateProfileParams) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Avatar == nil &&
		p.Bio == nil && p.CurrentRole == nil && p.Location == nil &&
		p.LinkedinProfile == nil && p.PortfolioURL == nil
}
