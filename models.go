package phonebook

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SubscriptionTier is the user's plan
type SubscriptionTier = string

const (
	// TierStarter is the default plan assigned at signup
	TierStarter SubscriptionTier = "starter"
	// TierPro is the paid individual plan
	TierPro SubscriptionTier = "pro"
	// TierBusiness is the team plan
	TierBusiness SubscriptionTier = "business"
)

// ParseTier validates a subscription tier name.
func ParseTier(s string) (SubscriptionTier, bool) {
	switch s {
	case TierStarter, TierPro, TierBusiness:
		return s, true
	default:
		return "", false
	}
}

// User is the account model. The password hash and both tokens never reach
// clients; the JSON projection for responses is UserProjection.
type User struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string           `bun:"email,notnull,unique" json:"email"`
	PasswordHash      string           `bun:"password_hash,notnull" json:"-"`
	Subscription      SubscriptionTier `bun:"subscription,notnull" json:"subscription"`
	AvatarURL         string           `bun:"avatar_url,notnull" json:"avatarUrl"`
	SessionToken      *string          `bun:"session_token" json:"-"`
	VerificationToken *string          `bun:"verification_token" json:"-"`
	Verified          bool             `bun:"verified,notnull" json:"verified"`
	CreatedAt         *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasActiveSession reports whether token matches the currently stored session
// token. A cryptographically valid but superseded token fails this check.
func (u *User) HasActiveSession(token string) bool {
	return u.SessionToken != nil && token != "" && *u.SessionToken == token
}

// Projection returns the public view of the user.
func (u *User) Projection() UserProjection {
	return UserProjection{
		Email:        u.Email,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}
}

// UserProjection is the client-facing shape of a user record.
type UserProjection struct {
	Email        string           `json:"email"`
	Subscription SubscriptionTier `json:"subscription"`
	AvatarURL    string           `json:"avatarUrl"`
}

// GravatarURL derives the default avatar for an email. The md5-of-lowercase
// scheme is the gravatar wire format, so the result is deterministic for a
// given address.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon", sum)
}

// Contact is a phonebook entry. Contacts carry no owner linkage; see the
// route table for which endpoints sit behind the session guard.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:cnt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name"`
	Email         string     `bun:"email,notnull" json:"email"`
	Phone         string     `bun:"phone,notnull" json:"phone"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
