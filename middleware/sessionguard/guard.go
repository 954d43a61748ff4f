// Package sessionguard authorizes requests against the bearer token stored on
// the user record. A token must be cryptographically valid AND match the
// stored session token; a superseded token from an earlier login fails even
// though its signature still verifies.
package sessionguard

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-repository-bun"

	"github.com/kestrelhq/phonebook"
)

// TokenValidator validates raw bearer tokens. This mirrors the
// TokenService.Validate method from the phonebook package.
type TokenValidator interface {
	Validate(raw string) (*phonebook.SessionClaims, error)
}

// UserLoader resolves a user by id so the guard can compare the presented
// token against the stored one. This mirrors the users repository signature.
type UserLoader interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*phonebook.User, error)
}

type Config struct {
	Filter       func(*fiber.Ctx) bool
	ErrorHandler fiber.ErrorHandler
	Validator    TokenValidator
	Users        UserLoader
	ContextKey   string
	AuthScheme   string
}

// New builds the guard middleware. Every failure mode collapses to the same
// generic unauthorized response so the caller cannot tell which check failed.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := tokenFromHeader(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.Validator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		user, err := cfg.Users.GetByID(c.Context(), claims.UserID())
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if !user.HasActiveSession(raw) {
			return cfg.ErrorHandler(c, phonebook.ErrNotAuthorized)
		}

		c.Locals(cfg.ContextKey, user)
		c.SetUserContext(phonebook.WithContext(c.UserContext(), user))

		return c.Next()
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Validator == nil {
		panic("GUARD: session guard configuration: Validator is required.")
	}

	if cfg.Users == nil {
		panic("GUARD: session guard configuration: Users loader is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = phonebook.UserContextKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, _ error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": phonebook.ErrNotAuthorized.Message,
			})
		}
	}

	return cfg
}

// tokenFromHeader accepts only the exact `<scheme> <token>` shape.
func tokenFromHeader(header, authScheme string) (string, error) {
	l := len(authScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], authScheme) && header[l] == ' ' {
		token := strings.TrimSpace(header[l+1:])
		if token != "" {
			return token, nil
		}
	}
	return "", phonebook.ErrNotAuthorized
}
