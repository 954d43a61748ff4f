package sessionguard_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/phonebook"
	"github.com/kestrelhq/phonebook/middleware/sessionguard"
)

type stubUsers struct {
	user *phonebook.User
}

func (s stubUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*phonebook.User, error) {
	if s.user != nil && s.user.ID.String() == id {
		return s.user, nil
	}
	return nil, repository.NewRecordNotFound()
}

func newGuardedApp(t *testing.T, users sessionguard.UserLoader, tokens *phonebook.TokenServiceImpl) *fiber.App {
	t.Helper()

	app := fiber.New()
	guard := sessionguard.New(sessionguard.Config{
		Validator: tokens,
		Users:     users,
	})

	app.Get("/protected", guard, func(c *fiber.Ctx) error {
		user, ok := phonebook.UserFromLocals(c)
		require.True(t, ok)

		ctxUser, ok := phonebook.FromContext(c.UserContext())
		require.True(t, ok)
		require.Equal(t, user.ID, ctxUser.ID)

		return c.JSON(user.Projection())
	})

	return app
}

func requestWithToken(app *fiber.App, token string) (int, string) {
	req := httptest.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, ""
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestSessionGuard(t *testing.T) {
	tokens := phonebook.NewTokenService([]byte("test-signing-key"), time.Hour, "phonebook", nil)

	newUser := func(t *testing.T) (*phonebook.User, string) {
		t.Helper()

		user := &phonebook.User{
			ID:           uuid.New(),
			Email:        "a@x.com",
			Subscription: phonebook.TierStarter,
		}

		token, err := tokens.Generate(user.ID.String())
		require.NoError(t, err)
		user.SessionToken = &token

		return user, token
	}

	t.Run("admits a valid active session", func(t *testing.T) {
		user, token := newUser(t)
		app := newGuardedApp(t, stubUsers{user: user}, tokens)

		status, body := requestWithToken(app, token)

		assert.Equal(t, fiber.StatusOK, status)

		var projection phonebook.UserProjection
		require.NoError(t, json.Unmarshal([]byte(body), &projection))
		assert.Equal(t, "a@x.com", projection.Email)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		user, _ := newUser(t)
		app := newGuardedApp(t, stubUsers{user: user}, tokens)

		status, body := requestWithToken(app, "")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.JSONEq(t, `{"message":"Not authorized"}`, body)
	})

	t.Run("rejects a malformed token", func(t *testing.T) {
		user, _ := newUser(t)
		app := newGuardedApp(t, stubUsers{user: user}, tokens)

		status, body := requestWithToken(app, "garbage")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.JSONEq(t, `{"message":"Not authorized"}`, body)
	})

	t.Run("rejects a header without a space after the scheme", func(t *testing.T) {
		user, token := newUser(t)
		app := newGuardedApp(t, stubUsers{user: user}, tokens)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer"+token)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects a wrong scheme", func(t *testing.T) {
		user, token := newUser(t)
		app := newGuardedApp(t, stubUsers{user: user}, tokens)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Basic "+token)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects a token for an unknown user", func(t *testing.T) {
		_, token := newUser(t)
		app := newGuardedApp(t, stubUsers{}, tokens)

		status, body := requestWithToken(app, token)

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.JSONEq(t, `{"message":"Not authorized"}`, body)
	})

	t.Run("rejects a superseded token", func(t *testing.T) {
		user, token := newUser(t)

		// A later login rotated the stored token; the old one still carries a
		// valid signature but must no longer pass.
		rotated := "rotated-session-token"
		user.SessionToken = &rotated

		app := newGuardedApp(t, stubUsers{user: user}, tokens)

		status, body := requestWithToken(app, token)

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.JSONEq(t, `{"message":"Not authorized"}`, body)
	})

	t.Run("rejects a cleared session", func(t *testing.T) {
		user, token := newUser(t)
		user.SessionToken = nil

		app := newGuardedApp(t, stubUsers{user: user}, tokens)

		status, _ := requestWithToken(app, token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}
