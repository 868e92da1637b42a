package auth

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helper "jadwalku_backend/internals/helpers"
)

const testSecret = "test-secret"

func signed(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func newAuthApp(opts ActorJWTOpts, roles ...string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: helper.FromFiberError})
	handlers := []fiber.Handler{ActorJWT(opts)}
	if len(roles) > 0 {
		handlers = append(handlers, OnlyRoles("", roles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		actor, err := helper.GetActorID(c)
		if err != nil {
			return err
		}
		return c.SendString(actor)
	})
	app.Get("/me", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestActorJWTSetsActorFromClaims(t *testing.T) {
	app := newAuthApp(ActorJWTOpts{Secret: testSecret})

	status, body := doGet(t, app, signed(t, testSecret, jwt.MapClaims{"sub": "user-42"}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "user-42", body)

	// id lebih diutamakan dari sub
	status, body = doGet(t, app, signed(t, testSecret, jwt.MapClaims{"id": "u-1", "sub": "u-2"}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u-1", body)
}

func TestActorJWTRejects(t *testing.T) {
	app := newAuthApp(ActorJWTOpts{Secret: testSecret})

	cases := map[string]string{
		"missing":      "",
		"wrong secret": signed(t, "other", jwt.MapClaims{"sub": "x"}),
		"expired":      signed(t, testSecret, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no identity":  signed(t, testSecret, jwt.MapClaims{"roles_global": []string{"admin"}}),
	}
	for name, tok := range cases {
		status, _ := doGet(t, app, tok)
		assert.Equal(t, fiber.StatusUnauthorized, status, name)
	}
}

func TestActorJWTBlacklist(t *testing.T) {
	revoked := signed(t, testSecret, jwt.MapClaims{"sub": "gone"})
	app := newAuthApp(ActorJWTOpts{
		Secret: testSecret,
		BlacklistChecker: func(_ *fiber.Ctx, raw string) (bool, error) {
			if raw == revoked {
				return true, nil
			}
			return false, errors.New("redis down")
		},
	})

	status, _ := doGet(t, app, revoked)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	// checker error tidak memblokir
	status, body := doGet(t, app, signed(t, testSecret, jwt.MapClaims{"sub": "ok"}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestOnlyRoles(t *testing.T) {
	app := newAuthApp(ActorJWTOpts{Secret: testSecret}, "admin", "scheduler")

	status, _ := doGet(t, app, signed(t, testSecret, jwt.MapClaims{"sub": "a", "roles_global": []string{"Scheduler"}}))
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doGet(t, app, signed(t, testSecret, jwt.MapClaims{"sub": "b", "roles_global": []string{"user"}}))
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = doGet(t, app, signed(t, testSecret, jwt.MapClaims{"sub": "c"}))
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestBlacklistKeyHashesToken(t *testing.T) {
	k := BlacklistKey("abc")
	assert.Equal(t, "token_blacklist:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", k)
	assert.NotContains(t, k[len("token_blacklist:"):], "abc")
	assert.Nil(t, RedisBlacklist(nil))
}
