package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ustore/apperror"
	"ustore/logging"
	"ustore/models"
	"ustore/services"
)

type stubResolver map[string]*services.Principal

func (s stubResolver) ResolvePrincipal(_ context.Context, token string) (*services.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, apperror.New(apperror.Unauthenticated, "Invalid token")
}

func newGuardedApp() *fiber.App {
	resolver := stubResolver{
		"user-token":  {UserID: 1, Username: "ann", Roles: []string{string(models.RoleUser)}},
		"admin-token": {UserID: 2, Username: "root", Roles: []string{string(models.RoleUser), string(models.RoleAdmin)}},
	}

	app := fiber.New()
	app.Use(Authenticate(resolver, logging.Discard()))
	app.Get("/public", func(c *fiber.Ctx) error {
		if p := Principal(c); p != nil {
			return c.SendString(p.Username)
		}
		return c.SendString("anonymous")
	})
	app.Get("/private", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString(Principal(c).Username)
	})
	app.Get("/admin", RequireRoles(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func do(t *testing.T, app *fiber.App, path, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthenticate(t *testing.T) {
	app := newGuardedApp()

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
	}{
		{"anonymous public", "/public", "", http.StatusOK},
		{"user public", "/public", "Bearer user-token", http.StatusOK},
		{"bad scheme", "/public", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "/public", "Bearer nope", http.StatusUnauthorized},
		{"anonymous private", "/private", "", http.StatusUnauthorized},
		{"user private", "/private", "Bearer user-token", http.StatusOK},
		{"anonymous admin", "/admin", "", http.StatusUnauthorized},
		{"user admin", "/admin", "Bearer user-token", http.StatusForbidden},
		{"admin admin", "/admin", "Bearer admin-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, app, tt.path, tt.auth)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestFailWritesKind(t *testing.T) {
	app := newGuardedApp()

	resp := do(t, app, "/admin", "Bearer user-token")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(apperror.Forbidden), body["kind"])
	assert.Equal(t, "Access denied", body["error"])
}
