// Package middleware holds the fiber handlers that run ahead of the routes:
// principal resolution, role guards, rate limiting and request metrics.
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"ustore/apperror"
	"ustore/models"
	"ustore/services"
)

const principalKey = "principal"

// PrincipalResolver turns a bearer token into the acting principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*services.Principal, error)
}

// Authenticate resolves the bearer token when one is sent and stores the
// principal on the request. Requests without a token pass through
// anonymously; a token that does not verify is rejected.
func Authenticate(resolver PrincipalResolver, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return Fail(c, apperror.New(apperror.Unauthenticated, "Invalid token format, must be 'Bearer <token>'"))
		}

		principal, err := resolver.ResolvePrincipal(c.UserContext(), token)
		if err != nil {
			log.WithError(err).WithField("path", c.Path()).Debug("Token rejected")
			return Fail(c, err)
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Principal returns the principal resolved for the request, or nil.
func Principal(c *fiber.Ctx) *services.Principal {
	p, _ := c.Locals(principalKey).(*services.Principal)
	return p
}

// RequireAuth rejects anonymous requests.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Principal(c) == nil {
			return Fail(c, apperror.New(apperror.Unauthenticated, "Authentication is required"))
		}
		return c.Next()
	}
}

// RequireRoles admits principals holding at least one of roles.
func RequireRoles(roles ...models.RoleName) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Principal(c)
		if p == nil {
			return Fail(c, apperror.New(apperror.Unauthenticated, "Authentication is required"))
		}
		if !p.HasAnyRole(roles...) {
			return Fail(c, apperror.New(apperror.Forbidden, "Access denied"))
		}
		return c.Next()
	}
}

// Fail writes err as a JSON error body with the status of its kind.
func Fail(c *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)
	return c.Status(apperror.HTTPStatus(kind)).JSON(fiber.Map{
		"error": apperror.Message(err),
		"kind":  kind,
	})
}
