package routes

import (
	"github.com/gofiber/fiber/v2"

	"ustore/middleware"
	"ustore/services"
)

func (h *Handler) signIn(c *fiber.Ctx) error {
	var req services.SignInRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	result, err := h.Auth.SignIn(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) signUp(c *fiber.Ctx) error {
	var req services.NewUser
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	user, err := h.Auth.SignUp(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *Handler) me(c *fiber.Ctx) error {
	user, err := h.Auth.CurrentUser(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) updateMe(c *fiber.Ctx) error {
	p, err := services.RequirePrincipal(middleware.Principal(c))
	if err != nil {
		return h.fail(c, err)
	}
	var patch services.UserPatch
	if err := parseBody(c, &patch); err != nil {
		return h.fail(c, err)
	}

	user, err := h.Users.Update(c.UserContext(), p.UserID, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	p, err := services.RequirePrincipal(middleware.Principal(c))
	if err != nil {
		return h.fail(c, err)
	}
	var req services.PasswordChange
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	if err := h.Users.ChangePassword(c.UserContext(), p.UserID, req); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Password changed successfully")
}
