package routes

import (
	"github.com/gofiber/fiber/v2"

	"ustore/services"
)

func (h *Handler) getAllUsers(c *fiber.Ctx) error {
	page, err := h.Users.List(c.UserContext(), pageRequest(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) getActiveUsers(c *fiber.Ctx) error {
	users, err := h.Users.ListActive(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(users)
}

// createUser registers an account on behalf of an administrator. Like
// sign-up it always grants the default role only.
func (h *Handler) createUser(c *fiber.Ctx) error {
	var req services.NewUser
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	user, err := h.Users.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	user, err := h.Users.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var patch services.UserPatch
	if err := parseBody(c, &patch); err != nil {
		return h.fail(c, err)
	}

	user, err := h.Users.Update(c.UserContext(), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) activateUser(c *fiber.Ctx) error {
	return h.idAction(c, h.Users.Activate, "User activated successfully")
}

func (h *Handler) deactivateUser(c *fiber.Ctx) error {
	return h.idAction(c, h.Users.Deactivate, "User deactivated successfully")
}

func (h *Handler) verifyUser(c *fiber.Ctx) error {
	return h.idAction(c, h.Users.Verify, "User verified successfully")
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	return h.idAction(c, h.Users.Delete, "User deleted successfully")
}

func (h *Handler) getUserReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	page, err := h.Reviews.ListByUser(c.UserContext(), id, pageRequest(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}
