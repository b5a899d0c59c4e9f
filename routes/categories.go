package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"ustore/models"
	"ustore/services"
)

func (h *Handler) categoryList(c *fiber.Ctx, list func(context.Context) ([]models.Category, error)) error {
	categories, err := list(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(categories)
}

func (h *Handler) getAllCategories(c *fiber.Ctx) error {
	return h.categoryList(c, h.Categories.List)
}

func (h *Handler) getActiveCategories(c *fiber.Ctx) error {
	return h.categoryList(c, h.Categories.ListActive)
}

func (h *Handler) getRootCategories(c *fiber.Ctx) error {
	return h.categoryList(c, h.Categories.ListRoots)
}

func (h *Handler) getCategoriesWithProducts(c *fiber.Ctx) error {
	return h.categoryList(c, h.Categories.ListWithProducts)
}

func (h *Handler) getSubcategories(c *fiber.Ctx) error {
	parentID, err := paramID(c, "parentId")
	if err != nil {
		return h.fail(c, err)
	}
	return h.categoryList(c, func(ctx context.Context) ([]models.Category, error) {
		return h.Categories.ListByParent(ctx, parentID)
	})
}

func (h *Handler) getCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	category, err := h.Categories.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(category)
}

func (h *Handler) getCategoryBySlug(c *fiber.Ctx) error {
	category, err := h.Categories.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(category)
}

func (h *Handler) getCategoryProductCount(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	count, err := h.Categories.ProductCount(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"category_id": id, "count": count})
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	var req services.CategoryInput
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	category, err := h.Categories.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *Handler) updateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var patch services.CategoryPatch
	if err := parseBody(c, &patch); err != nil {
		return h.fail(c, err)
	}

	category, err := h.Categories.Update(c.UserContext(), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(category)
}

func (h *Handler) activateCategory(c *fiber.Ctx) error {
	return h.idAction(c, h.Categories.Activate, "Category activated successfully")
}

func (h *Handler) deactivateCategory(c *fiber.Ctx) error {
	return h.idAction(c, h.Categories.Deactivate, "Category deactivated successfully")
}

// deleteCategory removes the category; its products are kept without a category.
func (h *Handler) deleteCategory(c *fiber.Ctx) error {
	return h.idAction(c, h.Categories.Delete, "Category deleted successfully")
}
