package routes

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ustore/services"
)

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Image upload handler
func (h *Handler) uploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return h.fail(c, badRequest("Failed to get uploaded file"))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return h.fail(c, badRequest("Unsupported image type"))
	}

	// Generate unique filename
	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(h.UploadDir, filename)); err != nil {
		h.Log.WithError(err).Error("Failed to save uploaded file")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"filename": filename,
		"path":     "/uploads/" + filename,
	})
}

func (h *Handler) getProductImages(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	images, err := h.Images.List(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(images)
}

func (h *Handler) getPrimaryImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	image, err := h.Images.Primary(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(image)
}

func (h *Handler) addProductImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req services.ImageInput
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	image, err := h.Images.Add(c.UserContext(), id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(image)
}

func (h *Handler) updateProductImage(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var patch services.ImagePatch
	if err := parseBody(c, &patch); err != nil {
		return h.fail(c, err)
	}

	image, err := h.Images.Update(c.UserContext(), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(image)
}

func (h *Handler) deleteProductImage(c *fiber.Ctx) error {
	return h.idAction(c, h.Images.Delete, "Image deleted successfully")
}
