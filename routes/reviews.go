package routes

import (
	"github.com/gofiber/fiber/v2"

	"ustore/middleware"
	"ustore/repository"
	"ustore/services"
)

// getProductReviews supports order=recent|helpful, rating=<1..5> and verified=true.
func (h *Handler) getProductReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	f := repository.ReviewFilter{Order: repository.ReviewOrder(c.Query("order", string(repository.ReviewsRecent)))}
	if f.Rating, err = queryInt(c, "rating"); err != nil {
		return h.fail(c, err)
	}
	verified, err := queryBool(c, "verified")
	if err != nil {
		return h.fail(c, err)
	}
	f.VerifiedOnly = verified != nil && *verified

	page, err := h.Reviews.ListByProduct(c.UserContext(), id, f, pageRequest(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) getRatingDistribution(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	dist, err := h.Reviews.Distribution(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dist)
}

func (h *Handler) getReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	review, err := h.Reviews.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(review)
}

func (h *Handler) createReview(c *fiber.Ctx) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req services.ReviewInput
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	review, err := h.Reviews.Create(c.UserContext(), middleware.Principal(c), productID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *Handler) updateReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var patch services.ReviewPatch
	if err := parseBody(c, &patch); err != nil {
		return h.fail(c, err)
	}

	review, err := h.Reviews.Update(c.UserContext(), middleware.Principal(c), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(review)
}

func (h *Handler) deleteReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.Reviews.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, "Review deleted successfully")
}

func (h *Handler) voteHelpful(c *fiber.Ctx) error {
	return h.vote(c, true)
}

func (h *Handler) voteNotHelpful(c *fiber.Ctx) error {
	return h.vote(c, false)
}

func (h *Handler) vote(c *fiber.Ctx, helpful bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	review, err := h.Reviews.Vote(c.UserContext(), id, helpful)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(review)
}
