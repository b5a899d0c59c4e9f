package routes

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ustore/apperror"
	"ustore/middleware"
	"ustore/repository"
)

// fail writes err with the status of its kind. Errors without a kind are
// logged and reported as internal.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if apperror.KindOf(err) == apperror.Internal {
		h.Log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("Request failed")
	}
	return middleware.Fail(c, err)
}

func badRequest(message string) error {
	return apperror.New(apperror.ValidationFailed, message)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Wrap(apperror.ValidationFailed, "Failed to parse request body", err)
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Newf(apperror.ValidationFailed, "Invalid %s", name)
	}
	return uint(id), nil
}

// pageRequest reads page (zero-based), size and sort=<field>[,asc|desc].
func pageRequest(c *fiber.Ctx) repository.PageRequest {
	req := repository.PageRequest{
		Page: c.QueryInt("page", 0),
		Size: c.QueryInt("size", repository.DefaultPageSize),
	}
	if sort := c.Query("sort"); sort != "" {
		field, dir, _ := strings.Cut(sort, ",")
		req.Sort = strings.TrimSpace(field)
		req.Desc = strings.EqualFold(strings.TrimSpace(dir), "desc")
	}
	return req
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.Newf(apperror.ValidationFailed, "Invalid %s", key)
	}
	return &d, nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperror.Newf(apperror.ValidationFailed, "Invalid %s", key)
	}
	return &f, nil
}

func queryUint(c *fiber.Ctx, key string) (*uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperror.Newf(apperror.ValidationFailed, "Invalid %s", key)
	}
	v := uint(n)
	return &v, nil
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.Newf(apperror.ValidationFailed, "Invalid %s", key)
	}
	return &n, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Newf(apperror.ValidationFailed, "Invalid %s", key)
	}
	return &b, nil
}

func success(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// idAction runs action on the :id parameter and reports message on success.
func (h *Handler) idAction(c *fiber.Ctx, action func(context.Context, uint) error, message string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := action(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return success(c, message)
}
