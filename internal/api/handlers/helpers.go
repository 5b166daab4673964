package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
)

var validate = validator.New()

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.ParseInt(c.Locals("user_id").(string), 10, 64)
	return userID
}

// ParamID reads a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// ParseBody decodes the JSON body into dst and runs its validate tags.
func ParseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return &service.ValidationError{Message: "invalid request body", Err: err}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &service.ValidationError{
				Field:   verrs[0].Field(),
				Message: "failed on the " + verrs[0].Tag() + " rule",
				Err:     err,
			}
		}
		return &service.ValidationError{Message: err.Error(), Err: err}
	}
	return nil
}

// ErrorStatus maps service errors to HTTP status codes.
func ErrorStatus(err error) int {
	var (
		validation *service.ValidationError
		conflict   *service.ConflictError
		missing    *service.MissingCredentialError
		dispatch   *service.DispatchError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &conflict):
		return fiber.StatusConflict
	case errors.As(err, &missing):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &dispatch):
		return fiber.StatusBadGateway
	case errors.Is(err, service.ErrDispatchCanceled):
		return fiber.StatusRequestTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status := ErrorStatus(err)
	if status == fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path())
		return c.Status(status).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
