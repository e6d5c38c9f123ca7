package Controllers

import (
	"errors"
	"strconv"
	"strings"

	"FieldOps/Models"
	"FieldOps/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func paramID(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.Atoi(ctx.Params(name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// queryID reads an optional numeric query parameter.
func queryID(ctx *fiber.Ctx, name string) (*uint, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil, errors.New("invalid " + name)
	}
	v := uint(id)
	return &v, nil
}

func errorJSON(ctx *fiber.Ctx, status int, errMsg, message string) error {
	body := fiber.Map{"error": errMsg}
	if message != "" {
		body["message"] = message
	}
	return ctx.Status(status).JSON(body)
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return errorJSON(ctx, fiber.StatusBadRequest, "Bad request", message)
}

func notFound(ctx *fiber.Ctx, what string) error {
	return errorJSON(ctx, fiber.StatusNotFound, what+" not found", "")
}

func forbidden(ctx *fiber.Ctx, message string) error {
	return errorJSON(ctx, fiber.StatusForbidden, "Forbidden", message)
}

// dbError reports a failed query with the driver text in message.
func dbError(ctx *fiber.Ctx, errMsg string, err error) error {
	return errorJSON(ctx, fiber.StatusInternalServerError, errMsg, err.Error())
}

// bind parses the body into req and validates it. On failure it has
// already written the 400 response and returns false.
func bind(ctx *fiber.Ctx, req interface{}) (bool, error) {
	if err := ctx.BodyParser(req); err != nil {
		return false, badRequest(ctx, "Invalid request body: "+err.Error())
	}
	if msgs := middleware.ValidateStruct(req); len(msgs) > 0 {
		return false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": strings.Join(msgs, "; "),
			"details": msgs,
		})
	}
	return true, nil
}

func currentUser(ctx *fiber.Ctx) Models.Profile {
	user, _ := middleware.CurrentProfile(ctx)
	return user
}

// nullable trims s and maps the empty string to nil.
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
