package Controllers

import (
	"context"
	"errors"
	"log"

	"FieldOps/Models"
	"FieldOps/StatusBoard"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// statusPersister updates the status column of one row of model's table.
func statusPersister(db *gorm.DB, model interface{}) StatusBoard.PersistFunc {
	return func(ctx context.Context, id uint, status string) error {
		result := db.WithContext(ctx).Model(model).Where("id = ?", id).Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
}

func boardResponse[T any](ctx *fiber.Ctx, board *StatusBoard.Board[T]) error {
	return ctx.JSON(fiber.Map{
		"statuses": board.Statuses(),
		"columns":  board.Columns(),
		"can_drag": currentUser(ctx).CanMoveCards(),
	})
}

// moveCard handles PATCH /:id/status for any board.
func moveCard[T any](ctx *fiber.Ctx, board *StatusBoard.Board[T], persist StatusBoard.PersistFunc) error {
	user := currentUser(ctx)
	if !user.CanMoveCards() {
		return forbidden(ctx, "Only managers and technicians can move cards")
	}

	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid ID")
	}
	var req Models.StatusUpdateRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}

	moved, err := board.Move(ctx.UserContext(), id, req.Status, persist)
	switch {
	case errors.Is(err, StatusBoard.ErrInvalidStatus):
		return badRequest(ctx, "Invalid status")
	case errors.Is(err, StatusBoard.ErrNotFound):
		return notFound(ctx, "Card")
	case err != nil:
		log.Printf("Error moving card %d to %s: %v", id, req.Status, err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to update status",
			"message": err.Error(),
			"columns": board.Columns(),
		})
	}

	return ctx.JSON(fiber.Map{
		"moved":   moved,
		"columns": board.Columns(),
	})
}
