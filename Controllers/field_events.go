package Controllers

import (
	"log"

	"FieldOps/Models"
	"FieldOps/StatusBoard"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// FieldEventController handles field event endpoints and the event board
type FieldEventController struct {
	DB *gorm.DB
}

func NewFieldEventController(db *gorm.DB) *FieldEventController {
	return &FieldEventController{DB: db}
}

var fieldEventAccessor = StatusBoard.Accessor[Models.FieldEvent]{
	ID:     func(e Models.FieldEvent) uint { return e.ID },
	Status: func(e Models.FieldEvent) string { return e.Status },
	SetStatus: func(e Models.FieldEvent, status string) Models.FieldEvent {
		e.Status = status
		return e
	},
}

func (c *FieldEventController) loadBoard(ctx *fiber.Ctx) (*StatusBoard.Board[Models.FieldEvent], error) {
	var events []Models.FieldEvent
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("Client").
		Preload("Lead").
		Order("start_date IS NULL, start_date ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return StatusBoard.New(Models.FieldEventStatuses, events, fieldEventAccessor), nil
}

// Board returns every field event grouped by status
func (c *FieldEventController) Board(ctx *fiber.Ctx) error {
	board, err := c.loadBoard(ctx)
	if err != nil {
		return dbError(ctx, "Failed to load field events", err)
	}
	return boardResponse(ctx, board)
}

// MoveStatus moves one field event to another column
func (c *FieldEventController) MoveStatus(ctx *fiber.Ctx) error {
	board, err := c.loadBoard(ctx)
	if err != nil {
		return dbError(ctx, "Failed to load field events", err)
	}
	return moveCard(ctx, board, statusPersister(c.DB, &Models.FieldEvent{}))
}

// GetFieldEvents lists field events, optionally filtered by client and status
func (c *FieldEventController) GetFieldEvents(ctx *fiber.Ctx) error {
	clientID, err := queryID(ctx, "client_id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	query := c.DB.WithContext(ctx.UserContext()).Preload("Client").Preload("Program").Preload("Lead")
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var events []Models.FieldEvent
	if err := query.Order("start_date IS NULL, start_date DESC, id DESC").Find(&events).Error; err != nil {
		return dbError(ctx, "Failed to retrieve field events", err)
	}
	return ctx.JSON(events)
}

func (c *FieldEventController) load(ctx *fiber.Ctx, id uint) (Models.FieldEvent, error) {
	var event Models.FieldEvent
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("Client").
		Preload("Program").
		Preload("Lead").
		First(&event, id).Error
	return event, err
}

// GetFieldEvent retrieves one field event with its client, program and lead
func (c *FieldEventController) GetFieldEvent(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid field event ID")
	}
	event, err := c.load(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Field event")
		}
		return dbError(ctx, "Failed to retrieve field event", err)
	}
	return ctx.JSON(event)
}

func (c *FieldEventController) clientExists(ctx *fiber.Ctx, clientID uint) (bool, error) {
	var count int64
	err := c.DB.WithContext(ctx.UserContext()).Model(&Models.Client{}).Where("id = ?", clientID).Count(&count).Error
	return count > 0, err
}

// CreateFieldEvent creates a field event in the not_started column unless a status is given
func (c *FieldEventController) CreateFieldEvent(ctx *fiber.Ctx) error {
	var req Models.FieldEventRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	if ok, err := c.clientExists(ctx, req.ClientID); err != nil {
		return dbError(ctx, "Failed to create field event", err)
	} else if !ok {
		return badRequest(ctx, "Unknown client")
	}

	event := Models.FieldEvent{
		ClientID:  req.ClientID,
		ProgramID: req.ProgramID,
		LeadID:    req.LeadID,
		Name:      req.Name,
		Status:    Models.FieldEventNotStarted,
		EventType: req.EventType,
		Priority:  nullable(req.Priority),
		StartDate: nullable(req.StartDate),
		EndDate:   nullable(req.EndDate),
	}
	if req.Status != "" {
		event.Status = req.Status
	}

	if err := c.DB.WithContext(ctx.UserContext()).Create(&event).Error; err != nil {
		return dbError(ctx, "Failed to create field event", err)
	}
	log.Printf("Field event %d created for client %d", event.ID, event.ClientID)

	created, err := c.load(ctx, event.ID)
	if err != nil {
		return dbError(ctx, "Failed to retrieve field event", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// UpdateFieldEvent replaces the editable fields of a field event
func (c *FieldEventController) UpdateFieldEvent(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid field event ID")
	}

	var event Models.FieldEvent
	if err := c.DB.WithContext(ctx.UserContext()).First(&event, id).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Field event")
		}
		return dbError(ctx, "Failed to retrieve field event", err)
	}

	var req Models.FieldEventRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	status := event.Status
	if req.Status != "" {
		status = req.Status
	}

	err = c.DB.WithContext(ctx.UserContext()).Model(&event).Updates(map[string]interface{}{
		"client_id":  req.ClientID,
		"program_id": req.ProgramID,
		"lead_id":    req.LeadID,
		"name":       req.Name,
		"status":     status,
		"event_type": req.EventType,
		"priority":   nullable(req.Priority),
		"start_date": nullable(req.StartDate),
		"end_date":   nullable(req.EndDate),
	}).Error
	if err != nil {
		return dbError(ctx, "Failed to update field event", err)
	}

	updated, err := c.load(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve field event", err)
	}
	return ctx.JSON(updated)
}

// DeleteFieldEvent soft deletes a field event together with its work requests
func (c *FieldEventController) DeleteFieldEvent(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid field event ID")
	}

	var event Models.FieldEvent
	if err := c.DB.WithContext(ctx.UserContext()).First(&event, id).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Field event")
		}
		return dbError(ctx, "Failed to retrieve field event", err)
	}

	tx := c.DB.WithContext(ctx.UserContext()).Begin()
	if err := tx.Where("field_event_id = ?", event.ID).Delete(&Models.WorkRequest{}).Error; err != nil {
		tx.Rollback()
		return dbError(ctx, "Failed to delete work requests", err)
	}
	if err := tx.Delete(&event).Error; err != nil {
		tx.Rollback()
		return dbError(ctx, "Failed to delete field event", err)
	}
	if err := tx.Commit().Error; err != nil {
		return dbError(ctx, "Failed to delete field event", err)
	}
	return ctx.JSON(fiber.Map{"message": "Field event deleted successfully"})
}
