package Controllers

import (
	"log"

	"FieldOps/Models"
	"FieldOps/StatusBoard"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WorkRequestController handles work request endpoints and the work request board
type WorkRequestController struct {
	DB *gorm.DB
}

func NewWorkRequestController(db *gorm.DB) *WorkRequestController {
	return &WorkRequestController{DB: db}
}

var workRequestAccessor = StatusBoard.Accessor[Models.WorkRequest]{
	ID:     func(w Models.WorkRequest) uint { return w.ID },
	Status: func(w Models.WorkRequest) string { return w.Status },
	SetStatus: func(w Models.WorkRequest, status string) Models.WorkRequest {
		w.Status = status
		return w
	},
}

// loadBoard fetches every open work request. Completed ones are not on the board.
func (c *WorkRequestController) loadBoard(ctx *fiber.Ctx) (*StatusBoard.Board[Models.WorkRequest], error) {
	var requests []Models.WorkRequest
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("FieldEvent.Client").
		Preload("PrimaryOwner").
		Where("status <> ?", Models.WorkRequestComplete).
		Order("due_date IS NULL, due_date ASC, id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return StatusBoard.New(Models.WorkRequestBoardStatuses, requests, workRequestAccessor), nil
}

func (c *WorkRequestController) Board(ctx *fiber.Ctx) error {
	board, err := c.loadBoard(ctx)
	if err != nil {
		return dbError(ctx, "Failed to load work requests", err)
	}
	return boardResponse(ctx, board)
}

func (c *WorkRequestController) MoveStatus(ctx *fiber.Ctx) error {
	board, err := c.loadBoard(ctx)
	if err != nil {
		return dbError(ctx, "Failed to load work requests", err)
	}
	return moveCard(ctx, board, statusPersister(c.DB, &Models.WorkRequest{}))
}

// GetWorkRequests lists work requests filtered by field event, status or assignee
func (c *WorkRequestController) GetWorkRequests(ctx *fiber.Ctx) error {
	fieldEventID, err := queryID(ctx, "field_event_id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	assigneeID, err := queryID(ctx, "assignee_id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	query := c.DB.WithContext(ctx.UserContext()).
		Preload("FieldEvent.Client").
		Preload("PrimaryOwner").
		Preload("Assignees.User")
	if fieldEventID != nil {
		query = query.Where("field_event_id = ?", *fieldEventID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if assigneeID != nil {
		query = query.Where("id IN (?)", c.DB.Model(&Models.WrAssignee{}).Select("work_request_id").Where("user_id = ?", *assigneeID))
	}

	var requests []Models.WorkRequest
	if err := query.Order("due_date IS NULL, due_date ASC, id DESC").Find(&requests).Error; err != nil {
		return dbError(ctx, "Failed to retrieve work requests", err)
	}
	return ctx.JSON(requests)
}

func (c *WorkRequestController) load(ctx *fiber.Ctx, id uint) (Models.WorkRequest, error) {
	var wr Models.WorkRequest
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("FieldEvent.Client").
		Preload("FieldEvent.Program").
		Preload("PrimaryOwner").
		Preload("Assignees.User").
		First(&wr, id).Error
	return wr, err
}

// GetWorkRequest retrieves one work request with its field event, owner and assignees
func (c *WorkRequestController) GetWorkRequest(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid work request ID")
	}
	wr, err := c.load(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Work request")
		}
		return dbError(ctx, "Failed to retrieve work request", err)
	}
	return ctx.JSON(wr)
}

func replaceAssignees(tx *gorm.DB, workRequestID uint, userIDs []uint) error {
	if err := tx.Where("work_request_id = ?", workRequestID).Delete(&Models.WrAssignee{}).Error; err != nil {
		return err
	}
	seen := make(map[uint]bool, len(userIDs))
	assignees := make([]Models.WrAssignee, 0, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		assignees = append(assignees, Models.WrAssignee{WorkRequestID: workRequestID, UserID: userID})
	}
	if len(assignees) == 0 {
		return nil
	}
	return tx.Create(&assignees).Error
}

// CreateWorkRequest creates a work request and its assignee rows in one transaction
func (c *WorkRequestController) CreateWorkRequest(ctx *fiber.Ctx) error {
	var req Models.WorkRequestRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}

	var count int64
	if err := c.DB.WithContext(ctx.UserContext()).Model(&Models.FieldEvent{}).Where("id = ?", req.FieldEventID).Count(&count).Error; err != nil {
		return dbError(ctx, "Failed to create work request", err)
	}
	if count == 0 {
		return badRequest(ctx, "Unknown field event")
	}

	wr := Models.WorkRequest{
		FieldEventID:   req.FieldEventID,
		WRNumber:       req.WRNumber,
		Status:         Models.WorkRequestNotStarted,
		Priority:       nullable(req.Priority),
		DueDate:        nullable(req.DueDate),
		Notes:          nullable(req.Notes),
		PrimaryOwnerID: req.PrimaryOwnerID,
	}
	if req.Status != "" {
		wr.Status = req.Status
	}

	tx := c.DB.WithContext(ctx.UserContext()).Begin()
	if err := tx.Omit("Assignees").Create(&wr).Error; err != nil {
		tx.Rollback()
		return dbError(ctx, "Failed to create work request", err)
	}
	if err := replaceAssignees(tx, wr.ID, req.AssigneeIDs); err != nil {
		tx.Rollback()
		return dbError(ctx, "Failed to save assignees", err)
	}
	if err := tx.Commit().Error; err != nil {
		return dbError(ctx, "Failed to create work request", err)
	}
	log.Printf("Work request %s created on field event %d", wr.WRNumber, wr.FieldEventID)

	created, err := c.load(ctx, wr.ID)
	if err != nil {
		return dbError(ctx, "Failed to retrieve work request", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// UpdateWorkRequest updates a work request. Assignees are replaced when assignee_ids is sent.
func (c *WorkRequestController) UpdateWorkRequest(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid work request ID")
	}

	var wr Models.WorkRequest
	if err := c.DB.WithContext(ctx.UserContext()).First(&wr, id).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Work request")
		}
		return dbError(ctx, "Failed to retrieve work request", err)
	}

	var req Models.WorkRequestRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	status := wr.Status
	if req.Status != "" {
		status = req.Status
	}

	tx := c.DB.WithContext(ctx.UserContext()).Begin()
	err = tx.Model(&wr).Updates(map[string]interface{}{
		"field_event_id":   req.FieldEventID,
		"wr_number":        req.WRNumber,
		"status":           status,
		"priority":         nullable(req.Priority),
		"due_date":         nullable(req.DueDate),
		"notes":            nullable(req.Notes),
		"primary_owner_id": req.PrimaryOwnerID,
	}).Error
	if err != nil {
		tx.Rollback()
		return dbError(ctx, "Failed to update work request", err)
	}
	if req.AssigneeIDs != nil {
		if err := replaceAssignees(tx, wr.ID, req.AssigneeIDs); err != nil {
			tx.Rollback()
			return dbError(ctx, "Failed to save assignees", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return dbError(ctx, "Failed to update work request", err)
	}

	updated, err := c.load(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve work request", err)
	}
	return ctx.JSON(updated)
}

// DeleteWorkRequest soft deletes a work request
func (c *WorkRequestController) DeleteWorkRequest(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid work request ID")
	}

	var wr Models.WorkRequest
	if err := c.DB.WithContext(ctx.UserContext()).First(&wr, id).Error; err != nil {
		return notFound(ctx, "Work request")
	}
	if err := c.DB.WithContext(ctx.UserContext()).Delete(&wr).Error; err != nil {
		return dbError(ctx, "Failed to delete work request", err)
	}
	return ctx.JSON(fiber.Map{"message": "Work request deleted successfully"})
}
