package Controllers

import (
	"encoding/json"
	"fmt"
	"time"

	"FieldOps/AbstractFunctions"
	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ValveFollowupController handles valve follow-ups and their audit trail
type ValveFollowupController struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewValveFollowupController(db *gorm.DB) *ValveFollowupController {
	return &ValveFollowupController{DB: db, Now: time.Now}
}

// FollowupFilter selects follow-ups for one client.
type FollowupFilter struct {
	ClientID     uint
	Status       string
	Lookback     AbstractFunctions.Lookback
	AssignedToID *uint
}

// FollowupQuery builds the list query shared by the client panel and the
// overdue digest. Open rows sort by due date with undated rows last, done
// rows by most recently closed. The lookback window applies to closed_at
// for done rows and found_date for open rows.
func FollowupQuery(db *gorm.DB, filter FollowupFilter, now time.Time) (*gorm.DB, error) {
	query := db.Model(&Models.ValveFollowup{})
	if filter.ClientID != 0 {
		query = query.Where("valve_followups.client_id = ?", filter.ClientID)
	}
	if filter.AssignedToID != nil {
		query = query.Where("valve_followups.assigned_to_id = ?", *filter.AssignedToID)
	}

	status := filter.Status
	if status == "" {
		status = Models.FollowupOpen
	}
	if status != Models.FollowupOpen && status != Models.FollowupDone {
		return nil, fmt.Errorf("status must be %s or %s", Models.FollowupOpen, Models.FollowupDone)
	}
	query = query.Where("valve_followups.status = ?", status)

	start, err := AbstractFunctions.LookbackStart(now, filter.Lookback)
	if err != nil {
		return nil, err
	}

	if status == Models.FollowupDone {
		if start != nil {
			from, _ := AbstractFunctions.ParseDate(*start)
			query = query.Where("valve_followups.closed_at >= ?", from)
		}
		return query.Order("valve_followups.closed_at DESC, valve_followups.id DESC"), nil
	}

	if start != nil {
		query = query.Where("valve_followups.found_date >= ?", *start)
	}
	return query.Order("CASE WHEN valve_followups.due_date IS NULL THEN 1 ELSE 0 END, valve_followups.due_date ASC, valve_followups.id ASC"), nil
}

// GetClientFollowups lists a client's follow-ups by status and lookback window
func (c *ValveFollowupController) GetClientFollowups(ctx *fiber.Ctx) error {
	clientID, err := paramID(ctx, "client_id")
	if err != nil {
		return badRequest(ctx, "Invalid client ID")
	}
	query, err := FollowupQuery(c.DB.WithContext(ctx.UserContext()), FollowupFilter{
		ClientID: clientID,
		Status:   ctx.Query("status", Models.FollowupOpen),
		Lookback: AbstractFunctions.Lookback(ctx.Query("lookback", string(AbstractFunctions.LookbackAll))),
	}, c.Now())
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var followups []Models.ValveFollowup
	if err := query.Preload("Program").Preload("AssignedTo").Find(&followups).Error; err != nil {
		return dbError(ctx, "Failed to retrieve valve follow-ups", err)
	}
	return ctx.JSON(followups)
}

func (c *ValveFollowupController) load(ctx *fiber.Ctx, id uint) (Models.ValveFollowup, error) {
	var followup Models.ValveFollowup
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("Client").
		Preload("Program").
		Preload("AssignedTo").
		First(&followup, id).Error
	return followup, err
}

func (c *ValveFollowupController) GetFollowup(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid follow-up ID")
	}
	followup, err := c.load(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Valve follow-up")
		}
		return dbError(ctx, "Failed to retrieve valve follow-up", err)
	}
	return ctx.JSON(followup)
}

// GetFollowupEvents returns the audit trail of one follow-up, newest first
func (c *ValveFollowupController) GetFollowupEvents(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid follow-up ID")
	}
	var events []Models.ValveFollowupEvent
	err = c.DB.WithContext(ctx.UserContext()).
		Where("valve_followup_id = ?", id).
		Order("created_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return dbError(ctx, "Failed to retrieve follow-up history", err)
	}
	return ctx.JSON(events)
}

func recordFollowupEvent(tx *gorm.DB, followupID uint, actor Models.Profile, action string, details interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	event := Models.ValveFollowupEvent{
		ValveFollowupID: followupID,
		Action:          action,
		Details:         datatypes.JSON(raw),
	}
	if actor.ID != 0 {
		event.ActorID = &actor.ID
	}
	return tx.Create(&event).Error
}

// dueDate picks an explicit due_date over a due_in offset from the found date.
func dueDate(req Models.ValveFollowupRequest) (*string, error) {
	if req.DueDate != "" {
		return nullable(req.DueDate), nil
	}
	found, err := AbstractFunctions.ParseDate(req.FoundDate)
	if err != nil {
		return nil, err
	}
	return AbstractFunctions.DueDateFrom(found, AbstractFunctions.DueIn(req.DueIn))
}

// CreateFollowup creates a follow-up and its "created" audit row in one transaction
func (c *ValveFollowupController) CreateFollowup(ctx *fiber.Ctx) error {
	clientID, err := paramID(ctx, "client_id")
	if err != nil {
		return badRequest(ctx, "Invalid client ID")
	}
	var req Models.ValveFollowupRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	due, err := dueDate(req)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var count int64
	if err := c.DB.WithContext(ctx.UserContext()).Model(&Models.Client{}).Where("id = ?", clientID).Count(&count).Error; err != nil {
		return dbError(ctx, "Failed to create valve follow-up", err)
	}
	if count == 0 {
		return notFound(ctx, "Client")
	}

	followup := Models.ValveFollowup{
		ClientID:     clientID,
		ProgramID:    req.ProgramID,
		AssignedToID: req.AssignedToID,
		Tag:          req.Tag,
		IssueType:    req.IssueType,
		Status:       Models.FollowupOpen,
		FoundDate:    req.FoundDate,
		DueDate:      due,
		Notes:        nullable(req.Notes),
	}

	err = c.DB.WithContext(ctx.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&followup).Error; err != nil {
			return err
		}
		return recordFollowupEvent(tx, followup.ID, currentUser(ctx), Models.FollowupActionCreated, fiber.Map{
			"tag":        followup.Tag,
			"issue_type": followup.IssueType,
			"found_date": followup.FoundDate,
			"due_date":   followup.DueDate,
		})
	})
	if err != nil {
		return dbError(ctx, "Failed to create valve follow-up", err)
	}

	created, err := c.load(ctx, followup.ID)
	if err != nil {
		return dbError(ctx, "Failed to retrieve valve follow-up", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// UpdateFollowup edits a follow-up and records the changed fields
func (c *ValveFollowupController) UpdateFollowup(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid follow-up ID")
	}
	var followup Models.ValveFollowup
	if err := c.DB.WithContext(ctx.UserContext()).First(&followup, id).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Valve follow-up")
		}
		return dbError(ctx, "Failed to retrieve valve follow-up", err)
	}

	var req Models.ValveFollowupRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	due := followup.DueDate
	if req.DueDate != "" || req.DueIn != "" {
		if due, err = dueDate(req); err != nil {
			return badRequest(ctx, err.Error())
		}
	}

	columns := map[string]interface{}{
		"program_id":     req.ProgramID,
		"assigned_to_id": req.AssignedToID,
		"tag":            req.Tag,
		"issue_type":     req.IssueType,
		"found_date":     req.FoundDate,
		"due_date":       due,
		"notes":          nullable(req.Notes),
	}
	changes := followupChanges(followup, columns)

	err = c.DB.WithContext(ctx.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&followup).Updates(columns).Error; err != nil {
			return err
		}
		return recordFollowupEvent(tx, followup.ID, currentUser(ctx), Models.FollowupActionUpdated, changes)
	})
	if err != nil {
		return dbError(ctx, "Failed to update valve follow-up", err)
	}

	updated, err := c.load(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve valve follow-up", err)
	}
	return ctx.JSON(updated)
}

// followupChanges lists the columns whose value differs from the stored row.
func followupChanges(old Models.ValveFollowup, columns map[string]interface{}) map[string]interface{} {
	before := map[string]interface{}{
		"program_id":     old.ProgramID,
		"assigned_to_id": old.AssignedToID,
		"tag":            old.Tag,
		"issue_type":     old.IssueType,
		"found_date":     old.FoundDate,
		"due_date":       old.DueDate,
		"notes":          old.Notes,
	}
	changes := map[string]interface{}{}
	for key, next := range columns {
		prev, _ := json.Marshal(before[key])
		now, _ := json.Marshal(next)
		if string(prev) != string(now) {
			changes[key] = fiber.Map{"from": before[key], "to": next}
		}
	}
	return changes
}

func (c *ValveFollowupController) setStatus(ctx *fiber.Ctx, status, action string) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid follow-up ID")
	}
	var followup Models.ValveFollowup
	if err := c.DB.WithContext(ctx.UserContext()).First(&followup, id).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Valve follow-up")
		}
		return dbError(ctx, "Failed to retrieve valve follow-up", err)
	}
	if followup.Status == status {
		return badRequest(ctx, "Follow-up is already "+status)
	}

	previous := followup.Status
	columns := map[string]interface{}{"status": status, "closed_at": nil}
	if status == Models.FollowupDone {
		columns["closed_at"] = c.Now()
	}

	err = c.DB.WithContext(ctx.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&followup).Updates(columns).Error; err != nil {
			return err
		}
		return recordFollowupEvent(tx, followup.ID, currentUser(ctx), action, fiber.Map{
			"from": previous,
			"to":   status,
		})
	})
	if err != nil {
		return dbError(ctx, "Failed to update valve follow-up", err)
	}

	updated, err := c.load(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve valve follow-up", err)
	}
	return ctx.JSON(updated)
}

// CloseFollowup marks a follow-up done and stamps closed_at
func (c *ValveFollowupController) CloseFollowup(ctx *fiber.Ctx) error {
	return c.setStatus(ctx, Models.FollowupDone, Models.FollowupActionClosed)
}

// ReopenFollowup puts a done follow-up back to open and clears closed_at
func (c *ValveFollowupController) ReopenFollowup(ctx *fiber.Ctx) error {
	return c.setStatus(ctx, Models.FollowupOpen, Models.FollowupActionReopened)
}

func (c *ValveFollowupController) DeleteFollowup(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid follow-up ID")
	}
	var followup Models.ValveFollowup
	if err := c.DB.WithContext(ctx.UserContext()).First(&followup, id).Error; err != nil {
		return notFound(ctx, "Valve follow-up")
	}
	if err := c.DB.WithContext(ctx.UserContext()).Delete(&followup).Error; err != nil {
		return dbError(ctx, "Failed to delete valve follow-up", err)
	}
	return ctx.JSON(fiber.Map{"message": "Valve follow-up deleted successfully"})
}
