package Controllers

import (
	"time"

	"FieldOps/AbstractFunctions"
	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeEntryController handles time entries, budgets and the hours summary of a work request
type TimeEntryController struct {
	DB *gorm.DB
}

func NewTimeEntryController(db *gorm.DB) *TimeEntryController {
	return &TimeEntryController{DB: db}
}

// workRequestID reads :id and checks the work request exists. On failure
// the response has been written and ok is false.
func (c *TimeEntryController) workRequestID(ctx *fiber.Ctx) (uint, bool, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return 0, false, badRequest(ctx, "Invalid work request ID")
	}
	var count int64
	if err := c.DB.WithContext(ctx.UserContext()).Model(&Models.WorkRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return 0, false, dbError(ctx, "Failed to retrieve work request", err)
	}
	if count == 0 {
		return 0, false, notFound(ctx, "Work request")
	}
	return id, true, nil
}

func (c *TimeEntryController) entries(ctx *fiber.Ctx, workRequestID uint) ([]Models.TimeEntry, error) {
	var entries []Models.TimeEntry
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("WorkType").
		Preload("User").
		Where("work_request_id = ?", workRequestID).
		Order("work_date DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// GetTimeEntries lists the time logged against a work request, newest first
func (c *TimeEntryController) GetTimeEntries(ctx *fiber.Ctx) error {
	id, ok, err := c.workRequestID(ctx)
	if !ok {
		return err
	}
	entries, err := c.entries(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve time entries", err)
	}
	return ctx.JSON(entries)
}

func (c *TimeEntryController) loadEntry(ctx *fiber.Ctx, id uint) (Models.TimeEntry, error) {
	var entry Models.TimeEntry
	err := c.DB.WithContext(ctx.UserContext()).Preload("WorkType").Preload("User").First(&entry, id).Error
	return entry, err
}

// exists reports whether a row with the given id exists in model's table.
func (c *TimeEntryController) exists(ctx *fiber.Ctx, model interface{}, id uint) (bool, error) {
	var count int64
	err := c.DB.WithContext(ctx.UserContext()).Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// checkEntryRefs writes a 400 when the work type or technician does not exist.
func (c *TimeEntryController) checkEntryRefs(ctx *fiber.Ctx, workTypeID uint, userID *uint) (bool, error) {
	found, err := c.exists(ctx, &Models.WorkType{}, workTypeID)
	if err != nil {
		return false, dbError(ctx, "Failed to retrieve work type", err)
	}
	if !found {
		return false, badRequest(ctx, "Unknown work type")
	}
	if userID == nil {
		return true, nil
	}
	found, err = c.exists(ctx, &Models.Profile{}, *userID)
	if err != nil {
		return false, dbError(ctx, "Failed to retrieve technician", err)
	}
	if !found {
		return false, badRequest(ctx, "Unknown technician")
	}
	return true, nil
}

// CreateTimeEntry logs hours. Managers pick the technician, everyone else logs as themselves.
func (c *TimeEntryController) CreateTimeEntry(ctx *fiber.Ctx) error {
	id, ok, err := c.workRequestID(ctx)
	if !ok {
		return err
	}
	var req Models.TimeEntryRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}

	user := currentUser(ctx)
	userID := user.ID
	if user.IsManager() {
		if req.UserID == nil || *req.UserID == 0 {
			return badRequest(ctx, "Select a technician")
		}
		userID = *req.UserID
	}
	if ok, err := c.checkEntryRefs(ctx, req.WorkTypeID, &userID); !ok {
		return err
	}

	entry := Models.TimeEntry{
		WorkRequestID: id,
		WorkTypeID:    req.WorkTypeID,
		UserID:        &userID,
		WorkDate:      req.WorkDate,
		Hours:         req.Hours,
		Notes:         nullable(req.Notes),
	}
	if err := c.DB.WithContext(ctx.UserContext()).Create(&entry).Error; err != nil {
		return dbError(ctx, "Failed to create time entry", err)
	}

	created, err := c.loadEntry(ctx, entry.ID)
	if err != nil {
		return dbError(ctx, "Failed to retrieve time entry", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// UpdateTimeEntry edits an entry. Non-managers can only edit their own.
func (c *TimeEntryController) UpdateTimeEntry(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid time entry ID")
	}
	var entry Models.TimeEntry
	if err := c.DB.WithContext(ctx.UserContext()).First(&entry, id).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Time entry")
		}
		return dbError(ctx, "Failed to retrieve time entry", err)
	}

	user := currentUser(ctx)
	if !user.IsManager() && (entry.UserID == nil || *entry.UserID != user.ID) {
		return forbidden(ctx, "You can only edit your own time entries")
	}

	var req Models.TimeEntryRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	columns := map[string]interface{}{
		"work_type_id": req.WorkTypeID,
		"work_date":    req.WorkDate,
		"hours":        req.Hours,
		"notes":        nullable(req.Notes),
	}
	var newUser *uint
	if user.IsManager() && req.UserID != nil && *req.UserID != 0 {
		newUser = req.UserID
		columns["user_id"] = *req.UserID
	}
	if ok, err := c.checkEntryRefs(ctx, req.WorkTypeID, newUser); !ok {
		return err
	}
	if err := c.DB.WithContext(ctx.UserContext()).Model(&entry).Updates(columns).Error; err != nil {
		return dbError(ctx, "Failed to update time entry", err)
	}

	updated, err := c.loadEntry(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve time entry", err)
	}
	return ctx.JSON(updated)
}

func (c *TimeEntryController) DeleteTimeEntry(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid time entry ID")
	}
	result := c.DB.WithContext(ctx.UserContext()).Delete(&Models.TimeEntry{}, id)
	if result.Error != nil {
		return dbError(ctx, "Failed to delete time entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, "Time entry")
	}
	return ctx.JSON(fiber.Map{"message": "Time entry deleted successfully"})
}

func (c *TimeEntryController) budgets(ctx *fiber.Ctx, workRequestID uint) ([]Models.WrBudget, error) {
	var budgets []Models.WrBudget
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("WorkType").
		Where("work_request_id = ?", workRequestID).
		Order("work_type_id ASC").
		Find(&budgets).Error
	return budgets, err
}

func (c *TimeEntryController) GetBudgets(ctx *fiber.Ctx) error {
	id, ok, err := c.workRequestID(ctx)
	if !ok {
		return err
	}
	budgets, err := c.budgets(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve budgets", err)
	}
	return ctx.JSON(budgets)
}

// PutBudgets upserts every row on (work_request_id, work_type_id)
func (c *TimeEntryController) PutBudgets(ctx *fiber.Ctx) error {
	id, ok, err := c.workRequestID(ctx)
	if !ok {
		return err
	}
	var req Models.BudgetRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}

	for _, b := range req.Budgets {
		if ok, err := c.checkEntryRefs(ctx, b.WorkTypeID, nil); !ok {
			return err
		}
	}

	if len(req.Budgets) > 0 {
		now := time.Now()
		rows := make([]Models.WrBudget, 0, len(req.Budgets))
		index := make(map[uint]int, len(req.Budgets))
		for _, b := range req.Budgets {
			// last row wins for a repeated work type
			if i, seen := index[b.WorkTypeID]; seen {
				rows[i].HoursBudgeted = b.HoursBudgeted
				continue
			}
			index[b.WorkTypeID] = len(rows)
			rows = append(rows, Models.WrBudget{
				WorkRequestID: id,
				WorkTypeID:    b.WorkTypeID,
				HoursBudgeted: b.HoursBudgeted,
				UpdatedAt:     now,
			})
		}
		err = c.DB.WithContext(ctx.UserContext()).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "work_request_id"}, {Name: "work_type_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"hours_budgeted", "updated_at"}),
			}).Create(&rows).Error
		})
		if err != nil {
			return dbError(ctx, "Failed to save budgets", err)
		}
	}

	budgets, err := c.budgets(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve budgets", err)
	}
	return ctx.JSON(budgets)
}

// HoursSummary computes hours used against budget per work type.
func HoursSummary(db *gorm.DB, workRequestID uint) ([]AbstractFunctions.HoursRow, error) {
	var workTypes []Models.WorkType
	if err := db.Order("name ASC").Find(&workTypes).Error; err != nil {
		return nil, err
	}
	refs := make([]AbstractFunctions.WorkTypeRef, len(workTypes))
	for i, wt := range workTypes {
		refs[i] = AbstractFunctions.WorkTypeRef{ID: wt.ID, Name: wt.Name}
	}

	var budgets []AbstractFunctions.Amount
	err := db.Model(&Models.WrBudget{}).
		Select("work_type_id, hours_budgeted AS hours").
		Where("work_request_id = ?", workRequestID).
		Scan(&budgets).Error
	if err != nil {
		return nil, err
	}

	var used []AbstractFunctions.Amount
	err = db.Model(&Models.TimeEntry{}).
		Select("work_type_id, SUM(hours) AS hours").
		Where("work_request_id = ?", workRequestID).
		Group("work_type_id").
		Scan(&used).Error
	if err != nil {
		return nil, err
	}

	return AbstractFunctions.SummarizeHours(refs, budgets, used), nil
}

// GetHours returns used, budgeted and left hours per work type with totals
func (c *TimeEntryController) GetHours(ctx *fiber.Ctx) error {
	id, ok, err := c.workRequestID(ctx)
	if !ok {
		return err
	}
	rows, err := HoursSummary(c.DB.WithContext(ctx.UserContext()), id)
	if err != nil {
		return dbError(ctx, "Failed to compute hours", err)
	}
	used, budgeted, left := AbstractFunctions.HoursTotals(rows)
	return ctx.JSON(fiber.Map{
		"work_request_id": id,
		"rows":            rows,
		"totals": fiber.Map{
			"used":        used,
			"budgeted":    budgeted,
			"left":        left,
			"over_budget": left < 0,
		},
	})
}
