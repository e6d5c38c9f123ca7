package Controllers

import (
	"time"

	"FieldOps/AbstractFunctions"
	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const duplicateShiftMessage = "A shift for this technician on this date already exists."

// FieldShiftController handles the daily shift ledger
type FieldShiftController struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewFieldShiftController(db *gorm.DB) *FieldShiftController {
	return &FieldShiftController{DB: db, Now: time.Now}
}

type ShiftFilter struct {
	ClientID     *uint
	FieldEventID *uint
	UserID       *uint
	From         string
	To           string
	Lookback     AbstractFunctions.Lookback
}

// shiftFilter reads the list filters from the query string.
func shiftFilter(ctx *fiber.Ctx) (ShiftFilter, error) {
	var f ShiftFilter
	var err error
	if f.ClientID, err = queryID(ctx, "client_id"); err != nil {
		return f, err
	}
	if f.FieldEventID, err = queryID(ctx, "field_event_id"); err != nil {
		return f, err
	}
	if f.UserID, err = queryID(ctx, "user_id"); err != nil {
		return f, err
	}
	f.From = ctx.Query("from")
	f.To = ctx.Query("to")
	f.Lookback = AbstractFunctions.Lookback(ctx.Query("lookback"))
	return f, nil
}

// ShiftQuery builds the ledger query shared by the list, export and printable views.
func ShiftQuery(db *gorm.DB, f ShiftFilter, now time.Time) (*gorm.DB, error) {
	query := db.Model(&Models.FieldShift{})
	if f.ClientID != nil {
		query = query.Where("client_id = ?", *f.ClientID)
	}
	if f.FieldEventID != nil {
		query = query.Where("field_event_id = ?", *f.FieldEventID)
	}
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := AbstractFunctions.ParseDate(d); err != nil {
			return nil, err
		}
	}
	if f.From != "" {
		query = query.Where("work_date >= ?", f.From)
	}
	if f.To != "" {
		query = query.Where("work_date <= ?", f.To)
	}
	start, err := AbstractFunctions.LookbackStart(now, f.Lookback)
	if err != nil {
		return nil, err
	}
	if start != nil {
		query = query.Where("work_date >= ?", *start)
	}
	return query.Order("work_date DESC, id DESC"), nil
}

// query validates the filter dates and builds the ledger query.
func (c *FieldShiftController) query(ctx *fiber.Ctx, f ShiftFilter) (*gorm.DB, error) {
	return ShiftQuery(c.DB.WithContext(ctx.UserContext()), f, c.Now())
}

func findShifts(query *gorm.DB) ([]Models.FieldShift, error) {
	var shifts []Models.FieldShift
	err := query.
		Preload("Client").
		Preload("FieldEvent").
		Preload("User").
		Preload("TvaUnit").
		Find(&shifts).Error
	return shifts, err
}

// GetFieldShifts lists shifts filtered by client, event, technician and dates
func (c *FieldShiftController) GetFieldShifts(ctx *fiber.Ctx) error {
	f, err := shiftFilter(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	query, err := c.query(ctx, f)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	var shifts []Models.FieldShift
	if err := query.Preload("FieldEvent").Preload("User").Preload("TvaUnit").Find(&shifts).Error; err != nil {
		return dbError(ctx, "Failed to retrieve field shifts", err)
	}
	return ctx.JSON(shifts)
}

func (c *FieldShiftController) load(ctx *fiber.Ctx, id uint) (Models.FieldShift, error) {
	var shift Models.FieldShift
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("Client").
		Preload("FieldEvent").
		Preload("User").
		Preload("TvaUnit").
		First(&shift, id).Error
	return shift, err
}

func (c *FieldShiftController) saveError(ctx *fiber.Ctx, errMsg string, err error) error {
	if Models.IsDuplicateKeyError(err) {
		return errorJSON(ctx, fiber.StatusConflict, "Duplicate shift", duplicateShiftMessage)
	}
	return dbError(ctx, errMsg, err)
}

// shiftOwner resolves whose shift is being written. Technicians can only
// write their own; managers may pick anyone.
func shiftOwner(user Models.Profile, requested *uint) (uint, bool) {
	if requested == nil || *requested == 0 {
		return user.ID, true
	}
	if !user.IsManager() && *requested != user.ID {
		return 0, false
	}
	return *requested, true
}

// CreateFieldShift logs one technician's shift for one day
func (c *FieldShiftController) CreateFieldShift(ctx *fiber.Ctx) error {
	var req Models.FieldShiftRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	userID, ok := shiftOwner(currentUser(ctx), req.UserID)
	if !ok {
		return forbidden(ctx, "Technicians can only log their own shifts")
	}

	shift := Models.FieldShift{
		ClientID:         req.ClientID,
		FieldEventID:     req.FieldEventID,
		UserID:           userID,
		WorkDate:         req.WorkDate,
		DriftCheck:       req.DriftCheck,
		CalibrationCheck: req.CalibrationCheck,
		TvaUnitID:        req.TvaUnitID,
		Notes:            nullable(req.Notes),
	}
	if err := c.DB.WithContext(ctx.UserContext()).Create(&shift).Error; err != nil {
		return c.saveError(ctx, "Failed to create field shift", err)
	}

	created, err := c.load(ctx, shift.ID)
	if err != nil {
		return dbError(ctx, "Failed to retrieve field shift", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

func (c *FieldShiftController) editable(ctx *fiber.Ctx) (Models.FieldShift, bool, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return Models.FieldShift{}, false, badRequest(ctx, "Invalid shift ID")
	}
	var shift Models.FieldShift
	if err := c.DB.WithContext(ctx.UserContext()).First(&shift, id).Error; err != nil {
		if isNotFound(err) {
			return shift, false, notFound(ctx, "Field shift")
		}
		return shift, false, dbError(ctx, "Failed to retrieve field shift", err)
	}
	user := currentUser(ctx)
	if !user.IsManager() && shift.UserID != user.ID {
		return shift, false, forbidden(ctx, "Technicians can only change their own shifts")
	}
	return shift, true, nil
}

func (c *FieldShiftController) UpdateFieldShift(ctx *fiber.Ctx) error {
	shift, ok, err := c.editable(ctx)
	if !ok {
		return err
	}

	var req Models.FieldShiftRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	requested := req.UserID
	if requested == nil {
		requested = &shift.UserID
	}
	userID, ok := shiftOwner(currentUser(ctx), requested)
	if !ok {
		return forbidden(ctx, "Technicians can only log their own shifts")
	}

	err = c.DB.WithContext(ctx.UserContext()).Model(&shift).Updates(map[string]interface{}{
		"client_id":         req.ClientID,
		"field_event_id":    req.FieldEventID,
		"user_id":           userID,
		"work_date":         req.WorkDate,
		"drift_check":       req.DriftCheck,
		"calibration_check": req.CalibrationCheck,
		"tva_unit_id":       req.TvaUnitID,
		"notes":             nullable(req.Notes),
	}).Error
	if err != nil {
		return c.saveError(ctx, "Failed to update field shift", err)
	}

	updated, err := c.load(ctx, shift.ID)
	if err != nil {
		return dbError(ctx, "Failed to retrieve field shift", err)
	}
	return ctx.JSON(updated)
}

func (c *FieldShiftController) DeleteFieldShift(ctx *fiber.Ctx) error {
	shift, ok, err := c.editable(ctx)
	if !ok {
		return err
	}
	if err := c.DB.WithContext(ctx.UserContext()).Delete(&shift).Error; err != nil {
		return dbError(ctx, "Failed to delete field shift", err)
	}
	return ctx.JSON(fiber.Map{"message": "Field shift deleted successfully"})
}
