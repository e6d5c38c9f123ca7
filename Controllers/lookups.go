package Controllers

import (
	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LookupController serves the dropdown option lists
type LookupController struct {
	DB *gorm.DB
}

func NewLookupController(db *gorm.DB) *LookupController {
	return &LookupController{DB: db}
}

func (c *LookupController) list(ctx *fiber.Ctx, dest interface{}, activeOnly bool, order string) error {
	query := c.DB.WithContext(ctx.UserContext())
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Order(order).Find(dest).Error; err != nil {
		return dbError(ctx, "Failed to retrieve options", err)
	}
	return ctx.JSON(dest)
}

func (c *LookupController) GetWorkTypes(ctx *fiber.Ctx) error {
	var rows []Models.WorkType
	return c.list(ctx, &rows, false, "name ASC")
}

func (c *LookupController) GetPrograms(ctx *fiber.Ctx) error {
	var rows []Models.Program
	return c.list(ctx, &rows, true, "name ASC")
}

func (c *LookupController) GetRegulations(ctx *fiber.Ctx) error {
	var rows []Models.Regulation
	return c.list(ctx, &rows, true, "code ASC")
}

func (c *LookupController) GetMonitoringFrequencies(ctx *fiber.Ctx) error {
	var rows []Models.MonitoringFrequency
	return c.list(ctx, &rows, true, "code ASC")
}

func (c *LookupController) GetDatabaseTypes(ctx *fiber.Ctx) error {
	var rows []Models.DatabaseType
	return c.list(ctx, &rows, true, "code ASC")
}

func (c *LookupController) GetTvaUnits(ctx *fiber.Ctx) error {
	var rows []Models.TvaUnit
	return c.list(ctx, &rows, true, "name ASC")
}

// GetEnums returns the fixed option lists used by the forms
func (c *LookupController) GetEnums(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"field_event_statuses":  Models.FieldEventStatuses,
		"work_request_statuses": Models.WorkRequestStatuses,
		"event_types":           Models.EventTypes,
		"priorities":            Models.Priorities,
		"issue_types":           Models.IssueTypes,
		"due_in":                []string{"none", "1_month", "2_months", "90_days"},
		"lookbacks":             []string{"30d", "90d", "1y", "all"},
	})
}
