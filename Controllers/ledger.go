package Controllers

import (
	"FieldOps/AbstractFunctions"
	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
)

type ledgerRow struct {
	WorkDate         string
	Technician       string
	FieldEvent       string
	DriftCheck       bool
	CalibrationCheck bool
	TvaUnit          string
	Notes            string
}

// GetLedgerPage renders the printable daily shift ledger of one client
func (c *FieldShiftController) GetLedgerPage(ctx *fiber.Ctx) error {
	clientID, err := paramID(ctx, "client_id")
	if err != nil {
		return badRequest(ctx, "Invalid client ID")
	}
	var client Models.Client
	if err := c.DB.WithContext(ctx.UserContext()).First(&client, clientID).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Client")
		}
		return dbError(ctx, "Failed to retrieve client", err)
	}

	filter := ShiftFilter{ClientID: &clientID, From: ctx.Query("from"), To: ctx.Query("to")}
	query, err := c.query(ctx, filter)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	shifts, err := findShifts(query)
	if err != nil {
		return dbError(ctx, "Failed to retrieve field shifts", err)
	}

	rows := make([]ledgerRow, 0, len(shifts))
	drift, calibration := 0, 0
	for i := len(shifts) - 1; i >= 0; i-- {
		s := shifts[i]
		row := ledgerRow{
			WorkDate:         s.WorkDate,
			Technician:       profileName(s.User),
			DriftCheck:       s.DriftCheck,
			CalibrationCheck: s.CalibrationCheck,
			Notes:            deref(s.Notes),
		}
		if s.FieldEvent != nil {
			row.FieldEvent = s.FieldEvent.Name
		}
		if s.TvaUnit != nil {
			row.TvaUnit = s.TvaUnit.Name
		}
		if s.DriftCheck {
			drift++
		}
		if s.CalibrationCheck {
			calibration++
		}
		rows = append(rows, row)
	}

	return ctx.Render("ledger", fiber.Map{
		"Client":      client.Name,
		"From":        filter.From,
		"To":          filter.To,
		"Rows":        rows,
		"Total":       len(rows),
		"Drift":       drift,
		"Calibration": calibration,
		"Printed":     AbstractFunctions.Today(),
	})
}
