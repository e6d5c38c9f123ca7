package Controllers

import (
	"bytes"
	"fmt"

	"FieldOps/AbstractFunctions"
	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeSheet adds a sheet with a bold header row followed by rows.
func writeSheet(f *excelize.File, sheetName string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetRowStyle(sheetName, 1, 1, headerStyle)
	}

	for r, values := range rows {
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	first, _ := excelize.ColumnNumberToName(1)
	last, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(sheetName, first, last, 18)
	return nil
}

func sendWorkbook(ctx *fiber.Ctx, f *excelize.File, filename string) error {
	// drop the default sheet every new workbook starts with
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to build spreadsheet", err.Error())
	}
	ctx.Set("Content-Type", xlsxContentType)
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(buf.Bytes())
}

func profileName(p *Models.Profile) string {
	if p == nil {
		return ""
	}
	return p.FullName
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ExportTimeEntries downloads a work request's time entries and hours summary as xlsx
func (c *TimeEntryController) ExportTimeEntries(ctx *fiber.Ctx) error {
	id, ok, err := c.workRequestID(ctx)
	if !ok {
		return err
	}
	var wr Models.WorkRequest
	if err := c.DB.WithContext(ctx.UserContext()).First(&wr, id).Error; err != nil {
		return dbError(ctx, "Failed to retrieve work request", err)
	}
	entries, err := c.entries(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve time entries", err)
	}
	summary, err := HoursSummary(c.DB.WithContext(ctx.UserContext()), id)
	if err != nil {
		return dbError(ctx, "Failed to compute hours", err)
	}

	entryRows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		workType := ""
		if e.WorkType != nil {
			workType = e.WorkType.Name
		}
		entryRows = append(entryRows, []interface{}{e.WorkDate, workType, profileName(e.User), e.Hours, deref(e.Notes)})
	}
	hourRows := make([][]interface{}, 0, len(summary)+1)
	for _, r := range summary {
		hourRows = append(hourRows, []interface{}{r.WorkType, r.Budgeted, r.Used, r.Left, yesNo(r.OverBudget)})
	}
	used, budgeted, left := AbstractFunctions.HoursTotals(summary)
	hourRows = append(hourRows, []interface{}{"Total", budgeted, used, left, yesNo(left < 0)})

	f := excelize.NewFile()
	defer f.Close()
	if err := writeSheet(f, "Time Entries", []string{"Date", "Work Type", "Technician", "Hours", "Notes"}, entryRows); err != nil {
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to build spreadsheet", err.Error())
	}
	if err := writeSheet(f, "Hours", []string{"Work Type", "Budgeted", "Used", "Left", "Over Budget"}, hourRows); err != nil {
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to build spreadsheet", err.Error())
	}
	return sendWorkbook(ctx, f, fmt.Sprintf("WR_%s_time_entries.xlsx", wr.WRNumber))
}

// ExportFieldShifts downloads the filtered shift ledger as xlsx
func (c *FieldShiftController) ExportFieldShifts(ctx *fiber.Ctx) error {
	filter, err := shiftFilter(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	query, err := c.query(ctx, filter)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	shifts, err := findShifts(query)
	if err != nil {
		return dbError(ctx, "Failed to retrieve field shifts", err)
	}

	rows := make([][]interface{}, 0, len(shifts))
	for _, s := range shifts {
		client, event, unit := "", "", ""
		if s.Client != nil {
			client = s.Client.Name
		}
		if s.FieldEvent != nil {
			event = s.FieldEvent.Name
		}
		if s.TvaUnit != nil {
			unit = s.TvaUnit.Name
		}
		rows = append(rows, []interface{}{
			s.WorkDate, client, event, profileName(s.User),
			yesNo(s.DriftCheck), yesNo(s.CalibrationCheck), unit, deref(s.Notes),
		})
	}

	f := excelize.NewFile()
	defer f.Close()
	headers := []string{"Date", "Client", "Field Event", "Technician", "Drift Check", "Calibration Check", "TVA Unit", "Notes"}
	if err := writeSheet(f, "Shift Ledger", headers, rows); err != nil {
		return errorJSON(ctx, fiber.StatusInternalServerError, "Failed to build spreadsheet", err.Error())
	}
	return sendWorkbook(ctx, f, "shift_ledger.xlsx")
}
