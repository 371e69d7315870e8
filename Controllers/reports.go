package Controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"Atrium/Lifecycle"
)

// ReportController exports the day checklist as a spreadsheet for
// site managers.
type ReportController struct {
	Queries *Lifecycle.Queries
}

func NewReportController(queries *Lifecycle.Queries) *ReportController {
	return &ReportController{Queries: queries}
}

// GetDayReport renders the (site, day) checklist to an xlsx download.
func (rc *ReportController) GetDayReport(ctx *fiber.Ctx) error {
	siteID, date, err := parseSiteDay(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	checklist, err := rc.Queries.Checklist(date, siteID)
	if err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Daily Tasks - Site %d - %s", siteID, date))
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Progress: %d/%d (%d%%)", checklist.Progress.Completed, checklist.Progress.Total, checklist.Progress.Percentage))

	headers := []string{"Service", "Task", "Status", "Completed By", "Completed At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(sheet, cell, header)
	}

	row := 5
	for _, group := range checklist.Groups {
		for _, instance := range group.Instances {
			status := "Pending"
			completedBy := ""
			completedAt := ""
			if instance.Completed {
				status = "Completed"
				if instance.CompletedByName != nil {
					completedBy = *instance.CompletedByName
				}
				if instance.CompletedAt != nil {
					completedAt = instance.CompletedAt.Format("2006-01-02 15:04")
				}
			}
			values := []interface{}{group.Service, instance.Title, status, completedBy, completedAt}
			for i, value := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, value)
			}
			row++
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
	}

	filename := fmt.Sprintf("tasks_site%d_%s.xlsx", siteID, date)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return ctx.Send(buffer.Bytes())
}
