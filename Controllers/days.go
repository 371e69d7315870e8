package Controllers

import (
	"github.com/gofiber/fiber/v2"

	"Atrium/Lifecycle"
	"Atrium/Models"
)

// DayController exposes day-level progress and the completion gate.
type DayController struct {
	Gate *Lifecycle.Gate
}

func NewDayController(gate *Lifecycle.Gate) *DayController {
	return &DayController{Gate: gate}
}

// GetDayProgress returns progress plus the readiness predicate the
// UI uses to enable the "complete day" action.
func (dc *DayController) GetDayProgress(ctx *fiber.Ctx) error {
	siteID, date, err := parseSiteDay(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	progress, err := dc.Gate.Progress(date, siteID)
	if err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	canProceed, err := dc.Gate.CanProceedToNextDay(date, siteID)
	if err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"site_id":     siteID,
		"date":        date,
		"total":       progress.Total,
		"completed":   progress.Completed,
		"percentage":  progress.Percentage,
		"can_proceed": canProceed,
	})
}

// CompleteDay closes out a day and generates the next day's
// instances. The gate re-validates server-side; a stale client check
// comes back as 412.
func (dc *DayController) CompleteDay(ctx *fiber.Ctx) error {
	siteID, date, err := parseSiteDay(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	actor, ok := ctx.Locals("user").(Models.User)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not Logged In."})
	}

	if err := dc.Gate.CompleteDay(date, siteID, actor.Id); err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "Day completed successfully"})
}

// CancelDayCompletion reopens a closed day. Restricted to elevated
// roles at the route level; next-day instances are left as they are.
func (dc *DayController) CancelDayCompletion(ctx *fiber.Ctx) error {
	siteID, date, err := parseSiteDay(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := dc.Gate.CancelDayCompletion(date, siteID); err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "Day completion cancelled"})
}
