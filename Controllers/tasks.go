package Controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"Atrium/Lifecycle"
	"Atrium/Models"
)

// TaskController exposes instance generation, completion toggles and
// comments over HTTP. All business rules live in the Lifecycle
// package; this layer parses, validates and maps errors to statuses.
type TaskController struct {
	Generator *Lifecycle.Generator
	Tracker   *Lifecycle.Tracker
	Queries   *Lifecycle.Queries
}

func NewTaskController(generator *Lifecycle.Generator, tracker *Lifecycle.Tracker, queries *Lifecycle.Queries) *TaskController {
	return &TaskController{Generator: generator, Tracker: tracker, Queries: queries}
}

// GenerateDay creates the day's instance set for a site. Calling it
// for an already-populated day is a no-op.
func (tc *TaskController) GenerateDay(ctx *fiber.Ctx) error {
	siteID, date, err := parseSiteDay(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := tc.Generator.Generate(date, siteID); err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "Day generated successfully"})
}

// GetDayChecklist returns the grouped checklist projection.
func (tc *TaskController) GetDayChecklist(ctx *fiber.Ctx) error {
	siteID, date, err := parseSiteDay(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	checklist, err := tc.Queries.Checklist(date, siteID)
	if err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(checklist)
}

// GetInstance returns one instance with history and comments.
func (tc *TaskController) GetInstance(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	instance, err := tc.Queries.InstanceDetail(uint(id))
	if err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(instance)
}

type ToggleCompletionInput struct {
	Completed *bool `json:"completed" validate:"required"`
}

// ToggleCompletion flips an instance's completed flag, stamping the
// acting user and appending an audit entry.
func (tc *TaskController) ToggleCompletion(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	var input ToggleCompletionInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	actor, ok := ctx.Locals("user").(Models.User)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not Logged In."})
	}

	if err := tc.Tracker.ToggleCompletion(uint(id), *input.Completed, actor.Id, ctx.Get("X-Idempotency-Key")); err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "Completion updated successfully"})
}

type AddCommentInput struct {
	Content string `json:"content" validate:"required"`
}

// AddComment appends a comment to an instance. Completion state is
// untouched.
func (tc *TaskController) AddComment(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid instance ID"})
	}

	var input AddCommentInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	actor, ok := ctx.Locals("user").(Models.User)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not Logged In."})
	}

	if err := tc.Tracker.AddComment(uint(id), input.Content, actor.Id, ctx.Get("X-Idempotency-Key")); err != nil {
		return ctx.Status(lifecycleStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Comment added successfully"})
}

func parseSiteDay(ctx *fiber.Ctx) (uint, string, error) {
	siteID, err := strconv.Atoi(ctx.Params("site_id"))
	if err != nil {
		return 0, "", errors.New("invalid site ID")
	}
	date := ctx.Params("date")
	if _, err := Lifecycle.ParseDay(date); err != nil {
		return 0, "", err
	}
	return uint(siteID), date, nil
}

func lifecycleStatus(err error) int {
	switch {
	case errors.Is(err, Lifecycle.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, Lifecycle.ErrPreconditionFailed):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, Lifecycle.ErrTemplateSourceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
