package handlers

import (
	"errors"
	"path/filepath"

	"score-tracking-system/middleware"
	"score-tracking-system/services"
	"score-tracking-system/stores"
	"score-tracking-system/utils"
	"score-tracking-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusForErr maps the engine's error taxonomy onto HTTP statuses.
func statusForErr(err error) int {
	var validation *services.ValidationError
	var transition *services.InvalidTransitionError
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &transition):
		return fiber.StatusConflict
	case errors.Is(err, stores.ErrScoreNotFound),
		errors.Is(err, stores.ErrModeNotFound),
		errors.Is(err, stores.ErrStageContextNotFound),
		errors.Is(err, stores.ErrPlayerNotFound),
		errors.Is(err, stores.ErrCostumeNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusForErr(err)).JSON(fiber.Map{"error": err.Error()})
}

func listParams(c *fiber.Ctx) stores.ApprovalListParams {
	return stores.ApprovalListParams{
		PlatformID: c.Query("platform_id"),
		GameID:     c.Query("game_id"),
		MiniGameID: c.Query("mini_game_id"),
		ModeID:     c.Query("mode_id"),
		Page:       c.QueryInt("page"),
		Limit:      c.QueryInt("limit", 10),
	}
}

func SetupScoreRoutes(app *fiber.App, scoreService *services.ScoreService, leaderboardService *services.LeaderboardService, recordWorker *workers.WorldRecordWorker) {
	secured := app.Group("/", middleware.UserContextMiddleware())
	admin := secured.Group("/admin", middleware.RequireAdmin())

	// Submit a score for the authenticated player.
	secured.Post("/scores", func(c *fiber.Ctx) error {
		var input services.ScoreAddInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		userID := c.Locals("user_id").(string)
		score, err := scoreService.Submit(input, userID)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(services.NewScoreView(score))
	})

	// Upload an evidence video/screenshot; the returned URL goes into the
	// submission's evidence field.
	secured.Post("/scores/evidence", func(c *fiber.Ctx) error {
		file, err := c.FormFile("evidence")
		if err != nil || file.Size == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "evidence file is required"})
		}
		ext := filepath.Ext(file.Filename)
		if ext == "" {
			ext = ".mp4"
		}
		key := "scores/evidence/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(file, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload evidence"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	})

	secured.Get("/scores/:id", func(c *fiber.Ctx) error {
		score, err := scoreService.FindByID(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(services.NewScoreView(score))
	})

	// Peer approval track.
	secured.Post("/scores/:id/approval", func(c *fiber.Ctx) error {
		type Req struct {
			Action      string `json:"action"`
			Description string `json:"description"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		userID := c.Locals("user_id").(string)
		if err := scoreService.ApprovalPlayer(c.Params("id"), userID, req.Action, req.Description); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "approval recorded"})
	})

	secured.Get("/scores/approval/pending", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		scores, meta, err := scoreService.FindApprovalListPlayer(userID, listParams(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(services.NewApprovalListView(scores, meta))
	})

	// Admin approval track.
	admin.Post("/scores/:id/approval", func(c *fiber.Ctx) error {
		type Req struct {
			Action      string `json:"action"`
			Description string `json:"description"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		userID := c.Locals("user_id").(string)
		if err := scoreService.ApprovalAdmin(c.Params("id"), userID, req.Action, req.Description); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "approval recorded"})
	})

	admin.Get("/scores/approval/pending", func(c *fiber.Ctx) error {
		scores, meta, err := scoreService.FindApprovalListAdmin(listParams(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(services.NewApprovalListView(scores, meta))
	})

	// Leaderboard (public behind gateway auth; reads approved scores only).
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		table, err := leaderboardService.FindScoreTable(
			c.Query("platform_id"),
			c.Query("game_id"),
			c.Query("mini_game_id"),
			c.Query("mode_id"),
			c.QueryInt("page", 1),
			c.QueryInt("limit", 10),
		)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(table)
	})

	app.Get("/world-records", func(c *fiber.Ctx) error {
		stageContextID := c.Query("stage_context_id")
		if stageContextID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "stage_context_id is required"})
		}
		records, err := recordWorker.CurrentRecords(stageContextID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(records)
	})
}
