package handlers

import (
	"score-tracking-system/middleware"
	"score-tracking-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupReferenceRoutes exposes the admin-only reference data management the
// engine resolves submissions against.
func SetupReferenceRoutes(app *fiber.App, referenceService *services.ReferenceService) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	type namedReq struct {
		Name string `json:"name"`
	}

	admin.Post("/platforms", func(c *fiber.Ctx) error {
		var req namedReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		platform, err := referenceService.CreatePlatform(req.Name)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(platform)
	})

	admin.Post("/games", func(c *fiber.Ctx) error {
		var req namedReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		game, err := referenceService.CreateGame(req.Name)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(game)
	})

	admin.Post("/mini-games", func(c *fiber.Ctx) error {
		var req namedReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		miniGame, err := referenceService.CreateMiniGame(req.Name)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(miniGame)
	})

	admin.Post("/modes", func(c *fiber.Ctx) error {
		type Req struct {
			Name           string `json:"name"`
			PlayerQuantity int    `json:"player_quantity"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		mode, err := referenceService.CreateMode(req.Name, req.PlayerQuantity)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(mode)
	})

	admin.Post("/stages", func(c *fiber.Ctx) error {
		type Req struct {
			Name      string `json:"name"`
			SortOrder int    `json:"sort_order"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		stage, err := referenceService.CreateStage(req.Name, req.SortOrder)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(stage)
	})

	admin.Post("/stage-contexts", func(c *fiber.Ctx) error {
		type Req struct {
			PlatformID string `json:"platform_id"`
			GameID     string `json:"game_id"`
			MiniGameID string `json:"mini_game_id"`
			ModeID     string `json:"mode_id"`
			StageID    string `json:"stage_id"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		ctx, err := referenceService.CreateStageContext(req.PlatformID, req.GameID, req.MiniGameID, req.ModeID, req.StageID)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ctx)
	})

	admin.Post("/character-costumes", func(c *fiber.Ctx) error {
		type Req struct {
			PlatformID    string `json:"platform_id"`
			GameID        string `json:"game_id"`
			MiniGameID    string `json:"mini_game_id"`
			ModeID        string `json:"mode_id"`
			CharacterName string `json:"character_name"`
			CostumeName   string `json:"costume_name"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		costume, err := referenceService.CreateCharacterCostume(
			req.PlatformID, req.GameID, req.MiniGameID, req.ModeID, req.CharacterName, req.CostumeName)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(costume)
	})

	admin.Post("/players", func(c *fiber.Ctx) error {
		type Req struct {
			UserID      string `json:"user_id"`
			PersonaName string `json:"persona_name"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		player, err := referenceService.CreatePlayer(req.UserID, req.PersonaName)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(player)
	})
}
