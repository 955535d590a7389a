// handlers/game_routes.go
package handlers

import (
	"strconv"

	"goon-fighter/middleware"
	"goon-fighter/models"
	"goon-fighter/services"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultLeaderboardCount = 10
	defaultHistoryDays      = 7
)

type gameHandler struct {
	svc *services.GameService
}

func SetupGameRoutes(app *fiber.App, svc *services.GameService) {
	h := &gameHandler{svc: svc}

	// 🔓 Public routes (gateway auth only)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/capabilities", func(c *fiber.Ctx) error {
		return c.JSON(svc.Capabilities())
	})
	app.Get("/ranks", h.getAllRanks)
	app.Get("/ranks/for-points/:points", h.getRankForPoints)
	app.Get("/ranks/id-for-points/:points", h.pointsToRankID)
	app.Get("/leaderboard", h.getLeaderboard)

	// 🔐 Player routes
	user := middleware.RequireUser()
	app.Post("/matches/find", user, h.findMatch)
	app.Get("/matches/current", user, h.currentMatch)
	app.Delete("/matches/queue", user, h.leaveQueue)
	app.Post("/matches/:id/result", user, h.submitResult)
	app.Post("/matches/:id/resolve", user, h.resolveCombat)
	app.Post("/story/encounters/:level/resolve", user, h.resolveStory)
	app.Get("/me/stats", user, h.getMyStats)
	app.Get("/me/matches", user, h.recentMatches)
}

func (h *gameHandler) findMatch(c *fiber.Ctx) error {
	var body struct {
		StartSolo bool `json:"start_solo"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	m, err := h.svc.FindMatch(c.UserContext(), middleware.CallerFrom(c), body.StartSolo)
	if err != nil {
		return respondError(c, err)
	}
	if m == nil {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued", "match": nil})
	}
	return c.JSON(fiber.Map{"status": m.Status, "match": m})
}

func (h *gameHandler) currentMatch(c *fiber.Ctx) error {
	m, queued, err := h.svc.CurrentMatch(middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"queued": queued, "match": m})
}

func (h *gameHandler) leaveQueue(c *fiber.Ctx) error {
	left, err := h.svc.LeaveQueue(middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"left": left})
}

func (h *gameHandler) submitResult(c *fiber.Ctx) error {
	var body struct {
		Winner        models.Principal `json:"winner"`
		Loser         models.Principal `json:"loser"`
		WinningPoints int64            `json:"winning_points"`
		LosingPoints  int64            `json:"losing_points"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	err := h.svc.SubmitResult(c.UserContext(), middleware.CallerFrom(c), c.Params("id"),
		body.Winner, body.Loser, body.WinningPoints, body.LosingPoints)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": models.MatchResolved})
}

func (h *gameHandler) resolveCombat(c *fiber.Ctx) error {
	res, err := h.svc.ResolveCombat(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *gameHandler) resolveStory(c *fiber.Ctx) error {
	level, err := strconv.ParseInt(c.Params("level"), 10, 64)
	if err != nil {
		return badRequest(c, "encounter level must be an integer")
	}
	res, err := h.svc.ResolveStoryModeCombat(c.UserContext(), middleware.CallerFrom(c), level)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *gameHandler) getMyStats(c *fiber.Ctx) error {
	stats, err := h.svc.GetMyStats(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *gameHandler) recentMatches(c *fiber.Ctx) error {
	days := c.QueryInt("days", defaultHistoryDays)
	matches, err := h.svc.RecentMatches(c.UserContext(), middleware.CallerFrom(c), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"days": days, "matches": matches})
}

func (h *gameHandler) getAllRanks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ranks": h.svc.GetAllRanks()})
}

func (h *gameHandler) getRankForPoints(c *fiber.Ctx) error {
	points, err := strconv.ParseInt(c.Params("points"), 10, 64)
	if err != nil {
		return badRequest(c, "points must be an integer")
	}
	rank, err := h.svc.GetRankForPoints(points)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rank)
}

func (h *gameHandler) pointsToRankID(c *fiber.Ctx) error {
	points, err := strconv.ParseInt(c.Params("points"), 10, 64)
	if err != nil {
		return badRequest(c, "points must be an integer")
	}
	id, err := h.svc.PointsToRankID(points)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"rank_id": id})
}

func (h *gameHandler) getLeaderboard(c *fiber.Ctx) error {
	entries, err := h.svc.GetLeaderboard(c.UserContext(), c.QueryInt("count", defaultLeaderboardCount))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"leaderboard": entries})
}
