package main

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/missiond/internal/missions"
	"github.com/fieldops/missiond/internal/model"
)

type createMissionReq struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    *model.Point `json:"location"`
}

type setStatusReq struct {
	Status string `json:"status"`
}

// addMissionApi registers the mission routes. Reads are public, any
// route acting on behalf of an owner goes through basic auth.
func addMissionApi(app *App, f fiber.Router) {
	g := f.Group("/api/mission")
	auth := getUserAuth(app.users)

	g.Post("/create", auth, getMissionCreateHandler(app))
	g.Get("/", getMissionsHandler(app))
	g.Get("/my", auth, getMyMissionsHandler(app))
	g.Get("/nearby", getNearbyHandler(app))
	g.Get("/stats", getStatsHandler(app))
	g.Get("/:id", getMissionHandler(app))
	g.Get("/:id/changes", getMissionChangesHandler(app))
	g.Put("/:id", auth, getMissionUpdateHandler(app))
	g.Patch("/:id/status", auth, getMissionStatusHandler(app))
	g.Delete("/:id", auth, getMissionDeleteHandler(app))
}

func getMissionCreateHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var req createMissionReq

		if err := ctx.BodyParser(&req); err != nil {
			return errAnswer(ctx, model.NewValidationError("body", "invalid json"))
		}

		if req.Location == nil {
			return errAnswer(ctx, model.NewValidationError("location", "is required"))
		}

		m, err := app.missions.Create(ctx.UserContext(), Username(ctx),
			req.Title, req.Description, req.Location.Lon, req.Location.Lat)
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.Status(fiber.StatusCreated).JSON(makeAnswer("mission created", model.ToMissionDTO(m)))
	}
}

func getMissionsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		statuses, err := parseStatuses(ctx.Query("status"))
		if err != nil {
			return errAnswer(ctx, err)
		}

		f := missions.Filter{
			Statuses: statuses,
			OwnerID:  ctx.Query("userId"),
			Deleted:  ctx.QueryBool("deleted", false),
		}

		res, info, err := app.missions.List(ctx.UserContext(), f, parsePage(ctx))
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makePagedAnswer("missions", model.ToMissionsDTO(res), info))
	}
}

func getMyMissionsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		statuses, err := parseStatuses(ctx.Query("status"))
		if err != nil {
			return errAnswer(ctx, err)
		}

		f := missions.Filter{Statuses: statuses}

		res, info, err := app.missions.ListMine(ctx.UserContext(), Username(ctx), f, parsePage(ctx))
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makePagedAnswer("missions", model.ToMissionsDTO(res), info))
	}
}

func getNearbyHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		lon, err := strconv.ParseFloat(ctx.Query("longitude"), 64)
		if err != nil {
			return errAnswer(ctx, model.NewValidationError("longitude", "is required"))
		}

		lat, err := strconv.ParseFloat(ctx.Query("latitude"), 64)
		if err != nil {
			return errAnswer(ctx, model.NewValidationError("latitude", "is required"))
		}

		radius, err := intQuery(ctx, "maxDistance", missions.DefaultNearbyDist)
		if err != nil {
			return errAnswer(ctx, err)
		}

		limit, err := intQuery(ctx, "limit", missions.DefaultNearbyLimit)
		if err != nil {
			return errAnswer(ctx, err)
		}

		statuses, err := parseStatuses(ctx.Query("status"))
		if err != nil {
			return errAnswer(ctx, err)
		}

		res, err := app.missions.Nearby(ctx.UserContext(), lon, lat, radius, limit, statuses)
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makeAnswer("missions nearby", model.ToMissionsDTO(res)))
	}
}

func getStatsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		s, err := app.missions.Stats(ctx.UserContext(), ctx.Query("userId"))
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makeAnswer("mission stats", s))
	}
}

func getMissionHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		m, err := app.missions.Get(ctx.UserContext(), ctx.Params("id"))
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makeAnswer("mission", model.ToMissionDTO(m)))
	}
}

func getMissionChangesHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		res, err := app.missions.Changes(ctx.UserContext(), ctx.Params("id"), ctx.QueryInt("limit", 50))
		if err != nil {
			return errAnswer(ctx, err)
		}

		data := make([]*model.ChangeDTO, len(res))
		for i, c := range res {
			data[i] = model.ToChangeDTO(c)
		}

		return ctx.JSON(makeAnswer("mission changes", data))
	}
}

func getMissionUpdateHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var patch model.MissionPatch

		if err := ctx.BodyParser(&patch); err != nil {
			return errAnswer(ctx, model.NewValidationError("body", "invalid json"))
		}

		m, err := app.missions.Update(ctx.UserContext(), ctx.Params("id"), Username(ctx), &patch)
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makeAnswer("mission updated", model.ToMissionDTO(m)))
	}
}

func getMissionStatusHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var req setStatusReq

		if err := ctx.BodyParser(&req); err != nil {
			return errAnswer(ctx, model.NewValidationError("body", "invalid json"))
		}

		m, err := app.missions.SetStatus(ctx.UserContext(), ctx.Params("id"), Username(ctx), model.Status(req.Status))
		if err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makeAnswer("mission status updated", model.ToMissionDTO(m)))
	}
}

func getMissionDeleteHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := app.missions.Delete(ctx.UserContext(), ctx.Params("id"), Username(ctx)); err != nil {
			return errAnswer(ctx, err)
		}

		return ctx.JSON(makeAnswer("mission deleted", nil))
	}
}
