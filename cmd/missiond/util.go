package main

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/missiond/internal/missions"
	"github.com/fieldops/missiond/internal/model"
	"github.com/fieldops/missiond/pkg/util"
)

func makeAnswer(message string, data any) map[string]any {
	result := make(map[string]any)
	result["success"] = true
	result["message"] = message
	result["data"] = data

	return result
}

func makePagedAnswer(message string, data any, info *missions.PageInfo) map[string]any {
	result := makeAnswer(message, data)
	result["pagination"] = info

	return result
}

func errAnswer(ctx *fiber.Ctx, err error) error {
	return ctx.Status(errStatus(err)).JSON(fiber.Map{"success": false, "message": err.Error()})
}

// errStatus maps domain errors to HTTP codes. Transport is the only
// layer that knows about status codes.
func errStatus(err error) int {
	var (
		valErr  *model.ValidationError
		trErr   *model.InvalidTransitionError
		connErr *model.ConnectionError
	)

	switch {
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrInvalidArgument), errors.As(err, &valErr), errors.As(err, &trErr):
		return fiber.StatusBadRequest
	case errors.As(err, &connErr):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func parseStatuses(s string) ([]model.Status, error) {
	if s == "" {
		return nil, nil
	}

	set := util.StringToSet(s)
	res := make([]model.Status, 0, len(set))

	for _, name := range set.List() {
		st, ok := model.ParseStatus(name)
		if !ok {
			return nil, model.NewValidationError("status", "unknown status "+name)
		}

		res = append(res, st)
	}

	return res, nil
}

// intQuery parses an optional numeric query param. A present but
// non-numeric value is an error, not the default.
func intQuery(ctx *fiber.Ctx, name string, def int) (int, error) {
	s := ctx.Query(name)
	if s == "" {
		return def, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, model.NewValidationError(name, "must be a number")
	}

	return n, nil
}

func parsePage(ctx *fiber.Ctx) missions.PageRequest {
	return missions.PageRequest{
		Page:     ctx.QueryInt("page", 1),
		Size:     ctx.QueryInt("pageSize", missions.DefaultPageSize),
		SortBy:   ctx.Query("sortBy", "created"),
		SortDesc: ctx.Query("sortOrder", "desc") != "asc",
	}
}
