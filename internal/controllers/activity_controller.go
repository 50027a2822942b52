package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/docktree/docktree/internal/domain"
	"github.com/docktree/docktree/internal/middlewares"
)

const defaultRecentlyVisitedLimit = 20

type ActivityController struct {
	activityManager domain.ActivityManager
}

type ActivityControllerDependencies struct {
	ActivityManager domain.ActivityManager
}

func NewActivityController(deps ActivityControllerDependencies) *ActivityController {
	return &ActivityController{
		activityManager: deps.ActivityManager,
	}
}

func (c *ActivityController) AddFavorite(ctx fiber.Ctx) error {
	err := c.activityManager.Favorite(ctx.RequestCtx(), middlewares.Principal(ctx), ctx.Params("nodeID"))
	if err != nil {
		return domainError(err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *ActivityController) RemoveFavorite(ctx fiber.Ctx) error {
	err := c.activityManager.Unfavorite(ctx.RequestCtx(), middlewares.Principal(ctx), ctx.Params("nodeID"))
	if err != nil {
		return domainError(err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *ActivityController) ListFavorites(ctx fiber.Ctx) error {
	nodes, err := c.activityManager.ListFavorites(ctx.RequestCtx(), middlewares.Principal(ctx))
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(fiber.Map{"favorites": nodes})
}

func (c *ActivityController) ListRecentlyVisited(ctx fiber.Ctx) error {
	limit := defaultRecentlyVisitedLimit
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid limit")
		}
		limit = parsed
	}

	nodes, err := c.activityManager.ListRecentlyVisited(ctx.RequestCtx(), middlewares.Principal(ctx), limit)
	if err != nil {
		return domainError(err)
	}

	return ctx.JSON(fiber.Map{"recently_visited": nodes})
}
