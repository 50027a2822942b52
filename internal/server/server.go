package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/docktree/docktree/internal/controllers"
	"github.com/docktree/docktree/internal/middlewares"
	"github.com/docktree/docktree/internal/version"
)

type HTTPServerDependencies struct {
	TreeController     *controllers.TreeController
	ActivityController *controllers.ActivityController
	AuthSecret         []byte
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "docktree",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "docktree",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := router.Group("/v1")
	api.Use(middlewares.PrincipalMiddleware(deps.AuthSecret))

	nodes := api.Group("/nodes")
	nodes.Post("/folders", deps.TreeController.CreateFolder)
	nodes.Post("/files", deps.TreeController.CreateFile)
	nodes.Post("/lookup", deps.TreeController.GetNodeByPath)
	nodes.Get("/:nodeID", deps.TreeController.GetNode)
	nodes.Get("/:nodeID/children", deps.TreeController.ListChildren)
	nodes.Patch("/:nodeID/name", deps.TreeController.RenameNode)
	nodes.Post("/:nodeID/move", deps.TreeController.MoveNode)
	nodes.Put("/:nodeID/content", deps.TreeController.SaveFileContent)
	nodes.Get("/:nodeID/content", deps.TreeController.ReadFile)
	nodes.Get("/:nodeID/history", deps.TreeController.ListFileHistory)
	nodes.Put("/:nodeID/favorite", deps.ActivityController.AddFavorite)
	nodes.Delete("/:nodeID/favorite", deps.ActivityController.RemoveFavorite)

	api.Get("/me/folder", deps.TreeController.GetUserFolder)
	api.Get("/me/favorites", deps.ActivityController.ListFavorites)
	api.Get("/me/recently-visited", deps.ActivityController.ListRecentlyVisited)

	api.Get("/workspaces/:alias/folder", deps.TreeController.GetWorkspaceFolder)

	return router
}
