package router

import (
	"github.com/finsoeasy/rd-alpha/handler"
	"github.com/finsoeasy/rd-alpha/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App) {
	// Middleware
	api := app.Group("/v1", middleware.NewLogger())
	api.Get("/", handler.Ping)

	// Scores
	scores := api.Group("/scores")
	scores.Get("/:year", handler.GetScores)

	// Backtest
	api.Post("/backtest", handler.RunBacktest)

	// Factor analysis
	api.Get("/factors", handler.FactorReport)
}
