package server

import (
	"github.com/atlas-cmdb/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiRoutes := e.Group("/api")

	// Question answering
	apiRoutes.POST("/ask", routes.AskHandler)

	// Graph population jobs
	apiRoutes.POST("/graph/seed", routes.SeedGraphHandler)
	apiRoutes.POST("/graph/embed", routes.EmbedGraphHandler)
}
