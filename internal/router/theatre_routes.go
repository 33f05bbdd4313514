package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-reservation/internal/handler"
	"github.com/iliyamo/theatre-reservation/internal/middleware"
)

// RegisterCatalog registers halls, genres, actors, plays and performances
// under /api/theatre.  Any authenticated user may read; only admins may
// write.  cache wraps catalog routes only: performances expose
// available_seats and are always served live.
func RegisterCatalog(e *echo.Echo, c *handler.CatalogHandler, p *handler.PerformanceHandler,
	jwtSecret string, limiter, cache echo.MiddlewareFunc) {
	base := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), limiter, middleware.AdminOrReadOnly()}

	g := e.Group("/api/theatre", append(base, cache)...)

	// ---- Theatre halls ----
	g.GET("/theatre-halls", c.ListHalls)
	g.POST("/theatre-halls", c.CreateHall)
	g.GET("/theatre-halls/:id", c.GetHall)
	g.PUT("/theatre-halls/:id", c.UpdateHall)
	g.PATCH("/theatre-halls/:id", c.UpdateHall)
	g.DELETE("/theatre-halls/:id", c.DeleteHall)

	// ---- Genres ----
	g.GET("/genres", c.ListGenres)
	g.POST("/genres", c.CreateGenre)
	g.GET("/genres/:id", c.GetGenre)
	g.PUT("/genres/:id", c.UpdateGenre)
	g.PATCH("/genres/:id", c.UpdateGenre)
	g.DELETE("/genres/:id", c.DeleteGenre)

	// ---- Actors ----
	g.GET("/actors", c.ListActors)
	g.POST("/actors", c.CreateActor)
	g.GET("/actors/:id", c.GetActor)
	g.PUT("/actors/:id", c.UpdateActor)
	g.PATCH("/actors/:id", c.UpdateActor)
	g.DELETE("/actors/:id", c.DeleteActor)

	// ---- Plays ----
	g.GET("/plays", c.ListPlays)
	g.POST("/plays", c.CreatePlay)
	g.GET("/plays/:id", c.GetPlay)
	g.PUT("/plays/:id", c.UpdatePlay)
	g.PATCH("/plays/:id", c.UpdatePlay)
	g.DELETE("/plays/:id", c.DeletePlay)
	g.POST("/plays/:id/upload-image", c.UploadPlayImage)

	// ---- Performances (uncached) ----
	pg := e.Group("/api/theatre/performances", base...)
	pg.GET("", p.ListPerformances)
	pg.POST("", p.CreatePerformance)
	pg.GET("/:id", p.GetPerformance)
	pg.PUT("/:id", p.UpdatePerformance)
	pg.PATCH("/:id", p.UpdatePerformance)
	pg.DELETE("/:id", p.DeletePerformance)
}
