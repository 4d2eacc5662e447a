package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/drivingschool/core/schedule"
)

// registerCatalogAPI serves the static school configuration.
func registerCatalogAPI(g *echo.Group, catalog schedule.Catalog) {
	list := func(items []string) echo.HandlerFunc {
		if items == nil {
			items = []string{}
		}
		return func(ctx echo.Context) error {
			return ctx.JSON(http.StatusOK, items)
		}
	}

	g.GET("/groups", list(catalog.Groups))
	g.GET("/days", list(catalog.Days))
	g.GET("/times", list(catalog.Times))
	g.GET("/not-wdays", list(catalog.Blackouts))
	g.GET("/places", list(catalog.Places))
}
