package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// staffMiddleware lets staff members through.
func staffMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsStaff() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// selfMiddleware lets the user identified by the `id` path param through.
func selfMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.ID != "" && claims.ID == ctx.Param("id") {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// selfOrStaffMiddleware lets staff members and the user identified by the `id` path param through.
func selfOrStaffMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsStaff() || (claims.ID != "" && claims.ID == ctx.Param("id")) {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
