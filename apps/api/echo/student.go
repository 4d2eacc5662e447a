package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/services/metrics"
)

type studentApi struct {
	svc      student.ServiceInterface
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.ServiceInterface, validate *validator.Validate) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("", jwt)
	ag.GET("/student/:id", api.retrieve, staffMiddleware)
	ag.GET("/profile/:id", api.profile, selfMiddleware)
	ag.POST("/add-payment/:id", api.addPayment, staffMiddleware)
	ag.POST("/add-booking/:id", api.addBooking, selfOrStaffMiddleware)
	ag.DELETE("/cancel-booking/:id/:index", api.cancelBooking, staffMiddleware)
	ag.PUT("/progress/:id", api.updateProgress, staffMiddleware)
}

// Handlers

func (api *studentApi) retrieve(ctx echo.Context) error {
	profile, err := api.svc.Profile(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *studentApi) profile(ctx echo.Context) error {
	profile, err := api.svc.OwnProfile(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting own profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *studentApi) addPayment(ctx echo.Context) error {
	var data student.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	info, err := api.svc.AddPayment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding payment")
	}
	metrics.ObservePayment(data.Amount)
	return ctx.JSON(http.StatusOK, InfoResponse{Message: "payment added", Info: info})
}

func (api *studentApi) addBooking(ctx echo.Context) error {
	var data student.NewBooking
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBooking")
	}
	if err := data.Validate(api.validate); err != nil {
		metrics.ObserveBooking(metrics.ResultRejected)
		return err
	}

	info, err := api.svc.AddBooking(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			metrics.ObserveBooking(metrics.ResultRejected)
		} else {
			metrics.ObserveBooking(metrics.ResultFailed)
		}
		return errors.Wrap(err, "adding booking")
	}
	metrics.ObserveBooking(metrics.ResultOK)
	return ctx.JSON(http.StatusOK, InfoResponse{Message: "booking added", Info: info})
}

func (api *studentApi) cancelBooking(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return student.ErrBookingNotFound
	}

	info, err := api.svc.CancelBooking(ctx.Request().Context(), ctx.Param("id"), index)
	if err != nil {
		return errors.Wrap(err, "cancelling booking")
	}
	metrics.ObserveCancellation()
	return ctx.JSON(http.StatusOK, InfoResponse{Message: "booking cancelled", Info: info})
}

func (api *studentApi) updateProgress(ctx echo.Context) error {
	var data student.ProgressUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	info, err := api.svc.UpdateProgress(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, InfoResponse{Message: "progress updated", Info: info})
}

type InfoResponse struct {
	Message string       `json:"message"`
	Info    student.Info `json:"info"`
}
