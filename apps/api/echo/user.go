package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/schedule"
	"github.com/trezcool/drivingschool/core/student"
	"github.com/trezcool/drivingschool/core/user"
	"github.com/trezcool/drivingschool/services/metrics"
)

var (
	errLoginRequired = core.NewValidationError(nil, core.FieldError{Field: "email", Error: "email or phone is required"})
	errUnknownGroup  = core.NewValidationError(nil, core.FieldError{Field: "group", Error: "unknown group"})
)

type userApi struct {
	auth       *authenticator
	svc        user.ServiceInterface
	studentSvc student.ServiceInterface
	catalog    schedule.Catalog
	validate   *validator.Validate
}

func registerUserAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc user.ServiceInterface,
	studentSvc student.ServiceInterface,
	catalog schedule.Catalog,
	validate *validator.Validate,
) {
	api := userApi{
		auth:       auth,
		svc:        svc,
		studentSvc: studentSvc,
		catalog:    catalog,
		validate:   validate,
	}

	// un-authed endpoints
	g.POST("/login", api.login)

	// authed endpoints
	ag := g.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/staff-register", api.registerStudent, staffMiddleware)
	ag.POST("/register-mastercar", api.registerInstructor, staffMiddleware)
	ag.POST("/register-instructor", api.registerInstructor, staffMiddleware)
	ag.PUT("/update-student/:id", api.updateStudent, staffMiddleware)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx, api.svc, data.Email, data.Phone, data.Password)
	if err != nil {
		if err == errInvalidLogin {
			metrics.ObserveLogin(metrics.ResultRejected)
		} else {
			metrics.ObserveLogin(metrics.ResultFailed)
		}
		return err
	}
	token, err := api.auth.generateToken(api.auth.userClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	metrics.ObserveLogin(metrics.ResultOK)
	return ctx.JSON(http.StatusOK, LoginResponse{Message: "logged in", Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding user by ID")
	}

	token, err := api.auth.generateToken(api.auth.userClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Message: "token refreshed", Token: token})
}

func (api *userApi) registerStudent(ctx echo.Context) error {
	var data user.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if !api.catalog.HasGroup(data.Group) {
		return errUnknownGroup
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.RegisterStudent(rctx, data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	if err = api.studentSvc.Init(rctx, usr.ID); err != nil {
		return errors.Wrap(err, "initializing student info")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{Message: "student registered", ID: usr.ID})
}

func (api *userApi) registerInstructor(ctx echo.Context) error {
	var data user.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.RegisterStaff(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering instructor")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{Message: "instructor registered", ID: usr.ID})
}

func (api *userApi) updateStudent(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	if _, err := api.svc.GetByID(rctx, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if data.Group != nil && !api.catalog.HasGroup(*data.Group) {
		return errUnknownGroup
	}

	usr, err := api.svc.Update(rctx, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, UserResponse{Message: "student updated", User: usr})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"omitempty,email"`
		Phone    string `json:"phone"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}

	CreatedResponse struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}

	UserResponse struct {
		Message string    `json:"message"`
		User    user.User `json:"user"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	lr.Phone = core.CleanString(lr.Phone)
	if err := validate.Struct(lr); err != nil {
		return err
	}
	if lr.Email == "" && lr.Phone == "" {
		return errLoginRequired
	}
	return nil
}
