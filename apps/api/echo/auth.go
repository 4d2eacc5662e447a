package echoapi

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/drivingschool/core"
	"github.com/trezcool/drivingschool/core/user"
)

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (c Claims) IsStaff() bool {
	return c.Role == user.RoleStaff
}

// User returns the identity carried by the claims.
func (c Claims) User() user.User {
	return user.User{ID: c.ID, Email: c.Email, Role: c.Role}
}

// authenticator issues and verifies the tokens.
type authenticator struct {
	conf       middleware.JWTConfig
	issuer     string
	expiration time.Duration
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		issuer:     conf.AppName,
		expiration: conf.JWTExpirationDelta,
	}
}

// middleware rejects requests without a valid, unexpired token.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.conf)
}

func (a *authenticator) userClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   usr.ID,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		ID:    usr.ID,
		Email: usr.Email,
		Role:  usr.Role,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.conf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.conf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// authenticate checks the credentials. Unknown users and wrong passwords yield the same error.
func authenticate(ctx echo.Context, svc user.ServiceInterface, email, phone, pwd string) (user.User, error) {
	usr, err := svc.GetByLogin(ctx.Request().Context(), email, phone)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, errInvalidLogin
		}
		return user.User{}, errors.Wrap(err, "finding user by login")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errInvalidLogin
	}
	return usr, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
