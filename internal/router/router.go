package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskhub/internal/auth"
	"taskhub/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	tokenService *auth.TokenService,
	gate *auth.Gate,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	todoHandler *handler.TodoHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes. The jwt middleware extracts the x-auth header and
	// verifies the signature; the gate then resolves the user and checks the
	// token is still in their valid set. Every failure is a bare 401.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + auth.HeaderToken,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			claims, err := tokenService.Verify(raw)
			if err != nil {
				return nil, err
			}
			return &auth.VerifiedToken{Claims: claims, Raw: raw}, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.ErrUnauthorized
		},
	}), gate.Middleware())

	secured.GET("/me", userHandler.Me)
	secured.DELETE("/auth/logout", authHandler.Logout)

	// Todo routes
	secured.POST("/todos", todoHandler.Create)
	secured.GET("/todos", todoHandler.List)
	secured.GET("/todos/:id", todoHandler.Get)
	secured.PATCH("/todos/:id", todoHandler.Update)
	secured.DELETE("/todos/:id", todoHandler.Delete)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
