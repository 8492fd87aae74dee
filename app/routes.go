package app

import (
	"net/http"
	"strconv"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"
	"github.com/soffa-projects/go-webstack/api"
	"github.com/soffa-projects/go-webstack/auth"
	"github.com/soffa-projects/go-webstack/errors"
	"github.com/soffa-projects/go-webstack/schema"
	"github.com/soffa-projects/go-webstack/store"
)

var createUserSchema = schema.MustObject(schema.Map{
	"type":     "object",
	"required": []string{"name", "email"},
	"properties": schema.Map{
		"name": schema.Map{
			"type":      "string",
			"minLength": 2,
			"maxLength": 100,
		},
		"email": schema.Map{
			"type":   "string",
			"format": "email",
		},
		"role": schema.Map{
			"type":    "string",
			"enum":    []string{store.RoleCustomer, store.RoleAdmin},
			"default": store.RoleCustomer,
		},
	},
})

func (a *App) registerRoutes(authHandler *auth.Handler, users store.UserRepo) {
	a.e.GET("/api/auth/login", authHandler.Login)
	a.e.GET("/api/auth/callback/google", authHandler.Callback)
	a.e.POST("/api/auth/logout", authHandler.Logout)
	a.e.GET("/api/auth/me", authHandler.Me)

	a.e.GET("/api/health", api.Handler(api.Route{Public: true}, a.health))

	a.e.GET("/api/users", api.Handler(api.Route{Public: true}, listUsers(users)))
	a.e.POST("/api/users", api.Handler(api.Route{RequiredRole: store.RoleAdmin, Schema: createUserSchema}, createUser(users)))

	a.e.GET("/api/profile", api.Handler(api.Route{}, getProfile(users)))
	a.e.PATCH("/api/profile", api.Handler(api.Route{}, updateProfile(users)))
}

func (a *App) health(c echo.Context, _ api.Params, _ any) error {
	status := schema.NewHealthStatus()
	status.SetServiceStatus("database", a.db.Ping())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func listUsers(users store.UserRepo) api.HandlerFunc {
	return func(c echo.Context, p api.Params, _ any) error {
		page := intParam(p.Query.Get("page"), 1)
		limit := intParam(p.Query.Get("limit"), 10)
		list, err := users.List(page, limit)
		if err != nil {
			return err
		}
		total, err := users.Count()
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, schema.Map{
			"users": list,
			"pagination": schema.Map{
				"total": total,
				"page":  page,
				"limit": limit,
			},
		})
	}
}

func createUser(users store.UserRepo) api.HandlerFunc {
	return func(c echo.Context, p api.Params, data any) error {
		input := data.(map[string]any)
		email := input["email"].(string)
		taken, err := users.ExistsByEmail(email)
		if err != nil {
			return err
		}
		if taken {
			return errors.Conflict("email_already_registered")
		}
		user := &store.User{
			Email: email,
			Name:  input["name"].(string),
			Role:  input["role"].(string),
		}
		if err = users.Create(user); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, user)
	}
}

func getProfile(users store.UserRepo) api.HandlerFunc {
	return func(c echo.Context, p api.Params, _ any) error {
		user, err := users.FindById(p.Auth.UserId)
		if err != nil {
			return err
		}
		if user == nil {
			return errors.ResourceNotFound("user_not_found")
		}
		var profile schema.Profile
		if err = copier.Copy(&profile, user); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, profile)
	}
}

func updateProfile(users store.UserRepo) api.HandlerFunc {
	return func(c echo.Context, p api.Params, _ any) error {
		var input schema.ProfileUpdateInput
		if err := api.Bind(c, &input); err != nil {
			return err
		}
		user, err := users.FindById(p.Auth.UserId)
		if err != nil {
			return err
		}
		if user == nil {
			return errors.ResourceNotFound("user_not_found")
		}
		if input.Name != "" {
			user.Name = input.Name
		}
		if input.Bio != "" {
			user.Bio = input.Bio
		}
		if input.Avatar != "" {
			user.Avatar = input.Avatar
		}
		if err = users.Save(user); err != nil {
			return err
		}
		var profile schema.Profile
		if err = copier.Copy(&profile, user); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, profile)
	}
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
