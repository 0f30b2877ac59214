package routes

import (
	"time"

	"parsfix/api/handler"
	"parsfix/api/middleware"
	"parsfix/internal/entity"

	"github.com/labstack/echo/v4"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Admin          *handler.AdminHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	adminHandler *handler.AdminHandler,
	authMiddleware middleware.AuthMiddleware,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Admin:          adminHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(30, 10, 10*time.Minute),
		LoginRate:      middleware.NewRateLimiter(10, 5, 15*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	auth := r.Echo.Group("/api/auth")
	auth.POST("/signup", r.Auth.Signup, r.AuthRate.Middleware())
	auth.POST("/login", r.Auth.Login, r.LoginRate.Middleware())
	auth.POST("/logout", r.Auth.Logout)
	auth.POST("/activate", r.Auth.Activate, r.LoginRate.Middleware())
	auth.POST("/resend-activation", r.Auth.ResendActivation, r.LoginRate.Middleware())
	auth.POST("/check-email", r.Auth.CheckEmail, r.AuthRate.Middleware())
	auth.POST("/google", r.Auth.GoogleSignIn, r.AuthRate.Middleware())
	auth.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	staff := middleware.RequireRoles(entity.RoleAdmin, entity.RoleSuperAdmin)
	superAdmin := middleware.RequireRoles(entity.RoleSuperAdmin)

	admin := r.Echo.Group("/api/admin/users")
	admin.GET("", r.Admin.ListUsers, r.AuthMiddleware.RequireAuth, staff)
	admin.PATCH("/:id/block", r.Admin.Block, r.AuthMiddleware.RequireAuth, staff)
	admin.PATCH("/:id/unblock", r.Admin.Unblock, r.AuthMiddleware.RequireAuth, staff)
	admin.PATCH("/:id/role", r.Admin.ChangeRole, r.AuthMiddleware.RequireAuth, superAdmin)
	admin.DELETE("/:id", r.Admin.Delete, r.AuthMiddleware.RequireAuth, staff)
}
