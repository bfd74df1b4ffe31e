package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/handlers"
	"github.com/eventplaza/eventplaza/internal/middleware"
	"github.com/eventplaza/eventplaza/internal/services"
)

// Deps carries the services the router wires into handlers.
type Deps struct {
	Users    *services.UserService
	Events   *services.EventService
	Tasks    *services.TaskService
	Verifier *services.VerificationService
	Resets   *services.PasswordResetService
	Sessions *iauth.SessionService
}

// NewRouter builds the Gin engine, wires middleware, and registers routes.
// Page GET routes serve JSON view models consumed by the rendering layer;
// form POST routes answer with flash cookies and redirects.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Users == nil || deps.Events == nil || deps.Tasks == nil {
		return nil, fmt.Errorf("user, event, and task services must be provided")
	}
	if deps.Verifier == nil || deps.Resets == nil {
		return nil, fmt.Errorf("verification and password reset services must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions, deps.Verifier)
	eventHandler := handlers.NewEventHandler(deps.Events, deps.Tasks)
	taskHandler := handlers.NewTaskHandler(deps.Events, deps.Tasks)
	profileHandler := handlers.NewProfileHandler(deps.Users, deps.Verifier)
	passwordHandler := handlers.NewPasswordHandler(deps.Resets, deps.Sessions)
	verifyHandler := handlers.NewVerifyHandler(deps.Verifier)

	// Monitoring endpoints (public)
	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	r.GET("/", authHandler.Landing)
	r.GET("/signup", authHandler.SignupPage)
	r.POST("/signup", authHandler.Signup)
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", authHandler.Login)
	r.GET("/verify/:token", verifyHandler.Confirm)
	r.GET("/reset_password", passwordHandler.RequestPage)
	r.POST("/reset_password", passwordHandler.Request)
	r.GET("/reset_password/:token", passwordHandler.CompletePage)
	r.POST("/reset_password/:token", passwordHandler.Complete)

	// Routes that need a login but tolerate an unverified email
	authed := r.Group("", middleware.RequireUser(deps.Sessions))
	{
		authed.GET("/signout", authHandler.Signout)
		authed.GET("/verify", verifyHandler.Page)
		authed.POST("/verify", verifyHandler.Resend)
	}

	// Routes gated on a verified email
	verified := authed.Group("", middleware.RequireVerified())
	{
		verified.GET("/home", eventHandler.Home)
		verified.GET("/create_event", eventHandler.CreatePage)
		verified.POST("/create_event", eventHandler.Create)
		verified.GET("/profile", profileHandler.Page)
		verified.POST("/profile", profileHandler.Update)

		// Event dashboards are keyed by the unique event name. Task
		// actions carry a literal task segment so the static dashboard
		// pages and the task id parameter never collide in the route tree.
		dashboard := verified.Group("/:event/dashboard")
		{
			dashboard.GET("", eventHandler.Dashboard)
			dashboard.GET("/pendingreview", eventHandler.PendingReview)
			dashboard.GET("/done", eventHandler.Done)
			dashboard.POST("/add_member", eventHandler.AddMember)
			dashboard.POST("/create_task", taskHandler.Create)
			dashboard.GET("/task/:id/review", taskHandler.MarkReview)
			dashboard.GET("/task/:id/done", taskHandler.MarkDone)
			dashboard.GET("/task/:id/delete", taskHandler.Delete)
		}
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
