// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/olymp-admission/internal/config"
	"github.com/iliyamo/olymp-admission/internal/handler"
	"github.com/iliyamo/olymp-admission/internal/middleware"
	"github.com/iliyamo/olymp-admission/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Admin        *handler.AdminHandler
	Registration *handler.RegistrationHandler
	Admission    *handler.AdmissionHandler
	Invigilator  *handler.InvigilatorHandler
	Scan         *handler.ScanHandler
}

// Register mounts all routes.  Unauthenticated surface is the health
// check and the login endpoint; everything else sits behind JWT auth
// with per-group role guards.  The rate limiter wraps the admission
// endpoints, where a stuck QR scanner can hammer the API.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.POST("/v1/auth/login", h.Auth.Login)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))

	// Admin: staff accounts and competition setup.
	admin := v1.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/users", h.Auth.CreateUser)
	admin.POST("/competitions", h.Admin.CreateCompetition)
	admin.POST("/competitions/:id/rooms", h.Admin.CreateRoom)
	admin.PATCH("/rooms/:id/capacity", h.Admin.UpdateRoomCapacity)
	admin.POST("/institutions", h.Admin.CreateInstitution)
	admin.DELETE("/institutions/:id", h.Admin.DeleteInstitution)

	// Setup reads are open to all staff.
	v1.GET("/competitions", h.Admin.ListCompetitions)
	v1.GET("/competitions/:id/rooms", h.Admin.ListRooms)
	v1.GET("/institutions", h.Admin.ListInstitutions)

	// Registration desk: admitters and admins.
	reg := v1.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleAdmitter))
	reg.POST("/registrations", h.Registration.Create)
	reg.POST("/registrations/:id/entry-token", h.Registration.IssueEntryToken)
	reg.GET("/registrations/:id", h.Registration.Get)

	// Admission desk, rate limited against QR replay floods.
	adm := v1.Group("/admission",
		middleware.RequireRole(model.RoleAdmin, model.RoleAdmitter),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	adm.POST("/verify", h.Admission.Verify)
	adm.POST("/approve", h.Admission.Approve)

	// In-room operations.
	inv := v1.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleInvigilator))
	inv.POST("/attempts/:id/extra-sheet", h.Invigilator.IssueExtraSheet)
	inv.POST("/attempts/:id/events", h.Invigilator.RecordEvent)
	inv.GET("/attempts/:id/events", h.Invigilator.ListEvents)
	inv.GET("/rooms/:id/roster", h.Invigilator.RoomRoster)

	// Scanning station and score review.
	scan := v1.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleScanner))
	scan.POST("/scans", h.Scan.Upload)
	scan.GET("/scans/:id", h.Scan.Get)
	scan.GET("/scans/pending-review", h.Scan.PendingReview)
	scan.POST("/scans/:id/verify", h.Scan.VerifyScore)
	scan.GET("/attempts/:id", h.Scan.GetAttempt)

	// Result finalisation is admin territory.
	results := v1.Group("", middleware.RequireRole(model.RoleAdmin))
	results.POST("/attempts/:id/score", h.Scan.ApplyScore)
	results.POST("/attempts/:id/publish", h.Scan.Publish)
	results.POST("/attempts/:id/invalidate", h.Scan.Invalidate)
}
