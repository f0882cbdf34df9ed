package handlers

import (
	"strings"

	"case_desk_app_go/middleware"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes mounts the API and the static front end
func (h *Handler) RegisterRoutes(e *echo.Echo, loginLimiter *middleware.RateLimiter) {
	api := e.Group("/api")
	api.Use(middleware.AuditLog(h.Log))

	// Public routes
	api.GET("/status", h.Status)
	api.POST("/login", h.Login, loginLimiter.Middleware())

	// Authenticated routes
	protected := api.Group("")
	protected.Use(middleware.RequireAuth(h.Sessions, h.Store))
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)

		protected.GET("/db", h.GetDB)

		protected.GET("/cases", h.ListCases)
		protected.POST("/cases", h.CreateCase)
		protected.PUT("/cases", h.UpdateCases)
		protected.POST("/cases/delete", h.DeleteCases)
		protected.GET("/cases/:id", h.GetCase)
		protected.PUT("/cases/:id", h.UpdateCase)
		protected.DELETE("/cases/:id", h.DeleteCase)
		protected.POST("/cases/:id/tramitate", h.TramitateCase)
		protected.GET("/cases/:id/attachments/:attachmentID", h.DownloadAttachment)
		protected.GET("/cases/:id/dossier.pdf", h.CaseDossier)

		protected.GET("/kanban", h.Kanban)
		protected.GET("/calendar", h.Calendar)
		protected.GET("/dashboard", h.Dashboard)

		protected.GET("/lookups/:kind", h.ListLookups)
		protected.GET("/users", h.GetUsers)
		protected.GET("/users/:id", h.GetUser)

		protected.POST("/import", h.ImportCases)
		protected.POST("/import/paste", h.ImportPasted)
		protected.GET("/import/template", h.GetImportTemplate)
		protected.GET("/export", h.ExportCases)

		// Admin-only routes
		adminOnly := middleware.RequireAdmin()
		protected.POST("/save", h.SaveDB, adminOnly)

		protected.POST("/lookups/:kind", h.CreateLookup, adminOnly)
		protected.PUT("/lookups/:kind/:id", h.RenameLookup, adminOnly)
		protected.DELETE("/lookups/:kind/:id", h.DeleteLookup, adminOnly)

		protected.POST("/users", h.CreateUser, adminOnly)
		protected.PUT("/users/:id", h.UpdateUser, adminOnly)
		protected.DELETE("/users/:id", h.DeleteUser, adminOnly)

		protected.GET("/snapshots", h.ListSnapshots, adminOnly)
		protected.POST("/snapshots/:version/restore", h.RestoreSnapshot, adminOnly)
		protected.POST("/jobs/digest", h.RunDeadlineDigest, adminOnly)
	}

	// Everything outside /api is the single page app; unknown paths fall back to index.html
	e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
		Root:  h.Config.StaticDir,
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))
}
