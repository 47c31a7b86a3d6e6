package web

import (
	"github.com/gin-gonic/gin"
	"github.com/sitewise/crewclock/web/handlers"
	"github.com/sitewise/crewclock/web/middlewares"
)

// NewRouter wires the API surface. The OAuth callback sits outside the
// authenticated group: Intuit redirects the admin's browser straight to it,
// and the signed state token is what authenticates the request.
func NewRouter(h *handlers.Handler, jwtSecret []byte) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/api/v1/payroll/callback", h.PayrollCallback)

	protected := r.Group("/api/v1")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		protected.POST("/worksessions/:id/punches", h.RecordPunch)
		protected.POST("/worksessions/:id/close", h.CloseWorkSession)
		protected.GET("/worksessions/:id/shifts", h.ListShifts)

		protected.POST("/shifts/:id/approve", h.ApproveShift)
		protected.POST("/shifts/:id/push", h.PushShift)
		protected.POST("/shifts/retry", h.RetryShifts)

		protected.GET("/payroll/connect", h.PayrollConnect)
		protected.GET("/payroll/status", h.PayrollStatus)
		protected.GET("/payroll/entities", h.PayrollEntities)
		protected.POST("/payroll/disconnect", h.PayrollDisconnect)
	}

	return r
}
