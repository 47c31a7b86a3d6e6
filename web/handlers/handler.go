package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/payroll"
	"github.com/sitewise/crewclock/web/common"
	"gorm.io/gorm"
)

// Handler carries the shared dependencies for the API surface. Every request
// resolves its tenant schema from the request host, so handlers never hold a
// *gorm.DB themselves.
type Handler struct {
	Dm          *core.DatabaseManager
	Connections *payroll.ConnectionManager
	Engine      *payroll.Engine
	Logger      *logrus.Logger

	// QBO environment ("sandbox" or "production") and the HMAC secret for
	// OAuth state tokens.
	Environment string
	StateSecret []byte
}

// tenantDB pins a pooled connection to the schema named by the request host
// ("acme.crewclock.app" -> schema "acme"). The caller closes conn.
func (h *Handler) tenantDB(c *gin.Context) (*gorm.DB, *sql.Conn, bool) {
	db, conn, err := h.Dm.GetDB(c.Request.Context(), c.Request.Host)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"module": "web",
			"host":   c.Request.Host,
		}).Error("failed to resolve tenant database: " + err.Error())
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("tenant database unavailable"))
		return nil, nil, false
	}
	return db, conn, true
}
