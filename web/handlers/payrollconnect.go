package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sitewise/crewclock/payroll"
	"github.com/sitewise/crewclock/quickbooks"
	"github.com/sitewise/crewclock/security"
	"github.com/sitewise/crewclock/web/common"
)

// PayrollConnect starts the QuickBooks authorization flow: a signed state
// token bound to the requesting tenant, wrapped into Intuit's authorize URL.
func (h *Handler) PayrollConnect(c *gin.Context) {
	state, err := security.CreateStateToken(c.Request.Host, h.StateSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("failed to create state token"))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"authorizeUrl": h.Connections.OAuth.AuthorizeURL(state),
	}))
}

// PayrollCallback is Intuit's redirect target. The tenant comes from the
// verified state token, never from the callback host: the redirect URI is a
// single registered URL shared by all tenants.
func (h *Handler) PayrollCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	realmID := c.Query("realmId")
	if code == "" || state == "" || realmID == "" {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("code, state and realmId are required"))
		return
	}

	tenant, err := security.VerifyStateToken(state, h.StateSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("invalid or expired state"))
		return
	}

	tok, err := h.Connections.OAuth.ExchangeCode(code)
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"module": "web",
			"tenant": tenant,
		}).Error("authorization code exchange failed: " + err.Error())
		c.JSON(http.StatusBadGateway, common.NewErrorResponse("authorization code exchange failed"))
		return
	}

	db, conn, err := h.Dm.GetDB(c.Request.Context(), tenant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("tenant database unavailable"))
		return
	}
	defer conn.Close()

	if err := h.Connections.SaveConnection(db, realmID, h.Environment, tok); err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse("failed to save connection"))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"tenant":  tenant,
		"realmId": realmID,
		"status":  payroll.ConnActive,
	}))
}

// PayrollStatus reports the tenant's connection record without exposing
// token material.
func (h *Handler) PayrollStatus(c *gin.Context) {
	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	record, err := h.Connections.GetConnection(db)
	if errors.Is(err, payroll.ErrNotConnected) {
		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"connected": false}))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"connected":         record.Status == payroll.ConnActive,
		"status":            record.Status,
		"realmId":           record.RealmID,
		"environment":       record.Environment,
		"payrollTimeZone":   record.PayrollTimeZone,
		"accessTokenExpiry": record.AccessTokenExpiry,
	}))
}

// PayrollEntities lists the QBO employees, customers and classes available
// for identity mappings; the admin mapping screen feeds on this.
func (h *Handler) PayrollEntities(c *gin.Context) {
	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	live, err := h.Connections.GetLiveConnection(db)
	if err != nil {
		if errors.Is(err, payroll.ErrNotConnected) || errors.Is(err, payroll.ErrTokenRevoked) {
			c.JSON(http.StatusConflict, common.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}

	client := quickbooks.NewClient(live.Environment, live.RealmID, live.AccessToken)

	employees, err := client.Query.Employees()
	if err != nil {
		c.JSON(http.StatusBadGateway, common.NewErrorResponse(err.Error()))
		return
	}
	customers, err := client.Query.Customers()
	if err != nil {
		c.JSON(http.StatusBadGateway, common.NewErrorResponse(err.Error()))
		return
	}
	classes, err := client.Query.Classes()
	if err != nil {
		c.JSON(http.StatusBadGateway, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"employees": employees,
		"customers": customers,
		"classes":   classes,
	}))
}

// PayrollDisconnect revokes the tenant's QuickBooks link. Provider-side
// revocation is best-effort; locally the row is always flagged.
func (h *Handler) PayrollDisconnect(c *gin.Context) {
	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	if err := h.Connections.RevokeConnection(db); err != nil {
		if errors.Is(err, payroll.ErrNotConnected) {
			c.JSON(http.StatusNotFound, common.NewErrorResponse("no payroll connection"))
			return
		}
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"status": payroll.ConnDisconnected}))
}
