package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/web/common"
	"gorm.io/gorm"
)

type recordPunchRequest struct {
	WorkerID  int32      `json:"workerId" binding:"required"`
	Direction string     `json:"direction" binding:"required,oneof=in out"`
	PunchedAt *time.Time `json:"punchedAt"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Reason    *string    `json:"reason"`
}

// RecordPunch appends a punch to an open work-session.
func (h *Handler) RecordPunch(c *gin.Context) {
	var req recordPunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	punch := core.Punch{
		WorkSessionID: c.Param("id"),
		WorkerID:      req.WorkerID,
		Direction:     req.Direction,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Reason:        req.Reason,
	}
	if req.PunchedAt != nil {
		punch.PunchedAt = req.PunchedAt.UTC()
	}

	saved, err := core.RecordPunch(db, punch)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, common.NewSuccessResponse(saved))
}

type closeSessionRequest struct {
	EndAt *time.Time `json:"endAt"`
}

// CloseWorkSession force-closes the session: open intervals get a synthetic
// OUT, derived shifts are persisted. Safe to call twice.
func (h *Handler) CloseWorkSession(c *gin.Context) {
	// body is optional; an absent endAt means "close now"
	var req closeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	endAt := time.Now().UTC()
	if req.EndAt != nil {
		endAt = req.EndAt.UTC()
	}

	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	shifts, err := core.CloseWorkSession(db, c.Param("id"), endAt)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSearchResponse(shifts, int64(len(shifts))))
}

// ListShifts returns the shifts derived for a work-session; for a session
// still open this is a live derivation from the punch stream.
func (h *Handler) ListShifts(c *gin.Context) {
	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	shifts, err := core.CurrentShifts(db, c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSearchResponse(shifts, int64(len(shifts))))
}
