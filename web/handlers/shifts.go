package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sitewise/crewclock/core"
	"github.com/sitewise/crewclock/web/common"
	"gorm.io/gorm"
)

func shiftID(c *gin.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("invalid shift id"))
		return 0, false
	}
	return int32(id), true
}

// ApproveShift flips a shift to approved and immediately attempts the payroll
// push. A push failure does not undo the approval; the retry queue owns the
// record from here.
func (h *Handler) ApproveShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	shift, err := core.ApproveShift(db, id)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, common.NewErrorResponse(err.Error()))
		return
	}

	pushed, pushErr := h.Engine.PushShift(db, shift.ID)
	if pushErr != nil {
		h.Logger.WithFields(logrus.Fields{
			"module":   "web",
			"shift_id": shift.ID,
		}).Warn("push after approval failed: " + pushErr.Error())
	}
	if pushed != nil {
		shift = pushed
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(shift))
}

// PushShift runs a single on-demand push and reports the resulting status.
func (h *Handler) PushShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	shift, err := h.Engine.PushShift(db, id)
	if err != nil {
		if shift == nil {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, gorm.ErrRecordNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, common.NewErrorResponse(err.Error()))
			return
		}
		// the attempt ran and was recorded; report the shift as it now stands
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": err.Error(),
			"data":    shift,
		})
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(shift))
}

type retryShiftsRequest struct {
	IDs []int32 `json:"ids"`
}

// RetryShifts re-queues failed pushes. Without ids it takes everything
// eligible (capped); explicit ids can also revive not_mapped records once the
// mapping has been fixed.
func (h *Handler) RetryShifts(c *gin.Context) {
	var req retryShiftsRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	db, conn, ok := h.tenantDB(c)
	if !ok {
		return
	}
	defer conn.Close()

	summary, err := h.Engine.RetryShifts(db, req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(summary))
}
