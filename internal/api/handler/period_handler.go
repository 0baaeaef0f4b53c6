package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"schoolportal/backend/internal/dto"
	"schoolportal/backend/internal/service"
	"schoolportal/backend/internal/slotgrid"
	"schoolportal/backend/pkg/response"
)

// PeriodHandler exposes the scheduling mutations and single-period reads.
type PeriodHandler struct {
	periodSvc service.PeriodService
}

// NewPeriodHandler creates a PeriodHandler.
func NewPeriodHandler(periodSvc service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periodSvc: periodSvc}
}

// CreatePeriod assigns a teacher and subject to a class.
// POST /api/v1/periods
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	var spec dto.PeriodSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}
	if err := spec.Validate(); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	if _, ok := MustGetUserID(c); !ok {
		return
	}

	period, err := h.periodSvc.Create(c.Request.Context(), &spec)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.Created(c, period)
}

// UpdatePeriod re-validates and replaces an assignment.
// PUT /api/v1/periods/:id
func (h *PeriodHandler) UpdatePeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "period id must not be empty")
		return
	}

	var spec dto.PeriodSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}
	if err := spec.Validate(); err != nil {
		response.BadRequest(c, 10001, err.Error())
		return
	}

	if _, ok := MustGetUserID(c); !ok {
		return
	}

	period, err := h.periodSvc.Update(c.Request.Context(), id, &spec)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// DeletePeriod removes an assignment. A missing id yields 404 so
// callers can distinguish an idempotent retry from a real delete.
// DELETE /api/v1/periods/:id
func (h *PeriodHandler) DeletePeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "period id must not be empty")
		return
	}

	if _, ok := MustGetUserID(c); !ok {
		return
	}

	if err := h.periodSvc.Delete(c.Request.Context(), id); err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetPeriod fetches one assignment.
// GET /api/v1/periods/:id
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "period id must not be empty")
		return
	}

	period, err := h.periodSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePeriodError(c, err)
		return
	}

	response.OK(c, period)
}

// handlePeriodError maps scheduling errors to HTTP responses. Conflict
// responses carry the colliding period so the portal can explain the
// rejection.
func (h *PeriodHandler) handlePeriodError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		switch conflict.Kind {
		case service.ConflictClassSlotOccupied:
			response.Conflict(c, 16003, "class already has an assignment in that slot", conflict)
		default:
			response.Conflict(c, 16002, "teacher is already booked in that time range", conflict)
		}
	case errors.Is(err, service.ErrPeriodNotFound):
		response.NotFound(c, 16001, "period not found")
	case errors.Is(err, slotgrid.ErrUnknownSlot):
		response.BadRequest(c, 16004, "slot number is out of the configured range")
	case errors.Is(err, service.ErrBreakSlot):
		response.BadRequest(c, 16004, "slot is a break and cannot host a period")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 16005, "start time must precede end time")
	default:
		response.InternalError(c)
	}
}
