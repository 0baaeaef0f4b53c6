package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"schoolportal/backend/internal/dto"
	"schoolportal/backend/internal/service"
	"schoolportal/backend/internal/slotgrid"
	"schoolportal/backend/pkg/response"
)

// TimetableHandler exposes the read-only timetable projections.
type TimetableHandler struct {
	periodSvc     service.PeriodService
	projectionSvc service.ProjectionService
	grid          *slotgrid.Grid
}

// NewTimetableHandler creates a TimetableHandler.
func NewTimetableHandler(periodSvc service.PeriodService, projectionSvc service.ProjectionService, grid *slotgrid.Grid) *TimetableHandler {
	return &TimetableHandler{periodSvc: periodSvc, projectionSvc: projectionSvc, grid: grid}
}

// GetWeekGrid returns the dense weekly grid for a class.
// GET /api/v1/timetable/classes/:id/week
func (h *TimetableHandler) GetWeekGrid(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "class id must not be empty")
		return
	}

	grid, err := h.projectionSvc.WeekGridForClass(c.Request.Context(), classID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, grid)
}

// GetTodaySchedule returns a class's effective schedule for today.
// GET /api/v1/timetable/classes/:id/today
func (h *TimetableHandler) GetTodaySchedule(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "class id must not be empty")
		return
	}

	schedule, err := h.projectionSvc.TodayScheduleForClass(c.Request.Context(), classID, time.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, schedule)
}

// GetTeacherAgenda returns a teacher's calendar for the current week.
// GET /api/v1/timetable/teachers/:id/agenda
func (h *TimetableHandler) GetTeacherAgenda(c *gin.Context) {
	teacherID := c.Param("id")
	if teacherID == "" {
		response.BadRequest(c, 10001, "teacher id must not be empty")
		return
	}

	agenda, err := h.projectionSvc.TeacherAgenda(c.Request.Context(), teacherID, time.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, agenda)
}

// GetFreeTeachers returns which of the given teachers are unoccupied in
// a weekly slot. The roster is supplied by the caller (the catalog
// service owns it), so deleted teachers never reappear here.
// GET /api/v1/timetable/free-teachers
func (h *TimetableHandler) GetFreeTeachers(c *gin.Context) {
	var req dto.FreeTeachersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "day_of_week, slot_number and teacher_ids are required")
		return
	}

	roster := strings.Split(req.TeacherIDs, ",")
	free, err := h.periodSvc.FreeTeachersForSlot(c.Request.Context(), *req.DayOfWeek, req.SlotNumber, roster)
	if err != nil {
		h.handleFreeTeachersError(c, err)
		return
	}

	response.OK(c, dto.FreeTeachersResponse{
		DayOfWeek:  *req.DayOfWeek,
		SlotNumber: req.SlotNumber,
		TeacherIDs: free,
	})
}

// ListSlots exposes the configured slot grid.
// GET /api/v1/timetable/slots
func (h *TimetableHandler) ListSlots(c *gin.Context) {
	slots := h.grid.Slots()
	out := make([]dto.SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, dto.SlotResponse{
			Number:    s.Number,
			Name:      s.Name,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			IsBreak:   s.IsBreak,
		})
	}
	response.OK(c, gin.H{"list": out})
}

func (h *TimetableHandler) handleFreeTeachersError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, slotgrid.ErrUnknownSlot):
		response.BadRequest(c, 16004, "slot number is out of the configured range")
	case errors.Is(err, service.ErrBreakSlot):
		response.BadRequest(c, 16004, "slot is a break")
	default:
		response.InternalError(c)
	}
}
