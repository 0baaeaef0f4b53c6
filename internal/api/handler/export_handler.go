package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schoolportal/backend/internal/service"
	"schoolportal/backend/pkg/response"
)

// ExportHandler streams timetable downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportClassTimetable downloads a class's week grid as .xlsx.
// GET /api/v1/export/timetable/:classId
func (h *ExportHandler) ExportClassTimetable(c *gin.Context) {
	classID := c.Param("classId")
	if classID == "" {
		response.BadRequest(c, 10001, "class id must not be empty")
		return
	}

	buf, filename, err := h.exportSvc.ClassTimetableXLSX(c.Request.Context(), classID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExportNoPeriods):
			response.NotFound(c, 17001, "class has no scheduled periods")
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// TeacherAgendaICS serves a teacher's agenda as an iCalendar feed.
// GET /api/v1/export/agenda/:teacherId
func (h *ExportHandler) TeacherAgendaICS(c *gin.Context) {
	teacherID := c.Param("teacherId")
	if teacherID == "" {
		response.BadRequest(c, 10001, "teacher id must not be empty")
		return
	}

	payload, filename, err := h.exportSvc.TeacherAgendaICS(c.Request.Context(), teacherID, time.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", payload)
}
