package handler

import (
	"schoolportal/backend/internal/service"
	"schoolportal/backend/internal/slotgrid"
)

// Handler aggregates all HTTP handlers.
type Handler struct {
	Period    *PeriodHandler
	Timetable *TimetableHandler
	Export    *ExportHandler
}

// NewHandler wires the handler layer.
func NewHandler(svc *service.Service, grid *slotgrid.Grid) *Handler {
	return &Handler{
		Period:    NewPeriodHandler(svc.Period),
		Timetable: NewTimetableHandler(svc.Period, svc.Projection, grid),
		Export:    NewExportHandler(svc.Export),
	}
}
