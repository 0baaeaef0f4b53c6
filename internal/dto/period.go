package dto

import (
	"errors"
	"time"

	"schoolportal/backend/internal/model"
	"schoolportal/backend/internal/slotgrid"
)

// PeriodSpec is the payload for creating or updating a period. Update
// takes the same fields as create; the id travels in the URL.
type PeriodSpec struct {
	ClassID   string `json:"class_id"   binding:"required"`
	TeacherID string `json:"teacher_id" binding:"required"`
	SubjectID string `json:"subject_id" binding:"required"`
	Kind      string `json:"kind"       binding:"required,oneof=fixed dated"`

	// fixed
	DayOfWeek  *int `json:"day_of_week"  binding:"omitempty,min=0,max=6"`
	SlotNumber *int `json:"slot_number"  binding:"omitempty,min=1"`

	// dated
	Date      *string `json:"date"       binding:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// Validate checks that the payload matches its kind. Binding tags cover
// field shapes; this covers the fixed/dated variant completeness.
func (s *PeriodSpec) Validate() error {
	switch model.PeriodKind(s.Kind) {
	case model.PeriodFixed:
		if s.DayOfWeek == nil || s.SlotNumber == nil {
			return errors.New("fixed period requires day_of_week and slot_number")
		}
	case model.PeriodDated:
		if s.Date == nil || s.StartTime == nil || s.EndTime == nil {
			return errors.New("dated period requires date, start_time and end_time")
		}
		if !slotgrid.ValidClock(*s.StartTime) || !slotgrid.ValidClock(*s.EndTime) {
			return errors.New("start_time and end_time must be zero-padded HH:MM")
		}
	default:
		return errors.New("kind must be fixed or dated")
	}
	return nil
}

// PeriodResponse is the wire form of a period.
type PeriodResponse struct {
	ID        string `json:"id"`
	ClassID   string `json:"class_id"`
	TeacherID string `json:"teacher_id"`
	SubjectID string `json:"subject_id"`
	Kind      string `json:"kind"`

	DayOfWeek  *int    `json:"day_of_week,omitempty"`
	SlotNumber *int    `json:"slot_number,omitempty"`
	SlotName   string  `json:"slot_name,omitempty"`
	Date       *string `json:"date,omitempty"`

	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewPeriodResponse converts a stored period. slotName may be empty for
// dated periods.
func NewPeriodResponse(p *model.Period, slotName string) PeriodResponse {
	resp := PeriodResponse{
		ID:         p.PeriodID,
		ClassID:    p.ClassID,
		TeacherID:  p.TeacherID,
		SubjectID:  p.SubjectID,
		Kind:       string(p.Kind),
		DayOfWeek:  p.DayOfWeek,
		SlotNumber: p.SlotNumber,
		SlotName:   slotName,
		StartTime:  p.StartTime,
		EndTime:    p.EndTime,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Date != nil {
		d := p.Date.Format("2006-01-02")
		resp.Date = &d
	}
	return resp
}
