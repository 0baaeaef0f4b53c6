package model

import "time"

// PeriodKind discriminates the two period shapes.
type PeriodKind string

const (
	// PeriodFixed recurs every week on DayOfWeek at SlotNumber.
	PeriodFixed PeriodKind = "fixed"
	// PeriodDated is a single occurrence on Date with an explicit
	// StartTime/EndTime range, which need not align to any slot.
	PeriodDated PeriodKind = "dated"
)

// Period assigns one teacher and one subject to one class for one
// occurrence of teaching. Teacher, subject and class ids are opaque
// references owned by the portal's catalog service.
//
// Fixed periods carry DayOfWeek + SlotNumber; their StartTime/EndTime
// are denormalized from the slot grid on write. Dated periods carry
// Date + explicit StartTime/EndTime. Times are zero-padded "HH:MM".
type Period struct {
	PeriodID  string     `gorm:"type:uuid;primaryKey"        json:"period_id"`
	ClassID   string     `gorm:"type:varchar(64);not null"   json:"class_id"`
	TeacherID string     `gorm:"type:varchar(64);not null"   json:"teacher_id"`
	SubjectID string     `gorm:"type:varchar(64);not null"   json:"subject_id"`
	Kind      PeriodKind `gorm:"type:varchar(10);not null"   json:"kind"`

	DayOfWeek  *int       `gorm:"type:smallint" json:"day_of_week,omitempty"` // 0-6, 0 = Sunday
	SlotNumber *int       `gorm:"type:smallint" json:"slot_number,omitempty"`
	Date       *time.Time `gorm:"type:date"     json:"date,omitempty"`

	StartTime string `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string `gorm:"type:varchar(5);not null" json:"end_time"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the table name.
func (Period) TableName() string { return "periods" }

// Day returns the day of week a fixed period recurs on, or the weekday
// of a dated period's date.
func (p *Period) Day() int {
	switch p.Kind {
	case PeriodFixed:
		if p.DayOfWeek != nil {
			return *p.DayOfWeek
		}
	case PeriodDated:
		if p.Date != nil {
			return int(p.Date.Weekday())
		}
	}
	return -1
}
