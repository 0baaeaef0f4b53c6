package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"schoolportal/backend/internal/model"
	"schoolportal/backend/internal/repository"
	"schoolportal/backend/internal/slotgrid"
)

// ── scheduling business errors ──

var (
	ErrPeriodNotFound   = errors.New("period not found")
	ErrBreakSlot        = errors.New("slot is a break and cannot host a period")
	ErrInvalidTimeRange = errors.New("start time must precede end time")
)

// Conflict kinds carried by ConflictError.
const (
	ConflictTeacherBusy       = "teacher_busy"
	ConflictClassSlotOccupied = "class_slot_occupied"
)

// ConflictError rejects a proposed assignment and names the existing
// period it collides with, so the portal can render a precise message.
type ConflictError struct {
	Kind       string `json:"kind"`
	TeacherID  string `json:"teacher_id,omitempty"`
	ClassID    string `json:"class_id,omitempty"`
	DayOfWeek  *int   `json:"day_of_week,omitempty"`
	SlotNumber *int   `json:"slot_number,omitempty"`
	Date       string `json:"date,omitempty"`
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
	// ConflictsWith is the id of the existing period.
	ConflictsWith string `json:"conflicts_with"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictClassSlotOccupied:
		return fmt.Sprintf("class %s already has an assignment in that slot (period %s)", e.ClassID, e.ConflictsWith)
	default:
		return fmt.Sprintf("teacher %s is already booked %s-%s (period %s)", e.TeacherID, e.StartTime, e.EndTime, e.ConflictsWith)
	}
}

// conflictValidator decides whether a proposed period may be committed.
// It never writes; the scheduling service calls it under the per-teacher
// lock before every insert and update.
type conflictValidator struct {
	repo *repository.Repository
	grid *slotgrid.Grid
}

func newConflictValidator(repo *repository.Repository, grid *slotgrid.Grid) *conflictValidator {
	return &conflictValidator{repo: repo, grid: grid}
}

// validate checks the proposed period against the store. excludingID
// lets an update skip the period's own prior version.
func (v *conflictValidator) validate(ctx context.Context, p *model.Period, excludingID string) error {
	switch p.Kind {
	case model.PeriodFixed:
		return v.validateFixed(ctx, p, excludingID)
	case model.PeriodDated:
		return v.validateDated(ctx, p, excludingID)
	default:
		return fmt.Errorf("unknown period kind %q", p.Kind)
	}
}

func (v *conflictValidator) validateFixed(ctx context.Context, p *model.Period, excludingID string) error {
	slot, err := v.grid.Resolve(*p.SlotNumber)
	if err != nil {
		return err
	}
	if slot.IsBreak {
		return fmt.Errorf("%w: slot %d (%s)", ErrBreakSlot, slot.Number, slot.Name)
	}

	// Slot exclusivity: a class holds at most one assignment per
	// (day, slot).
	occupant, err := v.repo.Period.FindFixedOccupant(ctx, p.ClassID, *p.DayOfWeek, *p.SlotNumber)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if occupant != nil && occupant.PeriodID != excludingID {
		return &ConflictError{
			Kind:          ConflictClassSlotOccupied,
			ClassID:       p.ClassID,
			DayOfWeek:     p.DayOfWeek,
			SlotNumber:    p.SlotNumber,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			ConflictsWith: occupant.PeriodID,
		}
	}

	// Teacher availability against other fixed periods on the same day.
	sameDay, err := v.repo.Period.ListFixedByTeacherAndDay(ctx, p.TeacherID, *p.DayOfWeek)
	if err != nil {
		return err
	}
	if err := v.firstOverlap(p, slot.StartTime, slot.EndTime, sameDay, excludingID); err != nil {
		return err
	}

	// A fixed period recurs every week, so any dated period of the
	// teacher on a matching weekday would double-book them.
	dated, err := v.repo.Period.ListDatedByTeacherOnWeekday(ctx, p.TeacherID, *p.DayOfWeek)
	if err != nil {
		return err
	}
	return v.firstOverlap(p, slot.StartTime, slot.EndTime, dated, excludingID)
}

func (v *conflictValidator) validateDated(ctx context.Context, p *model.Period, excludingID string) error {
	if p.StartTime >= p.EndTime {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, p.StartTime, p.EndTime)
	}

	// Other dated periods of the teacher on the same date.
	sameDate, err := v.repo.Period.ListDatedByTeacherAndDate(ctx, p.TeacherID, *p.Date)
	if err != nil {
		return err
	}
	if err := v.firstOverlap(p, p.StartTime, p.EndTime, sameDate, excludingID); err != nil {
		return err
	}

	// Fixed periods of the teacher recurring on this date's weekday.
	fixed, err := v.repo.Period.ListFixedByTeacherAndDay(ctx, p.TeacherID, int(p.Date.Weekday()))
	if err != nil {
		return err
	}
	return v.firstOverlap(p, p.StartTime, p.EndTime, fixed, excludingID)
}

// firstOverlap returns a TeacherBusy conflict for the first existing
// period whose range overlaps [start, end), or nil.
func (v *conflictValidator) firstOverlap(p *model.Period, start, end string, existing []model.Period, excludingID string) error {
	for i := range existing {
		other := &existing[i]
		if other.PeriodID == excludingID {
			continue
		}
		if !overlaps(start, end, other.StartTime, other.EndTime) {
			continue
		}
		conflict := &ConflictError{
			Kind:          ConflictTeacherBusy,
			TeacherID:     p.TeacherID,
			DayOfWeek:     other.DayOfWeek,
			SlotNumber:    other.SlotNumber,
			StartTime:     other.StartTime,
			EndTime:       other.EndTime,
			ConflictsWith: other.PeriodID,
		}
		if other.Date != nil {
			conflict.Date = other.Date.Format("2006-01-02")
		}
		return conflict
	}
	return nil
}

// overlaps reports whether two half-open "HH:MM" ranges intersect.
// Equal endpoints do not overlap: back-to-back periods are legal.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}
