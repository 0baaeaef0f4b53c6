package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolportal/backend/internal/model"
)

// PeriodRepository is the period store. It performs no validation; the
// scheduling service runs the conflict validator before any write.
type PeriodRepository interface {
	Create(ctx context.Context, period *model.Period) error
	GetByID(ctx context.Context, id string) (*model.Period, error)
	Update(ctx context.Context, period *model.Period) error
	// Delete removes a period and reports whether a row existed. A
	// missing id is not a failure; callers decide how to surface it.
	Delete(ctx context.Context, id string) (bool, error)

	ListFixedByClass(ctx context.Context, classID string) ([]model.Period, error)
	ListDatedByClassAndDate(ctx context.Context, classID string, date time.Time) ([]model.Period, error)
	ListFixedByTeacher(ctx context.Context, teacherID string) ([]model.Period, error)
	ListFixedByTeacherAndDay(ctx context.Context, teacherID string, dayOfWeek int) ([]model.Period, error)
	ListDatedByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]model.Period, error)
	// ListDatedByTeacherOnWeekday returns a teacher's dated periods
	// whose calendar date falls on the given day of week, for checking
	// dated occurrences against recurring fixed assignments.
	ListDatedByTeacherOnWeekday(ctx context.Context, teacherID string, dayOfWeek int) ([]model.Period, error)
	ListDatedByTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) ([]model.Period, error)
	ListBySlot(ctx context.Context, dayOfWeek, slotNumber int) ([]model.Period, error)
	FindFixedOccupant(ctx context.Context, classID string, dayOfWeek, slotNumber int) (*model.Period, error)
}

type periodRepo struct {
	db *gorm.DB
}

// NewPeriodRepo creates a PeriodRepository backed by GORM.
func NewPeriodRepo(db *gorm.DB) PeriodRepository {
	return &periodRepo{db: db}
}

func (r *periodRepo) Create(ctx context.Context, period *model.Period) error {
	if period.PeriodID == "" {
		period.PeriodID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *periodRepo) GetByID(ctx context.Context, id string) (*model.Period, error) {
	var period model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).Where("period_id = ?", id).First(&period).Error
	})
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *periodRepo) Update(ctx context.Context, period *model.Period) error {
	period.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(period).Error
}

func (r *periodRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("period_id = ?", id).Delete(&model.Period{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *periodRepo) ListFixedByClass(ctx context.Context, classID string) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND class_id = ?", model.PeriodFixed, classID).
			Order("day_of_week ASC, slot_number ASC").
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) ListDatedByClassAndDate(ctx context.Context, classID string, date time.Time) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND class_id = ? AND date = ?", model.PeriodDated, classID, dateOnly(date)).
			Order("start_time ASC").
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) ListFixedByTeacher(ctx context.Context, teacherID string) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND teacher_id = ?", model.PeriodFixed, teacherID).
			Order("day_of_week ASC, slot_number ASC").
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) ListFixedByTeacherAndDay(ctx context.Context, teacherID string, dayOfWeek int) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND teacher_id = ? AND day_of_week = ?", model.PeriodFixed, teacherID, dayOfWeek).
			Order("slot_number ASC").
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) ListDatedByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND teacher_id = ? AND date = ?", model.PeriodDated, teacherID, dateOnly(date)).
			Order("start_time ASC").
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) ListDatedByTeacherOnWeekday(ctx context.Context, teacherID string, dayOfWeek int) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND teacher_id = ? AND EXTRACT(DOW FROM date) = ?", model.PeriodDated, teacherID, dayOfWeek).
			Order("date ASC, start_time ASC").
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) ListDatedByTeacherBetween(ctx context.Context, teacherID string, from, to time.Time) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND teacher_id = ? AND date >= ? AND date < ?",
				model.PeriodDated, teacherID, dateOnly(from), dateOnly(to)).
			Order("date ASC, start_time ASC").
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) ListBySlot(ctx context.Context, dayOfWeek, slotNumber int) ([]model.Period, error) {
	var periods []model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND day_of_week = ? AND slot_number = ?", model.PeriodFixed, dayOfWeek, slotNumber).
			Find(&periods).Error
	})
	return periods, err
}

func (r *periodRepo) FindFixedOccupant(ctx context.Context, classID string, dayOfWeek, slotNumber int) (*model.Period, error) {
	var period model.Period
	err := r.read(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("kind = ? AND class_id = ? AND day_of_week = ? AND slot_number = ?",
				model.PeriodFixed, classID, dayOfWeek, slotNumber).
			First(&period).Error
	})
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// ── read retry ──

const (
	readAttempts = 3
	readBackoff  = 100 * time.Millisecond
)

// read retries a query on transient infrastructure errors. Writes are
// never retried here: without idempotency keys a retried create could
// double-insert.
func (r *periodRepo) read(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < readAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * readBackoff):
			}
		}
		err = op()
		if err == nil || !isTransient(err) {
			return err
		}
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
