package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"schoolportal/backend/internal/model"
)

// ── Mock PeriodRepository ──

// mockPeriodRepo guards its map with a mutex so tests exercising the
// scheduling service's concurrency paths stay race-free.
type mockPeriodRepo struct {
	mu      sync.Mutex
	periods map[string]*model.Period
	nextID  int
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]*model.Period)}
}

func (m *mockPeriodRepo) Create(_ context.Context, period *model.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if period.PeriodID == "" {
		m.nextID++
		period.PeriodID = fmt.Sprintf("per-%03d", m.nextID)
	}
	now := time.Now()
	period.CreatedAt = now
	period.UpdatedAt = now
	stored := *period
	m.periods[period.PeriodID] = &stored
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) Update(_ context.Context, period *model.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	period.UpdatedAt = time.Now()
	stored := *period
	m.periods[period.PeriodID] = &stored
	return nil
}

func (m *mockPeriodRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[id]; !ok {
		return false, nil
	}
	delete(m.periods, id)
	return true, nil
}

func (m *mockPeriodRepo) ListFixedByClass(_ context.Context, classID string) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind == model.PeriodFixed && p.ClassID == classID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListDatedByClassAndDate(_ context.Context, classID string, date time.Time) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind == model.PeriodDated && p.ClassID == classID && sameDate(p.Date, date) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListFixedByTeacher(_ context.Context, teacherID string) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind == model.PeriodFixed && p.TeacherID == teacherID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListFixedByTeacherAndDay(_ context.Context, teacherID string, dayOfWeek int) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind == model.PeriodFixed && p.TeacherID == teacherID && p.DayOfWeek != nil && *p.DayOfWeek == dayOfWeek {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListDatedByTeacherAndDate(_ context.Context, teacherID string, date time.Time) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind == model.PeriodDated && p.TeacherID == teacherID && sameDate(p.Date, date) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListDatedByTeacherOnWeekday(_ context.Context, teacherID string, dayOfWeek int) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind == model.PeriodDated && p.TeacherID == teacherID && p.Date != nil && int(p.Date.Weekday()) == dayOfWeek {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListDatedByTeacherBetween(_ context.Context, teacherID string, from, to time.Time) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind != model.PeriodDated || p.TeacherID != teacherID || p.Date == nil {
			continue
		}
		if p.Date.Before(from) || !p.Date.Before(to) {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPeriodRepo) ListBySlot(_ context.Context, dayOfWeek, slotNumber int) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, p := range m.periods {
		if p.Kind == model.PeriodFixed && p.DayOfWeek != nil && *p.DayOfWeek == dayOfWeek &&
			p.SlotNumber != nil && *p.SlotNumber == slotNumber {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) FindFixedOccupant(_ context.Context, classID string, dayOfWeek, slotNumber int) (*model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.periods {
		if p.Kind == model.PeriodFixed && p.ClassID == classID &&
			p.DayOfWeek != nil && *p.DayOfWeek == dayOfWeek &&
			p.SlotNumber != nil && *p.SlotNumber == slotNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func sameDate(a *time.Time, b time.Time) bool {
	if a == nil {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
