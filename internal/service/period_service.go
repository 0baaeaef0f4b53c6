package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolportal/backend/internal/dto"
	"schoolportal/backend/internal/model"
	"schoolportal/backend/internal/repository"
	"schoolportal/backend/internal/slotgrid"
	"schoolportal/backend/pkg/redis"
)

// PeriodService is the only entry point permitted to mutate the period
// store. Every write runs the conflict validator first, under a lock
// keyed by teacher id, so two concurrent creates for the same teacher
// and an overlapping slot cannot both succeed.
type PeriodService interface {
	Create(ctx context.Context, spec *dto.PeriodSpec) (*dto.PeriodResponse, error)
	Update(ctx context.Context, id string, spec *dto.PeriodSpec) (*dto.PeriodResponse, error)
	// Delete reports ErrPeriodNotFound for an absent id rather than
	// swallowing it; callers rely on that for idempotent retries.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error)
	// FreeTeachersForSlot returns the subset of roster not occupied in
	// the weekly slot, preserving roster order.
	FreeTeachersForSlot(ctx context.Context, dayOfWeek, slotNumber int, roster []string) ([]string, error)
}

type periodService struct {
	repo      *repository.Repository
	grid      *slotgrid.Grid
	validator *conflictValidator
	cache     *redis.Client
	logger    *zap.Logger
	locks     *teacherLocks
}

// NewPeriodService creates a PeriodService. cache may be nil.
func NewPeriodService(repo *repository.Repository, grid *slotgrid.Grid, cache *redis.Client, logger *zap.Logger) PeriodService {
	return &periodService{
		repo:      repo,
		grid:      grid,
		validator: newConflictValidator(repo, grid),
		cache:     cache,
		logger:    logger,
		locks:     newTeacherLocks(),
	}
}

// ────────────────────── Create ──────────────────────

func (s *periodService) Create(ctx context.Context, spec *dto.PeriodSpec) (*dto.PeriodResponse, error) {
	period, err := s.fromSpec(spec)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(period.TeacherID)
	defer unlock()

	if err := s.validator.validate(ctx, period, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Period.Create(ctx, period); err != nil {
		s.logger.Error("creating period failed", zap.Error(err))
		return nil, err
	}

	s.invalidateProjections(ctx, period)

	resp := dto.NewPeriodResponse(period, s.slotName(period))
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *periodService) Update(ctx context.Context, id string, spec *dto.PeriodSpec) (*dto.PeriodResponse, error) {
	current, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		s.logger.Error("loading period failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	proposed, err := s.fromSpec(spec)
	if err != nil {
		return nil, err
	}
	proposed.PeriodID = current.PeriodID
	proposed.CreatedAt = current.CreatedAt

	// Lock both the old and the new teacher when they differ, so a
	// reassignment cannot race either side.
	unlock := s.locks.lock(current.TeacherID, proposed.TeacherID)
	defer unlock()

	// Re-validate as if new, excluding the prior version of this period.
	if err := s.validator.validate(ctx, proposed, id); err != nil {
		return nil, err
	}

	if err := s.repo.Period.Update(ctx, proposed); err != nil {
		s.logger.Error("updating period failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.invalidateProjections(ctx, current)
	s.invalidateProjections(ctx, proposed)

	resp := dto.NewPeriodResponse(proposed, s.slotName(proposed))
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *periodService) Delete(ctx context.Context, id string) error {
	current, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPeriodNotFound
		}
		return err
	}

	deleted, err := s.repo.Period.Delete(ctx, id)
	if err != nil {
		s.logger.Error("deleting period failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if !deleted {
		return ErrPeriodNotFound
	}

	s.invalidateProjections(ctx, current)
	return nil
}

// ────────────────────── GetByID ──────────────────────

func (s *periodService) GetByID(ctx context.Context, id string) (*dto.PeriodResponse, error) {
	period, err := s.repo.Period.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, err
	}
	resp := dto.NewPeriodResponse(period, s.slotName(period))
	return &resp, nil
}

// ────────────────────── FreeTeachersForSlot ──────────────────────

func (s *periodService) FreeTeachersForSlot(ctx context.Context, dayOfWeek, slotNumber int, roster []string) ([]string, error) {
	slot, err := s.grid.Resolve(slotNumber)
	if err != nil {
		return nil, err
	}
	if slot.IsBreak {
		return nil, ErrBreakSlot
	}

	occupied, err := s.repo.Period.ListBySlot(ctx, dayOfWeek, slotNumber)
	if err != nil {
		s.logger.Error("listing slot occupants failed", zap.Error(err))
		return nil, err
	}

	busy := make(map[string]bool, len(occupied))
	for _, p := range occupied {
		busy[p.TeacherID] = true
	}

	free := make([]string, 0, len(roster))
	seen := make(map[string]bool, len(roster))
	for _, id := range roster {
		if id == "" || seen[id] || busy[id] {
			continue
		}
		seen[id] = true
		free = append(free, id)
	}
	return free, nil
}

// ── helpers ──

// fromSpec builds a Period from a validated spec, denormalizing the
// slot times for fixed periods.
func (s *periodService) fromSpec(spec *dto.PeriodSpec) (*model.Period, error) {
	p := &model.Period{
		ClassID:   spec.ClassID,
		TeacherID: spec.TeacherID,
		SubjectID: spec.SubjectID,
		Kind:      model.PeriodKind(spec.Kind),
	}

	switch p.Kind {
	case model.PeriodFixed:
		p.DayOfWeek = spec.DayOfWeek
		p.SlotNumber = spec.SlotNumber
		slot, err := s.grid.Resolve(*spec.SlotNumber)
		if err != nil {
			return nil, err
		}
		p.StartTime = slot.StartTime
		p.EndTime = slot.EndTime
	case model.PeriodDated:
		date, err := time.Parse("2006-01-02", *spec.Date)
		if err != nil {
			return nil, err
		}
		p.Date = &date
		p.StartTime = *spec.StartTime
		p.EndTime = *spec.EndTime
	}

	return p, nil
}

func (s *periodService) slotName(p *model.Period) string {
	if p.SlotNumber == nil {
		return ""
	}
	slot, err := s.grid.Resolve(*p.SlotNumber)
	if err != nil {
		return ""
	}
	return slot.Name
}

// invalidateProjections drops the cached views touched by a mutation.
// Cache errors are logged, never surfaced: the cache is best effort.
func (s *periodService) invalidateProjections(ctx context.Context, p *model.Period) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "weekgrid:"+p.ClassID); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("class_id", p.ClassID), zap.Error(err))
	}
}

// ── per-teacher serialization ──

// teacherLocks serializes validate-then-commit per teacher id. The
// partial unique indexes in the store remain the cross-process backstop.
type teacherLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTeacherLocks() *teacherLocks {
	return &teacherLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex of every given teacher in sorted order, so
// two callers locking overlapping sets cannot deadlock. The returned
// function releases them in reverse order.
func (l *teacherLocks) lock(teacherIDs ...string) func() {
	ids := make([]string, 0, len(teacherIDs))
	seen := make(map[string]bool, len(teacherIDs))
	for _, id := range teacherIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	acquired := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		m, ok := l.locks[id]
		if !ok {
			m = &sync.Mutex{}
			l.locks[id] = m
		}
		l.mu.Unlock()
		m.Lock()
		acquired = append(acquired, m)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}
