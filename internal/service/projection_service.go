package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"schoolportal/backend/internal/dto"
	"schoolportal/backend/internal/model"
	"schoolportal/backend/internal/repository"
	"schoolportal/backend/internal/slotgrid"
	"schoolportal/backend/pkg/redis"
)

const weekGridCacheTTL = 5 * time.Minute

// ProjectionService serves the read-only timetable views. It never
// mutates the store; its queries need only snapshot-consistent reads
// and run fully concurrently with each other.
type ProjectionService interface {
	// WeekGridForClass returns the dense 7×N grid for a class: one
	// cell per (day, slot), nil period for empty cells.
	WeekGridForClass(ctx context.Context, classID string) (*dto.WeekGridResponse, error)
	// TodayScheduleForClass returns the class's effective schedule for
	// now's calendar day: fixed periods for the weekday plus dated
	// periods for the date, ordered by start time.
	TodayScheduleForClass(ctx context.Context, classID string, now time.Time) (*dto.TodayScheduleResponse, error)
	// TeacherAgenda returns the teacher's personal calendar for the
	// current reference week, fixed periods materialized into concrete
	// datetimes, ordered by start.
	TeacherAgenda(ctx context.Context, teacherID string, now time.Time) (*dto.AgendaResponse, error)
}

type projectionService struct {
	repo   *repository.Repository
	grid   *slotgrid.Grid
	cache  *redis.Client
	logger *zap.Logger
}

// NewProjectionService creates a ProjectionService. cache may be nil.
func NewProjectionService(repo *repository.Repository, grid *slotgrid.Grid, cache *redis.Client, logger *zap.Logger) ProjectionService {
	return &projectionService{repo: repo, grid: grid, cache: cache, logger: logger}
}

// ────────────────────── WeekGridForClass ──────────────────────

func (s *projectionService) WeekGridForClass(ctx context.Context, classID string) (*dto.WeekGridResponse, error) {
	cacheKey := "weekgrid:" + classID
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	periods, err := s.repo.Period.ListFixedByClass(ctx, classID)
	if err != nil {
		s.logger.Error("listing class periods failed", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	// Index by (day, slot). The store's slot-exclusivity invariant
	// guarantees at most one occupant per key.
	type gridKey struct{ day, slot int }
	occupants := make(map[gridKey]*model.Period, len(periods))
	for i := range periods {
		p := &periods[i]
		if p.DayOfWeek == nil || p.SlotNumber == nil {
			continue
		}
		occupants[gridKey{*p.DayOfWeek, *p.SlotNumber}] = p
	}

	slots := s.grid.Slots()
	resp := &dto.WeekGridResponse{
		ClassID: classID,
		Slots:   toSlotResponses(slots),
		Days:    make([]dto.WeekGridDay, 0, 7),
	}
	for day := 0; day < 7; day++ {
		column := dto.WeekGridDay{
			DayOfWeek: day,
			Cells:     make([]dto.WeekGridCell, 0, len(slots)),
		}
		for _, slot := range slots {
			cell := dto.WeekGridCell{SlotNumber: slot.Number, IsBreak: slot.IsBreak}
			if p, ok := occupants[gridKey{day, slot.Number}]; ok {
				pr := dto.NewPeriodResponse(p, slot.Name)
				cell.Period = &pr
			}
			column.Cells = append(column.Cells, cell)
		}
		resp.Days = append(resp.Days, column)
	}

	s.toCache(ctx, cacheKey, resp)
	return resp, nil
}

// ────────────────────── TodayScheduleForClass ──────────────────────

func (s *projectionService) TodayScheduleForClass(ctx context.Context, classID string, now time.Time) (*dto.TodayScheduleResponse, error) {
	day := slotgrid.CurrentDayOfWeek(now)

	fixed, err := s.repo.Period.ListFixedByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	dated, err := s.repo.Period.ListDatedByClassAndDate(ctx, classID, now)
	if err != nil {
		return nil, err
	}

	todays := make([]model.Period, 0, len(fixed)+len(dated))
	for _, p := range fixed {
		if p.DayOfWeek != nil && *p.DayOfWeek == day {
			todays = append(todays, p)
		}
	}
	todays = append(todays, dated...)

	sort.SliceStable(todays, func(i, j int) bool {
		return todays[i].StartTime < todays[j].StartTime
	})

	resp := &dto.TodayScheduleResponse{
		ClassID:   classID,
		Date:      now.Format("2006-01-02"),
		DayOfWeek: day,
		Periods:   make([]dto.PeriodResponse, 0, len(todays)),
	}
	for i := range todays {
		resp.Periods = append(resp.Periods, dto.NewPeriodResponse(&todays[i], s.slotName(&todays[i])))
	}
	return resp, nil
}

// ────────────────────── TeacherAgenda ──────────────────────

func (s *projectionService) TeacherAgenda(ctx context.Context, teacherID string, now time.Time) (*dto.AgendaResponse, error) {
	weekStart := slotgrid.WeekStart(now)
	weekEnd := weekStart.AddDate(0, 0, 7)

	fixed, err := s.repo.Period.ListFixedByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	dated, err := s.repo.Period.ListDatedByTeacherBetween(ctx, teacherID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	items := make([]dto.AgendaItem, 0, len(fixed)+len(dated))
	for i := range fixed {
		p := &fixed[i]
		if p.DayOfWeek == nil || p.SlotNumber == nil {
			continue
		}
		start, end, err := s.grid.Instantiate(*p.DayOfWeek, *p.SlotNumber, weekStart)
		if err != nil {
			// A period referencing a slot removed from configuration;
			// fail soft and keep the rest of the agenda usable.
			s.logger.Warn("period references unknown slot",
				zap.String("period_id", p.PeriodID), zap.Intp("slot_number", p.SlotNumber))
			continue
		}
		items = append(items, dto.AgendaItem{
			Period:   dto.NewPeriodResponse(p, s.slotName(p)),
			StartsAt: start.Format(time.RFC3339),
			EndsAt:   end.Format(time.RFC3339),
		})
	}
	for i := range dated {
		p := &dated[i]
		if p.Date == nil {
			continue
		}
		items = append(items, dto.AgendaItem{
			Period:   dto.NewPeriodResponse(p, ""),
			StartsAt: slotgrid.At(*p.Date, p.StartTime).Format(time.RFC3339),
			EndsAt:   slotgrid.At(*p.Date, p.EndTime).Format(time.RFC3339),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartsAt < items[j].StartsAt
	})

	return &dto.AgendaResponse{
		TeacherID: teacherID,
		WeekStart: weekStart.Format("2006-01-02"),
		Items:     items,
	}, nil
}

// ── helpers ──

func (s *projectionService) slotName(p *model.Period) string {
	if p.SlotNumber == nil {
		return ""
	}
	slot, err := s.grid.Resolve(*p.SlotNumber)
	if err != nil {
		return ""
	}
	return slot.Name
}

func (s *projectionService) fromCache(ctx context.Context, key string) *dto.WeekGridResponse {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.GetCache(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if payload == "" {
		return nil
	}
	var resp dto.WeekGridResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *projectionService) toCache(ctx context.Context, key string, resp *dto.WeekGridResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.SetCache(ctx, key, string(payload), weekGridCacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toSlotResponses(slots []slotgrid.Slot) []dto.SlotResponse {
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
	return out
}
