package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"schoolportal/backend/internal/repository"
)

func setupTestProjectionService(t *testing.T) (ProjectionService, PeriodService) {
	t.Helper()
	periodRepo := newMockPeriodRepo()
	repo := &repository.Repository{Period: periodRepo}
	grid := testGrid(t)
	logger := zap.NewNop()
	return NewProjectionService(repo, grid, nil, logger),
		NewPeriodService(repo, grid, nil, logger)
}

// ── WeekGridForClass ──

func TestProjectionService_WeekGrid_Dense(t *testing.T) {
	projSvc, periodSvc := setupTestProjectionService(t)
	ctx := context.Background()

	created, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-01", 1, 2))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	grid, err := projSvc.WeekGridForClass(ctx, "class-7a")
	if err != nil {
		t.Fatalf("WeekGridForClass should succeed: %v", err)
	}

	if len(grid.Days) != 7 {
		t.Fatalf("expected 7 day columns, got %d", len(grid.Days))
	}
	for _, day := range grid.Days {
		if len(day.Cells) != 8 {
			t.Fatalf("day %d: expected 8 cells, got %d", day.DayOfWeek, len(day.Cells))
		}
	}

	var filled, breaks int
	for _, day := range grid.Days {
		for _, c := range day.Cells {
			if c.Period != nil {
				filled++
				if c.Period.ID != created.ID {
					t.Errorf("expected period %s in the grid, got %s", created.ID, c.Period.ID)
				}
				if day.DayOfWeek != 1 || c.SlotNumber != 2 {
					t.Errorf("period placed at day %d slot %d, expected day 1 slot 2", day.DayOfWeek, c.SlotNumber)
				}
			}
			if c.IsBreak {
				breaks++
			}
		}
	}
	if filled != 1 {
		t.Errorf("expected exactly 1 occupied cell, got %d", filled)
	}
	if breaks != 7 {
		t.Errorf("expected the break slot flagged on all 7 days, got %d", breaks)
	}
}

func TestProjectionService_WeekGrid_EmptyClass(t *testing.T) {
	projSvc, _ := setupTestProjectionService(t)

	grid, err := projSvc.WeekGridForClass(context.Background(), "class-empty")
	if err != nil {
		t.Fatalf("WeekGridForClass should succeed for an empty class: %v", err)
	}
	for _, day := range grid.Days {
		for _, c := range day.Cells {
			if c.Period != nil {
				t.Fatalf("expected an all-empty grid, found period at day %d slot %d", day.DayOfWeek, c.SlotNumber)
			}
		}
	}
}

// ── TodayScheduleForClass ──

func TestProjectionService_TodaySchedule_MergesFixedAndDated(t *testing.T) {
	projSvc, periodSvc := setupTestProjectionService(t)
	ctx := context.Background()

	// Monday fixed periods plus a dated one on a specific Monday.
	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-01", 1, 3)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-02", 1, 1)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if _, err := periodSvc.Create(ctx, datedSpec("class-7a", "teacher-03", "2026-01-05", "08:00", "08:45")); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	// Tuesday period; must not appear.
	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-04", 2, 1)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	monday := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	schedule, err := projSvc.TodayScheduleForClass(ctx, "class-7a", monday)
	if err != nil {
		t.Fatalf("TodayScheduleForClass should succeed: %v", err)
	}

	if schedule.Date != "2026-01-05" || schedule.DayOfWeek != 1 {
		t.Errorf("expected date 2026-01-05 day 1, got %s day %d", schedule.Date, schedule.DayOfWeek)
	}
	if len(schedule.Periods) != 3 {
		t.Fatalf("expected 3 periods today, got %d", len(schedule.Periods))
	}
	// Ordered by start time: 07:00 fixed, 08:00 dated, 09:00 fixed.
	wantStarts := []string{"07:00", "08:00", "09:00"}
	for i, want := range wantStarts {
		if schedule.Periods[i].StartTime != want {
			t.Errorf("period %d: expected start %s, got %s", i, want, schedule.Periods[i].StartTime)
		}
	}
	if schedule.Periods[1].Kind != "dated" {
		t.Errorf("expected the 08:00 entry to be the dated period, got kind %s", schedule.Periods[1].Kind)
	}
}

func TestProjectionService_TodaySchedule_OtherDateExcludesDated(t *testing.T) {
	projSvc, periodSvc := setupTestProjectionService(t)
	ctx := context.Background()

	if _, err := periodSvc.Create(ctx, datedSpec("class-7a", "teacher-01", "2026-01-05", "08:00", "08:45")); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	// Monday a week later: the dated period is not on this date.
	otherMonday := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)
	schedule, err := projSvc.TodayScheduleForClass(ctx, "class-7a", otherMonday)
	if err != nil {
		t.Fatalf("TodayScheduleForClass should succeed: %v", err)
	}
	if len(schedule.Periods) != 0 {
		t.Errorf("expected no periods on 2026-01-12, got %d", len(schedule.Periods))
	}
}

// ── TeacherAgenda ──

func TestProjectionService_TeacherAgenda_Materializes(t *testing.T) {
	projSvc, periodSvc := setupTestProjectionService(t)
	ctx := context.Background()

	// Fixed Monday slot 2 and a dated Wednesday engagement in the same week.
	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-01", 1, 2)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if _, err := periodSvc.Create(ctx, datedSpec("class-7b", "teacher-01", "2026-01-07", "10:00", "11:00")); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	// Another teacher; must not appear.
	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-02", 1, 3)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	// Thursday 2026-01-08; the reference week starts Sunday 2026-01-04.
	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	agenda, err := projSvc.TeacherAgenda(ctx, "teacher-01", now)
	if err != nil {
		t.Fatalf("TeacherAgenda should succeed: %v", err)
	}

	if agenda.WeekStart != "2026-01-04" {
		t.Errorf("expected week start 2026-01-04, got %s", agenda.WeekStart)
	}
	if len(agenda.Items) != 2 {
		t.Fatalf("expected 2 agenda items, got %d", len(agenda.Items))
	}

	// The fixed Monday period materializes to 2026-01-05 08:00 and sorts
	// before the Wednesday engagement.
	first := agenda.Items[0]
	if first.Period.Kind != "fixed" {
		t.Errorf("expected the fixed period first, got kind %s", first.Period.Kind)
	}
	wantStart := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if first.StartsAt != wantStart {
		t.Errorf("expected starts_at %s, got %s", wantStart, first.StartsAt)
	}

	second := agenda.Items[1]
	if second.Period.Kind != "dated" {
		t.Errorf("expected the dated period second, got kind %s", second.Period.Kind)
	}
}

func TestProjectionService_TeacherAgenda_ExcludesOtherWeeks(t *testing.T) {
	projSvc, periodSvc := setupTestProjectionService(t)
	ctx := context.Background()

	// Dated period two weeks out.
	if _, err := periodSvc.Create(ctx, datedSpec("class-7a", "teacher-01", "2026-01-21", "10:00", "11:00")); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	agenda, err := projSvc.TeacherAgenda(ctx, "teacher-01", now)
	if err != nil {
		t.Fatalf("TeacherAgenda should succeed: %v", err)
	}
	if len(agenda.Items) != 0 {
		t.Errorf("expected an empty agenda, got %d items", len(agenda.Items))
	}
}
