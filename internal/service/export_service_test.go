package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"schoolportal/backend/internal/repository"
)

func setupTestExportService(t *testing.T, weeksAhead int) (ExportService, PeriodService) {
	t.Helper()
	periodRepo := newMockPeriodRepo()
	repo := &repository.Repository{Period: periodRepo}
	grid := testGrid(t)
	logger := zap.NewNop()
	return NewExportService(repo, grid, weeksAhead, logger),
		NewPeriodService(repo, grid, nil, logger)
}

// ── ClassTimetableXLSX ──

func TestExportService_ClassTimetableXLSX_NoPeriods(t *testing.T) {
	svc, _ := setupTestExportService(t, 4)

	_, _, err := svc.ClassTimetableXLSX(context.Background(), "class-empty")
	if !errors.Is(err, ErrExportNoPeriods) {
		t.Errorf("expected ErrExportNoPeriods, got: %v", err)
	}
}

func TestExportService_ClassTimetableXLSX_Success(t *testing.T) {
	svc, periodSvc := setupTestExportService(t, 4)
	ctx := context.Background()

	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-01", 1, 2)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-02", 3, 5)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	buf, filename, err := svc.ClassTimetableXLSX(ctx, "class-7a")
	if err != nil {
		t.Fatalf("ClassTimetableXLSX should succeed: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Fatal("exported buffer must not be empty")
	}
	if filename != "timetable_class-7a.xlsx" {
		t.Errorf("unexpected filename %q", filename)
	}
	// An .xlsx file is a zip archive and starts with PK.
	header := buf.Bytes()[:2]
	if header[0] != 0x50 || header[1] != 0x4B {
		t.Error("output is not a valid xlsx file (missing PK header)")
	}
}

// ── TeacherAgendaICS ──

func TestExportService_TeacherAgendaICS_RecurringFixed(t *testing.T) {
	svc, periodSvc := setupTestExportService(t, 3)
	ctx := context.Background()

	if _, err := periodSvc.Create(ctx, fixedSpec("class-7a", "teacher-01", 1, 2)); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	payload, filename, err := svc.TeacherAgendaICS(ctx, "teacher-01", now)
	if err != nil {
		t.Fatalf("TeacherAgendaICS should succeed: %v", err)
	}
	if filename != "agenda_teacher-01.ics" {
		t.Errorf("unexpected filename %q", filename)
	}

	doc := string(payload)
	if !strings.Contains(doc, "BEGIN:VCALENDAR") || !strings.Contains(doc, "END:VCALENDAR") {
		t.Fatal("output is not an iCalendar document")
	}
	// One fixed period over 3 weeks yields 3 events.
	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 3 {
		t.Errorf("expected 3 events for a recurring period over 3 weeks, got %d", got)
	}
	if !strings.Contains(doc, "subj-math (class class-7a)") {
		t.Error("event summary should name the subject and class")
	}
}

func TestExportService_TeacherAgendaICS_IncludesDatedWithinHorizon(t *testing.T) {
	svc, periodSvc := setupTestExportService(t, 2)
	ctx := context.Background()

	// Within the 2-week horizon starting Sunday 2026-01-04.
	if _, err := periodSvc.Create(ctx, datedSpec("class-7a", "teacher-01", "2026-01-14", "10:00", "11:00")); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	// Beyond the horizon; must not appear.
	if _, err := periodSvc.Create(ctx, datedSpec("class-7a", "teacher-01", "2026-02-11", "10:00", "11:00")); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	payload, _, err := svc.TeacherAgendaICS(ctx, "teacher-01", now)
	if err != nil {
		t.Fatalf("TeacherAgendaICS should succeed: %v", err)
	}

	doc := string(payload)
	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("expected 1 event within the horizon, got %d", got)
	}
}

func TestExportService_TeacherAgendaICS_EmptyAgenda(t *testing.T) {
	svc, _ := setupTestExportService(t, 4)

	now := time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
	payload, _, err := svc.TeacherAgendaICS(context.Background(), "teacher-unknown", now)
	if err != nil {
		t.Fatalf("an empty agenda should still serialize: %v", err)
	}
	if !strings.Contains(string(payload), "BEGIN:VCALENDAR") {
		t.Error("output should be a valid, empty calendar")
	}
}
