package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"schoolportal/backend/internal/model"
	"schoolportal/backend/internal/repository"
	"schoolportal/backend/internal/slotgrid"
)

// ── export business errors ──

var (
	ErrExportNoPeriods    = errors.New("class has no scheduled periods")
	ErrExportGenerateFail = errors.New("generating export file failed")
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ExportService renders timetables for download.
//
// The Excel export returns a bytes.Buffer; the handler sets the HTTP
// headers and streams it. The ICS feed materializes fixed periods a
// configurable number of weeks ahead so external calendar apps can
// subscribe to a teacher's agenda.
type ExportService interface {
	// ClassTimetableXLSX renders the class week grid as .xlsx.
	ClassTimetableXLSX(ctx context.Context, classID string) (*bytes.Buffer, string, error)
	// TeacherAgendaICS renders the teacher's agenda as an iCalendar
	// document starting from now's week.
	TeacherAgendaICS(ctx context.Context, teacherID string, now time.Time) ([]byte, string, error)
}

type exportService struct {
	repo       *repository.Repository
	grid       *slotgrid.Grid
	weeksAhead int
	logger     *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, grid *slotgrid.Grid, weeksAhead int, logger *zap.Logger) ExportService {
	if weeksAhead <= 0 {
		weeksAhead = 4
	}
	return &exportService{repo: repo, grid: grid, weeksAhead: weeksAhead, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ClassTimetableXLSX
// ════════════════════════════════════════════════════════════
//
// Layout: slots as rows (name + time range), Sunday through Saturday as
// columns, "subject / teacher" in occupied cells.

func (s *exportService) ClassTimetableXLSX(ctx context.Context, classID string) (*bytes.Buffer, string, error) {
	periods, err := s.repo.Period.ListFixedByClass(ctx, classID)
	if err != nil {
		s.logger.Error("listing class periods failed", zap.Error(err))
		return nil, "", err
	}
	if len(periods) == 0 {
		return nil, "", ErrExportNoPeriods
	}

	type gridKey struct{ day, slot int }
	cells := make(map[gridKey]string, len(periods))
	for _, p := range periods {
		if p.DayOfWeek == nil || p.SlotNumber == nil {
			continue
		}
		cells[gridKey{*p.DayOfWeek, *p.SlotNumber}] = fmt.Sprintf("%s / %s", p.SubjectID, p.TeacherID)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Timetable"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 14)
	for i := 0; i < 7; i++ {
		col, _ := excelize.ColumnNumberToName(3 + i)
		f.SetColWidth(sheet, col, col, 20)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Class %s weekly timetable", classID))
	f.MergeCell(sheet, "A1", cell(colName(8), 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	row := 2
	f.SetCellValue(sheet, cell("A", row), "Slot")
	f.SetCellValue(sheet, cell("B", row), "Time")
	for i := 0; i < 7; i++ {
		f.SetCellValue(sheet, cell(colName(2+i), row), dayNames[i])
	}

	row = 3
	for _, slot := range s.grid.Slots() {
		f.SetCellValue(sheet, cell("A", row), slot.Name)
		f.SetCellValue(sheet, cell("B", row), fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime))
		for day := 0; day < 7; day++ {
			col := colName(2 + day)
			if slot.IsBreak {
				f.SetCellValue(sheet, cell(col, row), "break")
				continue
			}
			if text, ok := cells[gridKey{day, slot.Number}]; ok {
				f.SetCellValue(sheet, cell(col, row), text)
			} else {
				f.SetCellValue(sheet, cell(col, row), "-")
			}
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("writing xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timetable_%s.xlsx", classID)
	return buf, filename, nil
}

// ════════════════════════════════════════════════════════════
// TeacherAgendaICS
// ════════════════════════════════════════════════════════════

func (s *exportService) TeacherAgendaICS(ctx context.Context, teacherID string, now time.Time) ([]byte, string, error) {
	weekStart := slotgrid.WeekStart(now)
	horizon := weekStart.AddDate(0, 0, 7*s.weeksAhead)

	fixed, err := s.repo.Period.ListFixedByTeacher(ctx, teacherID)
	if err != nil {
		return nil, "", err
	}
	dated, err := s.repo.Period.ListDatedByTeacherBetween(ctx, teacherID, weekStart, horizon)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//school-portal//scheduling//EN")

	created := now.UTC()
	for week := 0; week < s.weeksAhead; week++ {
		ws := weekStart.AddDate(0, 0, 7*week)
		for i := range fixed {
			p := &fixed[i]
			if p.DayOfWeek == nil || p.SlotNumber == nil {
				continue
			}
			start, end, err := s.grid.Instantiate(*p.DayOfWeek, *p.SlotNumber, ws)
			if err != nil {
				continue
			}
			s.addEvent(cal, p, fmt.Sprintf("%s-w%d", p.PeriodID, week), start, end, created)
		}
	}
	for i := range dated {
		p := &dated[i]
		if p.Date == nil {
			continue
		}
		start := slotgrid.At(*p.Date, p.StartTime)
		end := slotgrid.At(*p.Date, p.EndTime)
		s.addEvent(cal, p, p.PeriodID, start, end, created)
	}

	filename := fmt.Sprintf("agenda_%s.ics", teacherID)
	return []byte(cal.Serialize()), filename, nil
}

func (s *exportService) addEvent(cal *ics.Calendar, p *model.Period, uid string, start, end, created time.Time) {
	event := cal.AddEvent(uid + "@school-portal")
	event.SetCreatedTime(created)
	event.SetDtStampTime(created)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(fmt.Sprintf("%s (class %s)", p.SubjectID, p.ClassID))
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
