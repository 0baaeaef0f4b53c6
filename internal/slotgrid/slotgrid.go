package slotgrid

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownSlot is returned when a slot number is outside the configured grid.
var ErrUnknownSlot = errors.New("unknown slot number")

// Slot is one interval of the canonical daily teaching grid.
// Times are zero-padded "HH:MM" strings, which order lexically.
type Slot struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsBreak   bool   `json:"is_break"`
}

// Grid is the immutable, process-wide slot configuration. It is built
// once at startup and safe for concurrent use without locking.
type Grid struct {
	slots    []Slot
	byNumber map[int]Slot
}

// New validates the slot list and builds a Grid. Slot numbers must be
// unique and every slot must satisfy StartTime < EndTime.
func New(slots []Slot) (*Grid, error) {
	if len(slots) == 0 {
		return nil, errors.New("slot grid must not be empty")
	}

	byNumber := make(map[int]Slot, len(slots))
	ordered := make([]Slot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	for _, s := range ordered {
		if s.Number <= 0 {
			return nil, fmt.Errorf("slot %q: number must be positive, got %d", s.Name, s.Number)
		}
		if _, dup := byNumber[s.Number]; dup {
			return nil, fmt.Errorf("duplicate slot number %d", s.Number)
		}
		if !ValidClock(s.StartTime) || !ValidClock(s.EndTime) {
			return nil, fmt.Errorf("slot %d: times must be zero-padded HH:MM, got %q-%q", s.Number, s.StartTime, s.EndTime)
		}
		if s.StartTime >= s.EndTime {
			return nil, fmt.Errorf("slot %d: start %q must precede end %q", s.Number, s.StartTime, s.EndTime)
		}
		byNumber[s.Number] = s
	}

	return &Grid{slots: ordered, byNumber: byNumber}, nil
}

// Resolve returns the slot with the given number, or ErrUnknownSlot.
func (g *Grid) Resolve(number int) (Slot, error) {
	s, ok := g.byNumber[number]
	if !ok {
		return Slot{}, fmt.Errorf("%w: %d", ErrUnknownSlot, number)
	}
	return s, nil
}

// Slots returns the ordered slot list.
func (g *Grid) Slots() []Slot {
	out := make([]Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Size returns the number of configured slots.
func (g *Grid) Size() int { return len(g.slots) }

// Instantiate materializes (dayOfWeek, slotNumber) into a concrete
// datetime interval within the week starting at weekStart. Given the
// same weekStart it always yields the same interval.
func (g *Grid) Instantiate(dayOfWeek, slotNumber int, weekStart time.Time) (time.Time, time.Time, error) {
	slot, err := g.Resolve(slotNumber)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	day := DateInWeek(weekStart, dayOfWeek)
	return At(day, slot.StartTime), At(day, slot.EndTime), nil
}

// CurrentDayOfWeek returns the day of week for now, 0 = Sunday.
func CurrentDayOfWeek(now time.Time) int {
	return int(now.Weekday())
}

// WeekStart truncates now to the start of its week: Sunday 00:00 in
// now's location.
func WeekStart(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(now.Weekday()))
}

// DateInWeek returns the calendar date for dayOfWeek (0-6, 0 = Sunday)
// within the week starting at weekStart.
func DateInWeek(weekStart time.Time, dayOfWeek int) time.Time {
	return weekStart.AddDate(0, 0, dayOfWeek)
}

// At combines a calendar date with an "HH:MM" clock string. The clock
// must already be validated; malformed input yields midnight.
func At(date time.Time, clock string) time.Time {
	h, m, err := parseClock(clock)
	if err != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location())
}

// ValidClock reports whether s is a zero-padded "HH:MM" clock string.
func ValidClock(s string) bool {
	_, _, err := parseClock(s)
	return err == nil
}

func parseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	for i, c := range s {
		if i == 2 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("invalid clock %q", s)
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	return hour, minute, nil
}
