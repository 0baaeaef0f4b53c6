package dto

// SlotResponse is one interval of the configured slot grid.
type SlotResponse struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsBreak   bool   `json:"is_break"`
}

// WeekGridCell is one cell of the dense class grid. Period is nil for
// empty cells and break slots.
type WeekGridCell struct {
	SlotNumber int             `json:"slot_number"`
	IsBreak    bool            `json:"is_break"`
	Period     *PeriodResponse `json:"period"`
}

// WeekGridDay is one column of the grid.
type WeekGridDay struct {
	DayOfWeek int            `json:"day_of_week"` // 0 = Sunday
	Cells     []WeekGridCell `json:"cells"`
}

// WeekGridResponse is the dense 7×N grid for a class.
type WeekGridResponse struct {
	ClassID string        `json:"class_id"`
	Slots   []SlotResponse `json:"slots"`
	Days    []WeekGridDay  `json:"days"`
}

// TodayScheduleResponse is the effective schedule of a class for one
// calendar day: fixed periods for the weekday plus dated periods for
// the date, ordered by start time.
type TodayScheduleResponse struct {
	ClassID   string           `json:"class_id"`
	Date      string           `json:"date"`
	DayOfWeek int              `json:"day_of_week"`
	Periods   []PeriodResponse `json:"periods"`
}

// AgendaItem is one entry of a teacher's agenda, materialized into
// concrete datetimes for the reference week.
type AgendaItem struct {
	Period   PeriodResponse `json:"period"`
	StartsAt string         `json:"starts_at"` // RFC 3339
	EndsAt   string         `json:"ends_at"`
}

// AgendaResponse is a teacher's personal calendar for the reference week.
type AgendaResponse struct {
	TeacherID string       `json:"teacher_id"`
	WeekStart string       `json:"week_start"`
	Items     []AgendaItem `json:"items"`
}

// FreeTeachersRequest asks which of the given teachers are free in a
// weekly slot. The roster comes from the portal's catalog service; ids
// outside it are never returned.
type FreeTeachersRequest struct {
	DayOfWeek  *int   `form:"day_of_week" binding:"required,min=0,max=6"`
	SlotNumber int    `form:"slot_number" binding:"required,min=1"`
	TeacherIDs string `form:"teacher_ids" binding:"required"` // comma-separated roster
}

// FreeTeachersResponse lists the unoccupied teachers for a slot.
type FreeTeachersResponse struct {
	DayOfWeek  int      `json:"day_of_week"`
	SlotNumber int      `json:"slot_number"`
	TeacherIDs []string `json:"teacher_ids"`
}
