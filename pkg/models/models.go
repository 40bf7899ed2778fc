package models

// DayLabel names a day of the scheduling week. Order comes from the week
// slice handed to the builder, not from the label itself.
type DayLabel string

// ShiftLabel names one of the daily shifts.
type ShiftLabel string

const (
	Monday    DayLabel = "Monday"
	Tuesday   DayLabel = "Tuesday"
	Wednesday DayLabel = "Wednesday"
	Thursday  DayLabel = "Thursday"
	Friday    DayLabel = "Friday"
	Saturday  DayLabel = "Saturday"
	Sunday    DayLabel = "Sunday"
)

const (
	Morning   ShiftLabel = "morning"
	Afternoon ShiftLabel = "afternoon"
	Evening   ShiftLabel = "evening"

	// Unrecognized is returned by the normalizer when no shift keyword matches.
	Unrecognized ShiftLabel = ""
)

// DefaultWeek returns Monday..Sunday.
func DefaultWeek() []DayLabel {
	return []DayLabel{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// DefaultShifts returns morning, afternoon, evening.
func DefaultShifts() []ShiftLabel {
	return []ShiftLabel{Morning, Afternoon, Evening}
}

// Preference is an employee's wish for one day. Choices are ordered best
// first; the builder walks them uniformly for both variants.
type Preference interface {
	Choices() []ShiftLabel
}

// Single is a one-shift preference. Shift may hold a raw label that is not a
// configured shift, in which case it never matches a slot.
type Single struct {
	Shift ShiftLabel
}

func (s Single) Choices() []ShiftLabel {
	if s.Shift == Unrecognized {
		return nil
	}
	return []ShiftLabel{s.Shift}
}

// Ranked is an ordered list of acceptable shifts, best first.
type Ranked []ShiftLabel

func (r Ranked) Choices() []ShiftLabel {
	return r
}

// Employee is one row of preference input. DaysWorked is owned by the
// builder and ignored on input.
type Employee struct {
	Name        string
	Preferences map[DayLabel]Preference
	DaysWorked  int
}

// EmployeeInput is the JSON shape of an employee in a roster request
type EmployeeInput struct {
	Name        string              `json:"name"`
	Preferences map[string]string   `json:"preferences,omitempty"`
	Ranked      map[string][]string `json:"ranked,omitempty"`
}

// RosterRequest is the data structure for the roster endpoint
type RosterRequest struct {
	Employees []EmployeeInput `json:"employees"`
	Days      []string        `json:"days,omitempty"`
	Shifts    []string        `json:"shifts,omitempty"`
	Capacity  *int            `json:"capacity,omitempty"`
	Seed      *int64          `json:"seed,omitempty"`
}

// DayRow is one day of a roster response
type DayRow struct {
	Day   DayLabel                `json:"day"`
	Slots map[ShiftLabel][]string `json:"slots"`
}

// EmployeeStat reports how many days an employee ended up working
type EmployeeStat struct {
	Name       string `json:"name"`
	DaysWorked int    `json:"days_worked"`
}

// UnderfilledSlot represents a slot left below capacity
type UnderfilledSlot struct {
	Day      DayLabel   `json:"day"`
	Shift    ShiftLabel `json:"shift"`
	Assigned int        `json:"assigned"`
	Capacity int        `json:"capacity"`
}

// BuildStats counts what each pass of the builder did
type BuildStats struct {
	Preferred   int `json:"preferred"`
	Backfilled  int `json:"backfilled"`
	SpilledOver int `json:"spilled_over"`
	RandomFills int `json:"random_fills"`
	Unresolved  int `json:"unresolved"`
}

// RosterResponse is the data structure for the roster result
type RosterResponse struct {
	RunID       string            `json:"run_id"`
	Days        []DayLabel        `json:"days"`
	Shifts      []ShiftLabel      `json:"shifts"`
	Capacity    int               `json:"capacity"`
	Grid        []DayRow          `json:"grid"`
	Employees   []EmployeeStat    `json:"employees"`
	Underfilled []UnderfilledSlot `json:"underfilled"`
	Stats       BuildStats        `json:"stats"`
}
