package scheduler

import (
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

// Roster is a finished weekly assignment grid. It is read-only once Build
// returns it; accessors hand out copies.
type Roster struct {
	days     []models.DayLabel
	shifts   []models.ShiftLabel
	capacity int
	slots    map[models.DayLabel]map[models.ShiftLabel][]string
}

func newRoster(days []models.DayLabel, shifts []models.ShiftLabel, capacity int) *Roster {
	r := &Roster{
		days:     append([]models.DayLabel(nil), days...),
		shifts:   append([]models.ShiftLabel(nil), shifts...),
		capacity: capacity,
		slots:    make(map[models.DayLabel]map[models.ShiftLabel][]string, len(days)),
	}
	for _, day := range days {
		r.slots[day] = make(map[models.ShiftLabel][]string, len(shifts))
		for _, shift := range shifts {
			r.slots[day][shift] = []string{}
		}
	}
	return r
}

func (r *Roster) Days() []models.DayLabel {
	return append([]models.DayLabel(nil), r.days...)
}

func (r *Roster) Shifts() []models.ShiftLabel {
	return append([]models.ShiftLabel(nil), r.shifts...)
}

func (r *Roster) Capacity() int {
	return r.capacity
}

// Slot returns the names assigned to one (day, shift) in assignment order.
// ok is false when the day or shift is not part of the roster.
func (r *Roster) Slot(day models.DayLabel, shift models.ShiftLabel) (names []string, ok bool) {
	byShift, ok := r.slots[day]
	if !ok {
		return nil, false
	}
	assigned, ok := byShift[shift]
	if !ok {
		return nil, false
	}
	return append([]string{}, assigned...), true
}

// Row is one day of the roster with a cell per shift, in shift order.
type Row struct {
	Day   models.DayLabel
	Cells [][]string
}

// Joined returns the cells as comma-joined strings.
func (row Row) Joined() []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = strings.Join(cell, ", ")
	}
	return out
}

// Rows returns every day in week order.
func (r *Roster) Rows() []Row {
	rows := make([]Row, 0, len(r.days))
	for _, day := range r.days {
		row := Row{Day: day, Cells: make([][]string, len(r.shifts))}
		for i, shift := range r.shifts {
			row.Cells[i] = append([]string{}, r.slots[day][shift]...)
		}
		rows = append(rows, row)
	}
	return rows
}

// Grid returns the printable grid: one line per day, the day name first and
// then the comma-joined names of each shift.
func (r *Roster) Grid() [][]string {
	rows := r.Rows()
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = append([]string{string(row.Day)}, row.Joined()...)
	}
	return grid
}

// Pages splits the rows into chunks of at most perPage days for paginated
// export. perPage < 1 puts everything on one page.
func (r *Roster) Pages(perPage int) [][]Row {
	rows := r.Rows()
	if perPage < 1 || perPage >= len(rows) {
		return [][]Row{rows}
	}
	var pages [][]Row
	for start := 0; start < len(rows); start += perPage {
		end := min(start+perPage, len(rows))
		pages = append(pages, rows[start:end])
	}
	return pages
}

// Underfilled lists slots that ended below capacity, in grid order.
func (r *Roster) Underfilled() []models.UnderfilledSlot {
	var out []models.UnderfilledSlot
	for _, day := range r.days {
		for _, shift := range r.shifts {
			if n := len(r.slots[day][shift]); n < r.capacity {
				out = append(out, models.UnderfilledSlot{
					Day:      day,
					Shift:    shift,
					Assigned: n,
					Capacity: r.capacity,
				})
			}
		}
	}
	return out
}

// DayRows converts the roster into its JSON form.
func (r *Roster) DayRows() []models.DayRow {
	out := make([]models.DayRow, 0, len(r.days))
	for _, day := range r.days {
		slots := make(map[models.ShiftLabel][]string, len(r.shifts))
		for _, shift := range r.shifts {
			slots[shift] = append([]string{}, r.slots[day][shift]...)
		}
		out = append(out, models.DayRow{Day: day, Slots: slots})
	}
	return out
}
