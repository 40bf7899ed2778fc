package scheduler

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/google/uuid"
)

// DefaultCapacity is the per-slot capacity callers use when the user gave none.
const DefaultCapacity = 2

// Rand is the random source used for vacancy filling. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Options configures a build. Empty Days and Shifts fall back to the default
// week and shifts and a nil Rand to a time-seeded source. Capacity has no
// fallback: anything below 1, zero included, is a *ConfigError.
type Options struct {
	Days     []models.DayLabel
	Shifts   []models.ShiftLabel
	Capacity int
	Rand     Rand
	Logger   logger.Logger
}

// Result is a completed build. Employees are in input order.
type Result struct {
	RunID     string
	Roster    *Roster
	Employees []models.EmployeeStat
	Stats     models.BuildStats
}

// Scheduler assigns employees to the slots of one week. It keeps its own
// copy of the employee pool; the caller's slice is never modified. A
// Scheduler is not safe for concurrent use because it shares its random
// source between builds.
type Scheduler struct {
	days      []models.DayLabel
	shifts    []models.ShiftLabel
	shiftSet  map[models.ShiftLabel]bool
	capacity  int
	employees []models.Employee
	rng       Rand
	log       logger.Logger
}

// NewScheduler validates the options and the employee pool. It fails with a
// *ConfigError, an *InputError for a blank name, or a *DuplicateEmployeeError.
func NewScheduler(employees []models.Employee, opts Options) (*Scheduler, error) {
	s := &Scheduler{
		days:     opts.Days,
		shifts:   opts.Shifts,
		capacity: opts.Capacity,
		rng:      opts.Rand,
		log:      opts.Logger,
	}
	if len(s.days) == 0 {
		s.days = models.DefaultWeek()
	}
	if len(s.shifts) == 0 {
		s.shifts = models.DefaultShifts()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.log == nil {
		s.log = logger.Discard()
	}

	if err := s.validateConfig(); err != nil {
		return nil, err
	}
	if err := s.loadEmployees(employees); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) validateConfig() error {
	if s.capacity < 1 {
		return &ConfigError{Field: "capacity", Reason: fmt.Sprintf("must be at least 1, got %d", s.capacity)}
	}
	seenDays := make(map[models.DayLabel]bool, len(s.days))
	for _, day := range s.days {
		if strings.TrimSpace(string(day)) == "" {
			return &ConfigError{Field: "days", Reason: "blank day label"}
		}
		if seenDays[day] {
			return &ConfigError{Field: "days", Reason: fmt.Sprintf("day %q listed twice", day)}
		}
		seenDays[day] = true
	}
	s.shiftSet = make(map[models.ShiftLabel]bool, len(s.shifts))
	for _, shift := range s.shifts {
		if strings.TrimSpace(string(shift)) == "" {
			return &ConfigError{Field: "shifts", Reason: "blank shift label"}
		}
		if s.shiftSet[shift] {
			return &ConfigError{Field: "shifts", Reason: fmt.Sprintf("shift %q listed twice", shift)}
		}
		s.shiftSet[shift] = true
	}
	return nil
}

func (s *Scheduler) loadEmployees(employees []models.Employee) error {
	firstRow := make(map[string]int, len(employees))
	s.employees = make([]models.Employee, 0, len(employees))
	for i, emp := range employees {
		row := i + 1
		if strings.TrimSpace(emp.Name) == "" {
			return &InputError{Row: row, Field: "name", Reason: "required"}
		}
		if first, ok := firstRow[emp.Name]; ok {
			return &DuplicateEmployeeError{Name: emp.Name, FirstRow: first, Row: row}
		}
		firstRow[emp.Name] = row
		emp.DaysWorked = 0
		s.employees = append(s.employees, emp)
	}
	return nil
}

// Build validates the input and runs one build.
func Build(employees []models.Employee, opts Options) (*Result, error) {
	s, err := NewScheduler(employees, opts)
	if err != nil {
		return nil, err
	}
	return s.Build(), nil
}

// build is the mutable state of a single run. Nothing in it escapes until
// Build returns.
type build struct {
	*Scheduler
	roster *Roster
	worked []int
	onDay  []map[string]bool // names working each day, by day index
	stats  models.BuildStats
}

// Build processes the week day by day. Every day runs three passes:
// preferred shifts, same-day backfill with one-day spillover, then random
// vacancy filling.
func (s *Scheduler) Build() *Result {
	b := &build{
		Scheduler: s,
		roster:    newRoster(s.days, s.shifts, s.capacity),
		worked:    make([]int, len(s.employees)),
		onDay:     make([]map[string]bool, len(s.days)),
	}
	for d := range s.days {
		b.onDay[d] = make(map[string]bool, len(s.employees))
	}

	for d, day := range s.days {
		before := b.stats
		unassigned := b.assignPreferred(d)
		b.backfill(d, unassigned)
		b.fillVacancies(d)
		s.log.Debug("day scheduled",
			"day", day,
			"preferred", b.stats.Preferred-before.Preferred,
			"backfilled", b.stats.Backfilled-before.Backfilled,
			"spilled_over", b.stats.SpilledOver-before.SpilledOver,
			"random_fills", b.stats.RandomFills-before.RandomFills,
		)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Roster:    b.roster,
		Employees: make([]models.EmployeeStat, len(s.employees)),
		Stats:     b.stats,
	}
	for i, emp := range s.employees {
		result.Employees[i] = models.EmployeeStat{Name: emp.Name, DaysWorked: b.worked[i]}
	}
	return result
}

func (b *build) hasRoom(d int, shift models.ShiftLabel) bool {
	return len(b.roster.slots[b.days[d]][shift]) < b.capacity
}

func (b *build) place(d int, shift models.ShiftLabel, emp int) {
	name := b.employees[emp].Name
	day := b.days[d]
	b.roster.slots[day][shift] = append(b.roster.slots[day][shift], name)
	b.onDay[d][name] = true
	b.worked[emp]++
}

// firstOpen returns the first shift of day d with room, in shift order.
func (b *build) firstOpen(d int) (models.ShiftLabel, bool) {
	for _, shift := range b.shifts {
		if b.hasRoom(d, shift) {
			return shift, true
		}
	}
	return "", false
}

// assignPreferred walks employees in input order and gives each the first of
// their choices that still has room. It returns the employees left over,
// including those whose record for the day has no usable choice.
// Employees with no record at all for the day, and those already placed on
// it by the previous day's spillover, are skipped.
func (b *build) assignPreferred(d int) []int {
	day := b.days[d]
	var unassigned []int
	for i, emp := range b.employees {
		pref := emp.Preferences[day]
		if pref == nil || b.onDay[d][emp.Name] {
			continue
		}
		placed := false
		for _, choice := range pref.Choices() {
			if b.shiftSet[choice] && b.hasRoom(d, choice) {
				b.place(d, choice, i)
				b.stats.Preferred++
				placed = true
				break
			}
		}
		if !placed {
			unassigned = append(unassigned, i)
		}
	}
	return unassigned
}

// backfill puts leftover employees into any open shift of the day. When the
// day is full they move to the first open shift of the next day; that move
// never cascades further.
func (b *build) backfill(d int, unassigned []int) {
	for _, emp := range unassigned {
		if shift, ok := b.firstOpen(d); ok {
			b.place(d, shift, emp)
			b.stats.Backfilled++
			continue
		}
		next := d + 1
		if next < len(b.days) && !b.onDay[next][b.employees[emp].Name] {
			if shift, ok := b.firstOpen(next); ok {
				b.place(next, shift, emp)
				b.stats.SpilledOver++
				continue
			}
		}
		b.stats.Unresolved++
	}
}

// fillVacancies tops every shift of day d up to capacity with employees
// drawn uniformly from those not yet working that day. Slots stay short when
// nobody is left.
func (b *build) fillVacancies(d int) {
	for _, shift := range b.shifts {
		for b.hasRoom(d, shift) {
			eligible := b.eligible(d)
			if len(eligible) == 0 {
				break
			}
			b.place(d, shift, eligible[b.rng.Intn(len(eligible))])
			b.stats.RandomFills++
		}
	}
}

func (b *build) eligible(d int) []int {
	var out []int
	for i, emp := range b.employees {
		if !b.onDay[d][emp.Name] {
			out = append(out, i)
		}
	}
	return out
}

// Response converts the result into its JSON form.
func (r *Result) Response() models.RosterResponse {
	underfilled := r.Roster.Underfilled()
	if underfilled == nil {
		underfilled = []models.UnderfilledSlot{}
	}
	return models.RosterResponse{
		RunID:       r.RunID,
		Days:        r.Roster.Days(),
		Shifts:      r.Roster.Shifts(),
		Capacity:    r.Roster.Capacity(),
		Grid:        r.Roster.DayRows(),
		Employees:   append([]models.EmployeeStat{}, r.Employees...),
		Underfilled: underfilled,
		Stats:       r.Stats,
	}
}
