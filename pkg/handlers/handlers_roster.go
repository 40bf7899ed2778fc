package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/ingest"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/preference"
	"github.com/arnavshah/roster-api-go/pkg/render"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// rosterParams are the per-request overrides of the configured week
type rosterParams struct {
	Days     []models.DayLabel
	Shifts   []models.ShiftLabel
	Capacity int
	Seed     *int64
}

// params applies request overrides. A nil capacity means the configured one;
// an explicit value, zero included, is passed through for the builder to check.
func (h *Handler) params(days, shifts []string, capacity *int, seed *int64) rosterParams {
	p := rosterParams{
		Days:     h.Config.Days,
		Shifts:   h.Config.Shifts,
		Capacity: h.Config.Capacity,
		Seed:     seed,
	}
	if d := config.DayLabels(days); len(d) > 0 {
		p.Days = d
	}
	if s := config.ShiftLabels(shifts); len(s) > 0 {
		p.Shifts = s
	}
	if capacity != nil {
		p.Capacity = *capacity
	}
	return p
}

func (p rosterParams) options(h *Handler) scheduler.Options {
	opts := scheduler.Options{
		Days:     p.Days,
		Shifts:   p.Shifts,
		Capacity: p.Capacity,
		Logger:   h.Log,
	}
	if p.Seed != nil {
		opts.Rand = rand.New(rand.NewSource(*p.Seed))
	}
	return opts
}

// employeesFromInput normalizes the free-text preferences of a JSON request.
// Day keys are matched case-insensitively against the configured days; a
// ranked entry wins over a single entry for the same day. Two keys of one map
// naming the same day fail with an *InputError.
func employeesFromInput(in []models.EmployeeInput, days []models.DayLabel, n preference.Normalizer) ([]models.Employee, error) {
	canonical := make(map[string]models.DayLabel, len(days))
	for _, d := range days {
		canonical[strings.ToLower(string(d))] = d
	}

	employees := make([]models.Employee, 0, len(in))
	for i, e := range in {
		row := i + 1
		single, err := byDay(e.Preferences, canonical, row, "preferences")
		if err != nil {
			return nil, err
		}
		ranked, err := byDay(e.Ranked, canonical, row, "ranked")
		if err != nil {
			return nil, err
		}

		prefs := make(map[models.DayLabel]models.Preference)
		for d, text := range single {
			if strings.TrimSpace(text) != "" {
				prefs[d] = models.Single{Shift: n.NormalizeOrRaw(text)}
			}
		}
		for d, cells := range ranked {
			if len(cells) > 0 {
				prefs[d] = n.NormalizeRanked(cells)
			}
		}
		employees = append(employees, models.Employee{Name: strings.TrimSpace(e.Name), Preferences: prefs})
	}
	return employees, nil
}

// byDay rekeys a per-day map onto the configured days. Keys naming no
// configured day are dropped.
func byDay[V any](m map[string]V, canonical map[string]models.DayLabel, row int, field string) (map[models.DayLabel]V, error) {
	out := make(map[models.DayLabel]V, len(m))
	keys := make(map[models.DayLabel]string, len(m))
	for key, v := range m {
		d, ok := canonical[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		if prev, dup := keys[d]; dup {
			a, b := min(prev, key), max(prev, key)
			return nil, &scheduler.InputError{
				Row:    row,
				Field:  field,
				Reason: fmt.Sprintf("day %s given twice (%q and %q)", d, a, b),
			}
		}
		keys[d] = key
		out[d] = v
	}
	return out, nil
}

// writeBuildError maps scheduling errors to HTTP statuses
func (h *Handler) writeBuildError(c *gin.Context, err error) {
	var (
		inputErr *scheduler.InputError
		dupErr   *scheduler.DuplicateEmployeeError
		cfgErr   *scheduler.ConfigError
	)
	switch {
	case errors.As(err, &dupErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &inputErr), errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Log.Error("roster build failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build roster"})
	}
}

// build runs the scheduler, publishes the result for the caller and records usage
func (h *Handler) build(c *gin.Context, employees []models.Employee, p rosterParams) (*scheduler.Result, error) {
	res, err := scheduler.Build(employees, p.options(h))
	if err != nil {
		return nil, err
	}

	owner := c.GetString("userID")
	h.Store.Publish(owner, res)
	h.RecordUsage(c, database.Usage{
		Employees:   len(res.Employees),
		Slots:       len(p.Days) * len(p.Shifts),
		Underfilled: len(res.Roster.Underfilled()),
	})
	h.Log.Info("roster built",
		"run_id", res.RunID,
		"owner", owner,
		"employees", len(res.Employees),
		"random_fills", res.Stats.RandomFills,
		"unresolved", res.Stats.Unresolved,
	)
	return res, nil
}

// RosterJSON handles the JSON-based roster request
func (h *Handler) RosterJSON(c *gin.Context) {
	var req models.RosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := h.params(req.Days, req.Shifts, req.Capacity, req.Seed)
	employees, err := employeesFromInput(req.Employees, p.Days, preference.New(p.Shifts))
	if err != nil {
		h.writeBuildError(c, err)
		return
	}

	res, err := h.build(c, employees, p)
	if err != nil {
		h.writeBuildError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Response())
}

// RosterFile handles CSV or XLSX uploads. The form may carry format, shape,
// capacity, seed, days and shifts.
func (h *Handler) RosterFile(c *gin.Context) {
	file, err := c.FormFile("employees_file")
	if err != nil || file == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employees_file is required"})
		return
	}

	format := render.FormatJSON
	if v := c.PostForm("format"); v != "" {
		if format, err = render.ParseFormat(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	shape, err := ingest.ParseShape(c.PostForm("shape"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var capacity *int
	if v := c.PostForm("capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "capacity must be an integer"})
			return
		}
		capacity = &n
	}
	var seed *int64
	if v := c.PostForm("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
			return
		}
		seed = &n
	}
	p := h.params(config.SplitList(c.PostForm("days")), config.SplitList(c.PostForm("shifts")), capacity, seed)

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open employees file"})
		return
	}
	defer f.Close()

	employees, err := ingest.Read(file.Filename, f, ingest.Options{
		Days:       p.Days,
		Normalizer: preference.New(p.Shifts),
		Shape:      shape,
	})
	if err != nil {
		var inputErr *scheduler.InputError
		var dupErr *scheduler.DuplicateEmployeeError
		if errors.As(err, &inputErr) || errors.As(err, &dupErr) {
			h.writeBuildError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.build(c, employees, p)
	if err != nil {
		h.writeBuildError(c, err)
		return
	}
	h.respond(c, format, res)
}

func (h *Handler) respond(c *gin.Context, format render.Format, res *scheduler.Result) {
	if format == render.FormatJSON {
		c.JSON(http.StatusOK, res.Response())
		return
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, format, res); err != nil {
		h.Log.Error("render failed", "format", format, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render roster"})
		return
	}
	if format == render.FormatPDF {
		c.Header("Content-Disposition", `attachment; filename="roster.pdf"`)
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// LatestRoster returns the caller's most recent roster
func (h *Handler) LatestRoster(c *gin.Context) {
	h.latest(c, render.FormatJSON)
}

// LatestRosterPDF returns the caller's most recent roster as a PDF
func (h *Handler) LatestRosterPDF(c *gin.Context) {
	h.latest(c, render.FormatPDF)
}

func (h *Handler) latest(c *gin.Context, format render.Format) {
	res, ok := h.Store.Latest(c.GetString("userID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No roster has been built yet"})
		return
	}
	h.respond(c, format, res)
}

// RecordUsage records API usage for the calling key. Only successful builds
// are recorded; the daily limit counts these.
func (h *Handler) RecordUsage(c *gin.Context, u database.Usage) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)
	if err := database.RecordUsage(h.DB, apiKey.ID, usageDate(), u); err != nil {
		h.Log.Warn("could not record usage", "key_id", apiKey.ID, "err", err)
	}
}
