// Package ingest reads employee preference sheets. Two layouts are accepted:
// one column per day holding a single free-text shift, or up to three ranked
// columns per day such as "Monday_1", "Monday_2", "Monday_3".
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/preference"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/xuri/excelize/v2"
)

type Shape int

const (
	// ShapeAuto picks ranked when any ranked column is present.
	ShapeAuto Shape = iota
	ShapeSingle
	ShapeRanked
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeRanked:
		return "ranked"
	default:
		return "auto"
	}
}

// ParseShape maps "single", "ranked" or "" / "auto" to a Shape.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ShapeAuto, nil
	case "single":
		return ShapeSingle, nil
	case "ranked":
		return ShapeRanked, nil
	}
	return ShapeAuto, fmt.Errorf("unknown preference shape %q", s)
}

type Options struct {
	Days       []models.DayLabel
	Normalizer preference.Normalizer
	Shape      Shape
}

func (o Options) withDefaults() Options {
	if len(o.Days) == 0 {
		o.Days = models.DefaultWeek()
	}
	if len(o.Normalizer.Shifts) == 0 {
		o.Normalizer = preference.New(nil)
	}
	return o
}

// rankSuffixes lists the accepted header suffixes for first, second and
// third choice columns.
var rankSuffixes = [][]string{
	{"_1", " 1", "_first", " first", " first choice", "_first_choice"},
	{"_2", " 2", "_second", " second", " second choice", "_second_choice"},
	{"_3", " 3", "_third", " third", " third choice", "_third_choice"},
}

// Read dispatches on the file extension: .xlsx goes through ReadXLSX,
// anything else is treated as CSV.
func Read(filename string, r io.Reader, opts Options) ([]models.Employee, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ReadXLSX(r, opts)
	}
	return ReadCSV(r, opts)
}

// ReadCSV parses a CSV sheet with a header row.
func ReadCSV(r io.Reader, opts Options) ([]models.Employee, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, &scheduler.InputError{Field: "header", Reason: "file is empty"}
	}
	return FromRecords(records[0], records[1:], opts)
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader, opts Options) ([]models.Employee, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &scheduler.InputError{Field: "sheet", Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &scheduler.InputError{Field: "header", Reason: "sheet is empty"}
	}
	return FromRecords(rows[0], rows[1:], opts)
}

// FromRecords turns a header and data rows into employees in row order.
// Blank cells mean no preference for that day; text without a shift keyword
// is kept as an unusable preference so the builder backfills the employee.
func FromRecords(header []string, rows [][]string, opts Options) ([]models.Employee, error) {
	opts = opts.withDefaults()

	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	nameCol, ok := cols["name"]
	if !ok {
		return nil, &scheduler.InputError{Field: "name", Reason: "column missing"}
	}

	ranked := rankedColumns(cols, opts.Days)
	shape := opts.Shape
	if shape == ShapeAuto {
		shape = ShapeSingle
		if len(ranked) > 0 {
			shape = ShapeRanked
		}
	}

	var employees []models.Employee
	firstRow := make(map[string]int)
	for i, record := range rows {
		rowNum := i + 1
		if blank(record) {
			continue
		}
		name := strings.TrimSpace(cell(record, nameCol))
		if name == "" {
			return nil, &scheduler.InputError{Row: rowNum, Field: "name", Reason: "required"}
		}
		if first, seen := firstRow[name]; seen {
			return nil, &scheduler.DuplicateEmployeeError{Name: name, FirstRow: first, Row: rowNum}
		}
		firstRow[name] = rowNum

		prefs := make(map[models.DayLabel]models.Preference)
		for _, day := range opts.Days {
			if shape == ShapeRanked {
				if pref, ok := rankedPreference(record, ranked[day], opts.Normalizer); ok {
					prefs[day] = pref
				}
				continue
			}
			idx, ok := cols[strings.ToLower(string(day))]
			if !ok {
				continue
			}
			if text := strings.TrimSpace(cell(record, idx)); text != "" {
				prefs[day] = models.Single{Shift: opts.Normalizer.NormalizeOrRaw(text)}
			}
		}
		employees = append(employees, models.Employee{Name: name, Preferences: prefs})
	}
	return employees, nil
}

// rankedColumns finds the column index of each rank for each day, in rank
// order. Days without any ranked column are absent from the map.
func rankedColumns(cols map[string]int, days []models.DayLabel) map[models.DayLabel][]int {
	out := make(map[models.DayLabel][]int)
	for _, day := range days {
		base := strings.ToLower(string(day))
		var idxs []int
		for _, suffixes := range rankSuffixes {
			for _, suffix := range suffixes {
				if idx, ok := cols[base+suffix]; ok {
					idxs = append(idxs, idx)
					break
				}
			}
		}
		if len(idxs) > 0 {
			out[day] = idxs
		}
	}
	return out
}

func rankedPreference(record []string, idxs []int, n preference.Normalizer) (models.Preference, bool) {
	var cells []string
	for _, idx := range idxs {
		if text := strings.TrimSpace(cell(record, idx)); text != "" {
			cells = append(cells, text)
		}
	}
	if len(cells) == 0 {
		return nil, false
	}
	return n.NormalizeRanked(cells), true
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
