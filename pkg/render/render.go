// Package render writes finished rosters as a terminal table, CSV, JSON or
// a paginated PDF. Renderers only read the roster.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	json "github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts table, csv, json and pdf, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatCSV, FormatJSON, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// ContentType is the MIME type of a rendered format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders res in the given format.
func Write(w io.Writer, f Format, res *scheduler.Result) error {
	switch f {
	case FormatTable:
		return Table(w, res.Roster)
	case FormatCSV:
		return CSV(w, res.Roster)
	case FormatJSON:
		return JSON(w, res)
	case FormatPDF:
		return PDF(w, res.Roster, PDFOptions{})
	}
	return fmt.Errorf("unknown output format %q", f)
}

var titleCaser = cases.Title(language.English)

// Headers returns "Day" followed by the title-cased shift names.
func Headers(r *scheduler.Roster) []string {
	headers := []string{"Day"}
	for _, shift := range r.Shifts() {
		headers = append(headers, ShiftTitle(shift))
	}
	return headers
}

func ShiftTitle(shift models.ShiftLabel) string {
	return titleCaser.String(string(shift))
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table writes the roster as a bordered grid, one row per day.
func Table(w io.Writer, r *scheduler.Roster) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers(Headers(r)...).
		Rows(r.Grid()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// CSV writes the header row and one row per day.
func CSV(w io.Writer, r *scheduler.Roster) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Headers(r)); err != nil {
		return err
	}
	if err := writer.WriteAll(r.Grid()); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// JSON writes the roster response document.
func JSON(w io.Writer, res *scheduler.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Response())
}
