package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/ingest"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/arnavshah/roster-api-go/pkg/preference"
	"github.com/arnavshah/roster-api-go/pkg/render"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/spf13/cobra"
)

var (
	buildInput       string
	buildOutput      string
	buildFormat      string
	buildShape       string
	buildDays        string
	buildShifts      string
	buildCapacity    int
	buildSeed        int64
	buildTitle       string
	buildRowsPerPage int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a roster from a CSV or XLSX preference sheet",
	Long: `Build reads one row per employee with a "name" column and one column per
day (or ranked columns such as Monday_1, Monday_2, Monday_3) and prints the
weekly roster.

Examples:
  roster build --input staff.csv
  roster build --input staff.xlsx --format pdf --output week.pdf
  roster build --input staff.csv --capacity 1 --seed 42 --format csv`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildInput, "input", "i", "", "preference sheet (.csv or .xlsx)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "write to this file instead of stdout")
	buildCmd.Flags().StringVarP(&buildFormat, "format", "f", "table", "table, csv, json or pdf")
	buildCmd.Flags().StringVar(&buildShape, "shape", "auto", "preference columns: auto, single or ranked")
	buildCmd.Flags().StringVar(&buildDays, "days", "", "comma-separated days (default ROSTER_DAYS or Monday..Sunday)")
	buildCmd.Flags().StringVar(&buildShifts, "shifts", "", "comma-separated shifts (default ROSTER_SHIFTS or morning,afternoon,evening)")
	buildCmd.Flags().IntVarP(&buildCapacity, "capacity", "c", 0, "employees per shift, at least 1 (default ROSTER_CAPACITY or 2)")
	buildCmd.Flags().Int64Var(&buildSeed, "seed", 0, "seed for the random fill pass")
	buildCmd.Flags().StringVar(&buildTitle, "title", "", "PDF title")
	buildCmd.Flags().IntVar(&buildRowsPerPage, "rows-per-page", 0, "PDF day rows per page (default all on one page)")
	_ = buildCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(buildFormat)
	if err != nil {
		return err
	}
	shape, err := ingest.ParseShape(buildShape)
	if err != nil {
		return err
	}

	days := cfg.Days
	if d := config.DayLabels(config.SplitList(buildDays)); len(d) > 0 {
		days = d
	}
	shifts := cfg.Shifts
	if s := config.ShiftLabels(config.SplitList(buildShifts)); len(s) > 0 {
		shifts = s
	}
	capacity := cfg.Capacity
	if cmd.Flags().Changed("capacity") {
		capacity = buildCapacity
	}

	in, err := os.Open(buildInput)
	if err != nil {
		return err
	}
	defer in.Close()

	employees, err := ingest.Read(buildInput, in, ingest.Options{
		Days:       days,
		Normalizer: preference.New(shifts),
		Shape:      shape,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", buildInput, err)
	}

	opts := scheduler.Options{
		Days:     days,
		Shifts:   shifts,
		Capacity: capacity,
		Logger:   logger.GetDefault(),
	}
	if cmd.Flags().Changed("seed") {
		opts.Rand = rand.New(rand.NewSource(buildSeed))
	}
	res, err := scheduler.Build(employees, opts)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if buildOutput != "" {
		f, err := os.Create(buildOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if format == render.FormatPDF {
		err = render.PDF(out, res.Roster, render.PDFOptions{Title: buildTitle, RowsPerPage: buildRowsPerPage})
	} else {
		err = render.Write(out, format, res)
	}
	if err != nil {
		return err
	}

	printSummary(cmd.ErrOrStderr(), res)
	return nil
}

func printSummary(w io.Writer, res *scheduler.Result) {
	s := res.Stats
	fmt.Fprintf(w, "%s %d employees, %d preferred, %d backfilled, %d spilled over, %d random\n",
		boldStyle.Render("Roster "+res.RunID[:8]),
		len(res.Employees), s.Preferred, s.Backfilled, s.SpilledOver, s.RandomFills)

	under := res.Roster.Underfilled()
	if len(under) == 0 {
		fmt.Fprintln(w, okStyle.Render("Every slot is full"))
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d slots below capacity:", len(under))))
	for _, u := range under {
		fmt.Fprintf(w, "  %s %s: %d/%d\n", u.Day, render.ShiftTitle(u.Shift), u.Assigned, u.Capacity)
	}
}
