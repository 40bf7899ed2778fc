package main

import (
	"fmt"

	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/preference"
	"github.com/spf13/cobra"
)

var normalizeShifts string

var normalizeCmd = &cobra.Command{
	Use:   "normalize <text>...",
	Short: "Show which shift a free-text preference maps to",
	Long: `Normalize prints the shift each argument resolves to, or "-" when no shift
keyword matches.

Examples:
  roster normalize "Morning (8:00 AM - 12:00 PM)" "late evening" "night"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeShifts, "shifts", "", "comma-separated shifts (default ROSTER_SHIFTS)")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	shifts := cfg.Shifts
	if s := config.ShiftLabels(config.SplitList(normalizeShifts)); len(s) > 0 {
		shifts = s
	}
	n := preference.New(shifts)

	for _, text := range args {
		shift := n.Normalize(text)
		label := "-"
		if shift != models.Unrecognized {
			label = boldStyle.Render(string(shift))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%q\t%s\n", text, label)
	}
	return nil
}
