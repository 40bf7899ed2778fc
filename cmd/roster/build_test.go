package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommand(t *testing.T) {
	t.Run("Should write the roster as CSV", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "staff.csv")
		output := filepath.Join(dir, "roster.csv")
		require.NoError(t, os.WriteFile(input, []byte("name,Monday\nAnn,morning\nBen,afternoon\nCat,evening\n"), 0o644))

		var stderr strings.Builder
		rootCmd.SetErr(&stderr)
		rootCmd.SetArgs([]string{
			"build", "--input", input, "--output", output,
			"--format", "csv", "--days", "Monday", "--capacity", "1", "--seed", "1",
			"--log-level", "error",
		})
		require.NoError(t, rootCmd.Execute())

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, "Day,Morning,Afternoon,Evening\nMonday,Ann,Ben,Cat\n", string(data))
		assert.Contains(t, stderr.String(), "3 preferred")
		assert.Contains(t, stderr.String(), "Every slot is full")
	})
	t.Run("Should refuse an explicit zero capacity", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "staff.csv")
		output := filepath.Join(dir, "roster.csv")
		require.NoError(t, os.WriteFile(input, []byte("name,Monday\nAnn,morning\n"), 0o644))

		rootCmd.SetErr(&strings.Builder{})
		rootCmd.SetArgs([]string{
			"build", "--input", input, "--output", output,
			"--format", "csv", "--days", "Monday", "--capacity", "0",
			"--log-level", "error",
		})
		err := rootCmd.Execute()

		var cfgErr *scheduler.ConfigError
		require.True(t, errors.As(err, &cfgErr), "%v", err)
		assert.Equal(t, "capacity", cfgErr.Field)
		assert.NoFileExists(t, output)
	})
}
