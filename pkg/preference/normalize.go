// Package preference turns free-text shift cells such as
// "Morning (8:00 AM - 12:00 PM)" into canonical shift labels.
package preference

import (
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

// Normalizer matches cell text against shift keywords. Keywords are tried in
// order and the first one found as a substring wins, so "morning or evening"
// resolves to morning.
type Normalizer struct {
	Shifts []models.ShiftLabel
}

// New returns a Normalizer for the given shifts, or for the default
// morning/afternoon/evening set when shifts is empty.
func New(shifts []models.ShiftLabel) Normalizer {
	if len(shifts) == 0 {
		shifts = models.DefaultShifts()
	}
	return Normalizer{Shifts: shifts}
}

// Normalize returns the first shift whose name appears in the trimmed,
// case-folded cell, or models.Unrecognized.
func (n Normalizer) Normalize(cell string) models.ShiftLabel {
	value := strings.ToLower(strings.TrimSpace(cell))
	if value == "" {
		return models.Unrecognized
	}
	for _, shift := range n.Shifts {
		keyword := strings.ToLower(string(shift))
		if keyword != "" && strings.Contains(value, keyword) {
			return shift
		}
	}
	return models.Unrecognized
}

// NormalizeOrRaw is Normalize, except that an unmatched cell keeps its trimmed
// lowercase text as the label.
func (n Normalizer) NormalizeOrRaw(cell string) models.ShiftLabel {
	if shift := n.Normalize(cell); shift != models.Unrecognized {
		return shift
	}
	return models.ShiftLabel(strings.ToLower(strings.TrimSpace(cell)))
}

// NormalizeRanked normalizes each cell and drops the unrecognized ones,
// keeping the rank order of the rest.
func (n Normalizer) NormalizeRanked(cells []string) models.Ranked {
	ranked := make(models.Ranked, 0, len(cells))
	for _, cell := range cells {
		if shift := n.Normalize(cell); shift != models.Unrecognized {
			ranked = append(ranked, shift)
		}
	}
	return ranked
}

var defaultNormalizer = New(nil)

// Normalize uses the default shift keywords.
func Normalize(cell string) models.ShiftLabel {
	return defaultNormalizer.Normalize(cell)
}

// NormalizeOrRaw uses the default shift keywords.
func NormalizeOrRaw(cell string) models.ShiftLabel {
	return defaultNormalizer.NormalizeOrRaw(cell)
}

// NormalizeRanked uses the default shift keywords.
func NormalizeRanked(cells []string) models.Ranked {
	return defaultNormalizer.NormalizeRanked(cells)
}
