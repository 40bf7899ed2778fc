package scheduler

import "fmt"

// InputError reports a malformed or missing required field in an employee
// record. Row is the 1-based data row, or 0 when unknown.
type InputError struct {
	Row    int
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// DuplicateEmployeeError reports two records sharing a name.
type DuplicateEmployeeError struct {
	Name     string
	FirstRow int
	Row      int
}

func (e *DuplicateEmployeeError) Error() string {
	return fmt.Sprintf("duplicate employee %q in rows %d and %d", e.Name, e.FirstRow, e.Row)
}

// ConfigError reports an unusable week, shift list or capacity.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
