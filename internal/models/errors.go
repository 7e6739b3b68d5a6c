package models

import (
	"fmt"
	"time"
)

// SchemaError reports a missing required column in a source. The pipeline
// aborts that source; other sources still render.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: required column %q is missing", e.Source, e.Column)
}

// DuplicateDateError reports more than one business row for the same date.
// Reconciliation aborts, the business source is authoritative per-date.
type DuplicateDateError struct {
	Date time.Time
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("business source: duplicate row for date %s", DayKey(e.Date))
}

// EmptyInputError reports a source with a header but zero data rows. The
// pipeline degrades: the source is skipped and its channel contributes
// nothing.
type EmptyInputError struct {
	Source string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("source %s: no data rows", e.Source)
}
