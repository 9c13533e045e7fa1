package description

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedVersion       = errors.New("unsupported description version")
	ErrNoOccurrenceTable        = errors.New("no occurrence table found")
	ErrMultipleOccurrenceTables = errors.New("more than one occurrence table found")
	ErrNoOccurrences            = errors.New("no occurrence found")
	ErrMalformedRow             = errors.New("malformed occurrence row")
	ErrNoStacktraceBlock        = errors.New("no stacktrace block found")
	ErrInvalidStacktraceBlock   = errors.New("invalid stacktrace block")

	// Encoding errors.
	ErrInvalidStacktrace = errors.New("stacktrace contains a block delimiter")
	ErrEmptyReportID     = errors.New("occurrence without report id")
)

// ParseError describes why a description could not be decoded.
type ParseError struct {
	// Line is the 1-based line of the offending text, 0 when the error is not tied to a line.
	Line   int
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "description: " + e.Err.Error()
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(err error, line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Detail: fmt.Sprintf(format, args...), Err: err}
}
