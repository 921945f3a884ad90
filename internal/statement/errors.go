package statement

import (
	"errors"
	"fmt"
)

// Common statement parsing errors
var (
	// ErrUnrecognizedFormat is returned when no known export signature is
	// found in the first lines of the file.
	ErrUnrecognizedFormat = errors.New("unrecognized statement format: expected a payment-processor activity export or a marketplace earnings/transaction report")

	// ErrNoDataRows is returned when a recognized file contains no usable rows.
	ErrNoDataRows = errors.New("statement contains no usable data rows")

	// ErrMissingHeader is returned when a parser cannot find its header line.
	ErrMissingHeader = errors.New("statement header line not found")
)

// ParseError wraps errors with the format and line that failed.
type ParseError struct {
	// Format is the statement format being parsed.
	Format Format

	// Line is the 1-based file line, 0 when the error is file-wide.
	Line int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("statement: %s line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("statement: %s: %v", e.Format, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}
