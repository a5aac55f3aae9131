package game

import (
	"fmt"
	"strings"
)

// ErrorKind classifies compile errors.
type ErrorKind uint8

const (
	// ErrUnrecognizedToken is a lexer failure: a byte sequence matched no token rule.
	ErrUnrecognizedToken ErrorKind = iota
	// ErrUnexpectedToken is a parser failure: the stream held a different token
	// than the grammar required.
	ErrUnexpectedToken
	// ErrUnexpectedEOF is a parser failure: the stream ended while a token was required.
	ErrUnexpectedEOF
	// ErrUnknownFunction is a codegen failure: a pipeline stage or shader-side
	// call name resolved to nothing.
	ErrUnknownFunction
	// ErrMessage is the catch-all for everything else (import resolution,
	// degenerate inputs).
	ErrMessage
)

// SourceError represents a fatal compile error with optional source location.
type SourceError struct {
	Kind    ErrorKind
	Message string
	Span    Span   // zero Span means "no location"
	Source  string // original source text, for context display
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Span == (Span{}) {
		return e.Message
	}
	return fmt.Sprintf("%s (at byte %d..%d)", e.Message, e.Span.Start, e.Span.End)
}

// WithSource attaches the original source text so FormatWithContext can
// quote the offending line.
func (e *SourceError) WithSource(source string) *SourceError {
	e.Source = source
	return e
}

// FormatWithContext returns the error message with source context.
// Shows the problematic line with a caret pointing to the error location.
func (e *SourceError) FormatWithContext() string {
	if e.Source == "" || e.Span == (Span{}) {
		return "error: " + e.Message
	}

	line, col := lineColumn(e.Source, e.Span.Start)
	lines := strings.Split(e.Source, "\n")
	if line < 1 || line > len(lines) {
		return "error: " + e.Message
	}
	text := lines[line-1]
	if col > len(text)+1 {
		col = len(text) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", line, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", line, text)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// lineColumn converts a byte offset to a 1-based line and column.
func lineColumn(source string, offset int) (line, col int) {
	if offset > len(source) {
		offset = len(source)
	}
	line, col = 1, 1
	for _, r := range source[:offset] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// NewUnrecognizedToken creates a lexer error for an unmatched byte sequence.
func NewUnrecognizedToken(fragment string, span Span) *SourceError {
	return &SourceError{
		Kind:    ErrUnrecognizedToken,
		Message: fmt.Sprintf("unrecognized token '%s'", fragment),
		Span:    span,
	}
}

// NewUnexpectedToken creates a parser error for a token mismatch.
func NewUnexpectedToken(expected string, got Token) *SourceError {
	return &SourceError{
		Kind:    ErrUnexpectedToken,
		Message: fmt.Sprintf("expected %s, got %s", expected, got.Describe()),
		Span:    got.Span(),
	}
}

// NewUnexpectedEOF creates a parser error for a truncated stream.
func NewUnexpectedEOF(expected string) *SourceError {
	return &SourceError{
		Kind:    ErrUnexpectedEOF,
		Message: fmt.Sprintf("unexpected end of file, expected %s", expected),
	}
}

// NewUnknownFunction creates a codegen error for an unresolvable call name.
func NewUnknownFunction(name string) *SourceError {
	return &SourceError{
		Kind:    ErrUnknownFunction,
		Message: fmt.Sprintf("unknown function '%s'", name),
	}
}

// Errorf creates a catch-all compile error.
func Errorf(format string, args ...any) *SourceError {
	return &SourceError{
		Kind:    ErrMessage,
		Message: fmt.Sprintf(format, args...),
	}
}
