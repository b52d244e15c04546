package engine

import "fmt"

// Error kinds reported by the engine. Diagnostics severity classification
// depends on these exact strings.
const (
	KindSyntax       = "syntax"
	KindUndefinedRef = "undefined-reference"
	KindCircular     = "circular-dependency"
	KindRedefinition = "redefinition"
	KindChemistry    = "chemistry"
	KindError        = "error"
	KindWarning      = "warning"
	KindInfo         = "info"
	KindHint         = "hint"
)

// Error is a positioned engine failure. Line and Column are 1-based;
// EndColumn is 0 when the error covers a single column.
type Error struct {
	Kind      string
	Message   string
	Line      int
	Column    int
	EndColumn int
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

func syntaxErr(line, col int, format string, args ...any) *Error {
	return &Error{
		Kind:    KindSyntax,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
	}
}

// Issue is a validation finding from the full-document pass. Unlike Error
// it is data, not control flow: the check pass collects issues instead of
// aborting.
type Issue struct {
	Kind      string
	Message   string
	Line      int
	Column    int
	EndColumn int
}

func issueOf(err error) Issue {
	if e, ok := err.(*Error); ok {
		return Issue{
			Kind:      e.Kind,
			Message:   e.Message,
			Line:      e.Line,
			Column:    e.Column,
			EndColumn: e.EndColumn,
		}
	}
	return Issue{Kind: KindError, Message: err.Error(), Line: 1, Column: 1}
}
