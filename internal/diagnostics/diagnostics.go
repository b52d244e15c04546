// Package diagnostics converts engine issues into LSP diagnostics. The
// pass is full-replace: every run rebuilds a document's diagnostics from
// scratch, which is what keeps ranges honest after edits shift lines.
package diagnostics

import (
	"alembic/internal/engine"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const sourceTag = "alembic"

// FromIssues maps engine issues 1:1 to positioned diagnostics, converting
// the engine's 1-based lines and columns to the protocol's 0-based ones.
func FromIssues(issues []engine.Issue) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(issues))
	for _, issue := range issues {
		diagnostics = append(diagnostics, fromIssue(issue))
	}
	return diagnostics
}

func fromIssue(issue engine.Issue) protocol.Diagnostic {
	line := issue.Line - 1
	if line < 0 {
		line = 0
	}
	col := issue.Column - 1
	if col < 0 {
		col = 0
	}
	// a missing end column means a single-column span
	endCol := col + 1
	if issue.EndColumn > issue.Column {
		endCol = issue.EndColumn - 1
	}

	severity := SeverityFor(issue.Kind)
	source := sourceTag
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
			End:   protocol.Position{Line: uint32(line), Character: uint32(endCol)},
		},
		Severity: &severity,
		Source:   &source,
		Message:  issue.Message,
	}
}

// Catastrophic is the degraded form for a document the engine could not
// process at all: one synthetic diagnostic anchored at the document start.
func Catastrophic(err error) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := sourceTag
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}}
}

// SeverityFor classifies an issue kind. Unrecognized kinds are errors:
// better loud than a silently hidden problem class.
func SeverityFor(kind string) protocol.DiagnosticSeverity {
	switch kind {
	case engine.KindSyntax, engine.KindUndefinedRef, engine.KindCircular,
		engine.KindRedefinition, engine.KindError:
		return protocol.DiagnosticSeverityError
	case engine.KindChemistry, engine.KindWarning:
		return protocol.DiagnosticSeverityWarning
	case engine.KindInfo:
		return protocol.DiagnosticSeverityInformation
	case engine.KindHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}
