// Package resolve runs the per-cursor resolution pipelines. Each pipeline
// stage converts its own failure into data on the Result instead of letting
// it escape; data computed by earlier stages is never discarded by a later
// stage's failure.
package resolve

import (
	"context"
	"strings"

	"alembic/internal/engine"
	"alembic/internal/modload"
)

// Result is what the preview surface renders for one definition. A nil
// *Result means "nothing to show" (blank line, comment, or no definition),
// which is not a failure. Mass and Formula are either both set or both
// absent.
type Result struct {
	Line       int      `json:"line"`
	Name       string   `json:"name"`
	Expression string   `json:"expression,omitempty"`
	Encoded    string   `json:"encoded,omitempty"`
	Notation   string   `json:"notation,omitempty"`
	Mass       *float64 `json:"mass,omitempty"`
	Formula    string   `json:"formula,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Declarative resolves the definition on a 1-based line of a .frag
// document: locate, expand, decode, then best-effort scalar properties.
func Declarative(res *engine.Resolution, lineText string, line int) *Result {
	trimmed := strings.TrimSpace(lineText)
	if trimmed == "" || strings.HasPrefix(trimmed, engine.CommentMarker) {
		return nil
	}
	def := res.DefinitionAt(line)
	if def == nil {
		return nil
	}

	result := &Result{
		Line:       line,
		Name:       def.Name,
		Expression: engine.Render(def.Tokens),
	}

	encoded, err := engine.Resolve(res, def.Name, engine.ResolveOptions{})
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Encoded = encoded

	notation, err := engine.Decode(encoded)
	if err != nil {
		// decode failure is independent of a successful expansion
		result.Error = err.Error()
		return result
	}
	result.Notation = notation

	// scalar properties are best-effort and never set Error
	mass, merr := engine.Mass(encoded)
	formula, ferr := engine.Formula(encoded)
	if merr == nil && ferr == nil {
		result.Mass = &mass
		result.Formula = formula
	}
	return result
}

// Module resolves the export declared on a 1-based line of a JavaScript
// fragment module. The module carries precomputed values, so no decode or
// property stage runs here.
func Module(ctx context.Context, loader *modload.Loader, path string, lineText string, line int) *Result {
	if modload.IsCommentLine(lineText) {
		return nil
	}
	name, ok := modload.ExportNameAt(lineText)
	if !ok {
		return nil
	}

	exports, err := loader.Load(ctx, path)
	if err != nil {
		return &Result{
			Line:       line,
			Name:       name,
			Expression: strings.TrimSpace(lineText),
			Error:      err.Error(),
		}
	}

	frag, ok := exports[name]
	if !ok {
		// an export that is not a fragment is not tracked content
		return nil
	}
	return &Result{
		Line:       line,
		Name:       name,
		Expression: strings.TrimSpace(lineText),
		Notation:   frag.Notation,
		Formula:    frag.Formula,
		Mass:       frag.Mass,
	}
}
