package engine

// Check runs the full-document validation pass: build the resolution, then
// strict-resolve every root definition. The result is a pure function of
// the document text and path (modulo the content of imported files), so
// re-running it on identical input yields identical issues.
func (e *Engine) Check(text string, path string) []Issue {
	res, err := e.Build(text, path)
	if err != nil {
		return []Issue{{Kind: KindError, Message: err.Error(), Line: 1, Column: 1}}
	}
	return e.CheckResolution(res)
}

// CheckResolution validates an already-built resolution.
func (e *Engine) CheckResolution(res *Resolution) []Issue {
	issues := make([]Issue, 0, len(res.Errors)+len(res.Warnings))
	issues = append(issues, res.Errors...)
	issues = append(issues, res.Warnings...)

	for _, def := range res.Definitions {
		if _, rerr := Resolve(res, def.Name, ResolveOptions{Strict: e.Strict}); rerr != nil {
			issue := issueOf(rerr)
			// anchor at the definition being checked: cycles and failures
			// deep in referenced fragments would otherwise point elsewhere
			if issue.Kind == KindCircular || issue.Line != def.Line {
				issue.Line, issue.Column, issue.EndColumn = def.Line, def.Col, def.EndCol
			} else if issue.EndColumn == 0 {
				issue.EndColumn = def.EndCol
			}
			issues = append(issues, issue)
		}
	}
	return issues
}
