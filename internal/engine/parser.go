package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// CommentMarker starts a comment line in the declarative notation.
const CommentMarker = "#"

var importPattern = regexp.MustCompile(`^@import\s+"([^"]+)"\s*$`)

// Engine builds and validates fragment documents. Roots are extra
// directories searched when resolving @import paths. Strict controls
// whether the validation pass enforces chemistry plausibility on top of
// structural checks.
type Engine struct {
	Roots  []string
	Strict bool
}

func New(roots ...string) *Engine {
	return &Engine{Roots: roots, Strict: true}
}

type builder struct {
	eng    *Engine
	byName map[string]*Definition
	graph  map[string][]string
	issues []Issue
	stack  []string // import chain, absolute paths
}

// Build parses the document and its import closure into a Resolution.
// Problems in the text become Issues on the result, not errors; the error
// return is reserved for conditions that prevent producing a resolution at
// all.
func (e *Engine) Build(text string, path string) (*Resolution, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}

	b := &builder{
		eng:    e,
		byName: make(map[string]*Definition),
		graph:  make(map[string][]string),
	}
	defs := b.parse(text, abs, true)

	res := &Resolution{
		Definitions: defs,
		ImportGraph: b.graph,
		byName:      b.byName,
	}
	for _, issue := range b.issues {
		if issue.Kind == KindWarning || issue.Kind == KindChemistry {
			res.Warnings = append(res.Warnings, issue)
		} else {
			res.Errors = append(res.Errors, issue)
		}
	}
	return res, nil
}

// parse processes one file line by line. Issues are only recorded for the
// root file; an imported file's problems surface as a single issue anchored
// at the @import line that pulled it in.
func (b *builder) parse(text string, abs string, isRoot bool) []*Definition {
	b.stack = append(b.stack, abs)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()
	b.graph[abs] = nil

	var defs []*Definition
	for i, raw := range strings.Split(text, "\n") {
		line := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, CommentMarker) {
			continue
		}
		if m := importPattern.FindStringSubmatch(trimmed); m != nil {
			b.importFile(m[1], abs, line)
			continue
		}
		def, perr := parseDefinition(raw, line)
		if perr != nil {
			b.report(line, issueOf(perr))
			continue
		}
		def.File = abs
		if prev, ok := b.byName[def.Name]; ok {
			b.report(line, Issue{
				Kind:      KindRedefinition,
				Message:   fmt.Sprintf("fragment %q already defined (line %d of %s)", def.Name, prev.Line, filepath.Base(prev.File)),
				Line:      def.Line,
				Column:    def.Col,
				EndColumn: def.EndCol,
			})
			continue
		}
		b.byName[def.Name] = def
		if isRoot {
			defs = append(defs, def)
		}
	}
	return defs
}

func (b *builder) importFile(spec string, from string, line int) {
	resolved, err := b.resolveImport(spec, from)
	if err != nil {
		b.report(line, Issue{
			Kind:    KindError,
			Message: fmt.Sprintf("import %q: %v", spec, err),
			Line:    line,
			Column:  1,
		})
		return
	}
	for _, p := range b.stack {
		if p == resolved {
			chain := strings.Join(append(b.stack, resolved), " -> ")
			b.report(line, Issue{
				Kind:    KindCircular,
				Message: "import cycle detected: " + chain,
				Line:    line,
				Column:  1,
			})
			return
		}
	}
	b.graph[from] = append(b.graph[from], resolved)
	if _, done := b.graph[resolved]; done {
		return // already parsed through another path
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		b.report(line, Issue{
			Kind:    KindError,
			Message: fmt.Sprintf("import %q: %v", spec, err),
			Line:    line,
			Column:  1,
		})
		return
	}
	before := len(b.issues)
	b.parse(string(content), resolved, false)
	if hidden := len(b.issues) - before; hidden > 0 {
		// imported-file problems collapse into one marker at the @import line
		b.issues = append(b.issues[:before], Issue{
			Kind:    KindError,
			Message: fmt.Sprintf("import %q has %d problem(s)", spec, hidden),
			Line:    line,
			Column:  1,
		})
	}
}

func (b *builder) report(line int, issue Issue) {
	if issue.Line == 0 {
		issue.Line = line
	}
	b.issues = append(b.issues, issue)
}

func (b *builder) resolveImport(spec string, from string) (string, error) {
	candidates := []string{filepath.Join(filepath.Dir(from), spec)}
	for _, root := range b.eng.Roots {
		candidates = append(candidates, filepath.Join(root, spec))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return filepath.Abs(c)
		}
	}
	return "", fmt.Errorf("not found")
}

// parseDefinition parses one `[name] = body` line. Columns are 1-based and
// refer to the physical line, indentation included.
func parseDefinition(raw string, line int) (*Definition, *Error) {
	indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
	col := indent + 1

	if indent >= len(raw) || raw[indent] != '[' {
		return nil, syntaxErr(line, col, "expected a definition or @import")
	}
	end := strings.IndexByte(raw, ']')
	if end < 0 {
		return nil, syntaxErr(line, col, "unterminated '['")
	}
	name := raw[indent+1 : end]
	if !isRefName(name) {
		return nil, syntaxErr(line, col, "invalid fragment name %q", name)
	}
	j := end + 1
	for j < len(raw) && (raw[j] == ' ' || raw[j] == '\t') {
		j++
	}
	if j >= len(raw) || raw[j] != '=' {
		return nil, syntaxErr(line, j+1, "expected '=' after fragment name")
	}
	j++
	for j < len(raw) && (raw[j] == ' ' || raw[j] == '\t') {
		j++
	}
	body := strings.TrimRight(raw[j:], " \t\r")
	if body == "" {
		return nil, syntaxErr(line, col, "empty definition body")
	}

	toks, lerr := newLexer(body, line, j+1).tokens()
	if lerr != nil {
		return nil, lerr
	}
	return &Definition{
		Name:   name,
		Line:   line,
		Col:    col,
		EndCol: j + len(body) + 1,
		Tokens: toks,
	}, nil
}
