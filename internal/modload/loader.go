// Package modload loads JavaScript fragment modules. A module is never
// executed: its `export const` object literals are read off the syntax tree
// (tree-sitter) and interpreted as fragments when they have the recognized
// shape. Loads are keyed by (path, mtime) with a single-entry cache, so an
// unchanged file is parsed once and a saved change busts the cache.
package modload

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

var exportQuery = []byte(`
(export_statement
  (lexical_declaration
    (variable_declarator
      name: (identifier) @name
      value: (object) @value)))
`)

var exportLine = regexp.MustCompile(`^\s*export\s+const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=`)

// ExportNameAt matches a line of editor text against the export-declaration
// shape and returns the declared identifier.
func ExportNameAt(line string) (string, bool) {
	m := exportLine.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsCommentLine reports whether a line of module text is blank or starts a
// JavaScript comment.
func IsCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}

// Fragment is the recognized export shape: a notation field plus optional
// precomputed formula and mass. Exports without a notation field are not
// fragments and are dropped, not errors.
type Fragment struct {
	Name     string
	Notation string
	Formula  string
	Mass     *float64
}

type Exports map[string]Fragment

type cacheKey struct {
	path  string
	mtime int64
}

// Loader parses fragment modules and caches the most recent one.
type Loader struct {
	mu      sync.Mutex
	parser  *sitter.Parser
	lang    *sitter.Language
	query   *sitter.Query
	key     cacheKey
	exports Exports
	cached  bool
	loads   int
}

func NewLoader() (*Loader, error) {
	parser := sitter.NewParser()
	lang := javascript.GetLanguage()
	parser.SetLanguage(lang)

	query, err := sitter.NewQuery(exportQuery, lang)
	if err != nil {
		parser.Close()
		return nil, fmt.Errorf("compile export query: %w", err)
	}

	return &Loader{parser: parser, lang: lang, query: query}, nil
}

// Load returns the module's fragment exports. A cache hit for an unchanged
// (path, mtime) returns the previous result without re-reading the file; a
// miss evicts whatever was cached before.
func (l *Loader) Load(ctx context.Context, path string) (Exports, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat module: %w", err)
	}
	key := cacheKey{path: path, mtime: info.ModTime().UnixNano()}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached && l.key == key {
		return l.exports, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	exports, err := l.extract(ctx, content)
	if err != nil {
		return nil, err
	}

	l.key = key
	l.exports = exports
	l.cached = true
	l.loads++
	return exports, nil
}

// Loads counts how many times module content was actually parsed, as
// opposed to served from cache.
func (l *Loader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.query != nil {
		l.query.Close()
	}
	if l.parser != nil {
		l.parser.Close()
	}
	l.query = nil
	l.parser = nil
}

func (l *Loader) extract(ctx context.Context, content []byte) (Exports, error) {
	tree, err := l.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse module: %w", err)
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(l.query, tree.RootNode())

	exports := make(Exports)
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		var name string
		var value *sitter.Node
		for _, capture := range match.Captures {
			switch l.query.CaptureNameForId(capture.Index) {
			case "name":
				name = capture.Node.Content(content)
			case "value":
				value = capture.Node
			}
		}
		if name == "" || value == nil {
			continue
		}
		if frag, ok := fragmentFromObject(name, value, content); ok {
			exports[name] = frag
		}
	}
	return exports, nil
}

// fragmentFromObject interprets an object literal as a Fragment. The shape
// check is the gate: no derivable notation field means the export is simply
// not tracked content.
func fragmentFromObject(name string, obj *sitter.Node, content []byte) (Fragment, bool) {
	frag := Fragment{Name: name}
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		keyNode := pair.ChildByFieldName("key")
		valNode := pair.ChildByFieldName("value")
		if keyNode == nil || valNode == nil {
			continue
		}
		key := unquote(keyNode.Content(content))
		switch key {
		case "smiles", "notation":
			if valNode.Type() == "string" {
				frag.Notation = unquote(valNode.Content(content))
			}
		case "formula":
			if valNode.Type() == "string" {
				frag.Formula = unquote(valNode.Content(content))
			}
		case "mass":
			if valNode.Type() == "number" {
				if mass, err := strconv.ParseFloat(valNode.Content(content), 64); err == nil {
					frag.Mass = &mass
				}
			}
		}
	}
	if frag.Notation == "" {
		return Fragment{}, false
	}
	return frag, true
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
