package engine

import (
	"fmt"
	"strings"
)

// Definition is a named, source-positioned declaration. Line is 1-based in
// the file the definition appears in; Col/EndCol span the whole declaration.
type Definition struct {
	Name   string
	Line   int
	Col    int
	EndCol int
	Tokens []Token
	File   string
}

// Resolution is the full-document symbol table. Definitions holds only the
// root file's definitions in source order; byName additionally contains
// everything pulled in through imports.
type Resolution struct {
	Definitions []*Definition
	ImportGraph map[string][]string
	Errors      []Issue
	Warnings    []Issue

	byName map[string]*Definition
}

// DefinitionAt returns the root-file definition declared on the given
// 1-based line, or nil.
func (r *Resolution) DefinitionAt(line int) *Definition {
	for _, def := range r.Definitions {
		if def.Line == line {
			return def
		}
	}
	return nil
}

// Lookup finds a definition by name, including imported ones.
func (r *Resolution) Lookup(name string) (*Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// ImportClosure lists every file the resolution depends on, root included.
func (r *Resolution) ImportClosure() []string {
	seen := make(map[string]struct{})
	var paths []string
	var walk func(string)
	walk = func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
		for _, dep := range r.ImportGraph[p] {
			walk(dep)
		}
	}
	for p := range r.ImportGraph {
		walk(p)
	}
	return paths
}

// ResolveOptions controls name expansion. Strict additionally enforces
// chemistry plausibility (known elements); the cursor path runs relaxed so
// implausible but well-formed encodings still resolve.
type ResolveOptions struct {
	Strict bool
}

// Resolve expands a definition transitively into its encoded form: a token
// string of atoms, bonds and branches with every reference and repeat
// construct expanded away.
func Resolve(r *Resolution, name string, opts ResolveOptions) (string, error) {
	def, ok := r.Lookup(name)
	if !ok {
		return "", &Error{Kind: KindUndefinedRef, Message: fmt.Sprintf("undefined fragment %q", name)}
	}
	expanded, err := expand(r, def, []string{name})
	if err != nil {
		return "", err
	}
	if opts.Strict {
		for _, tok := range expanded {
			if tok.Kind == AtomToken {
				if _, ok := elements[tok.Sym]; !ok {
					return "", &Error{
						Kind:    KindChemistry,
						Message: fmt.Sprintf("unknown element %q in fragment %q", tok.Sym, name),
						Line:    def.Line,
						Column:  def.Col,
					}
				}
			}
		}
	}
	return Render(expanded), nil
}

func expand(r *Resolution, def *Definition, stack []string) ([]Token, *Error) {
	var out []Token
	for _, tok := range def.Tokens {
		switch tok.Kind {
		case AtomToken, BondToken, OpenToken, CloseToken:
			out = append(out, tok)
		case RefToken:
			for _, name := range stack {
				if name == tok.Name {
					chain := strings.Join(append(stack, tok.Name), " -> ")
					return nil, &Error{
						Kind:    KindCircular,
						Message: "circular fragment reference: " + chain,
						Line:    def.Line,
						Column:  tok.Col,
					}
				}
			}
			target, ok := r.Lookup(tok.Name)
			if !ok {
				return nil, &Error{
					Kind:    KindUndefinedRef,
					Message: fmt.Sprintf("undefined fragment %q", tok.Name),
					Line:    def.Line,
					Column:  tok.Col,
				}
			}
			sub, err := expand(r, target, append(stack, tok.Name))
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		case RepeatToken:
			sub, err := expand(r, &Definition{Name: def.Name, Line: def.Line, Tokens: tok.Pattern}, stack)
			if err != nil {
				return nil, err
			}
			for i := 0; i < tok.Times; i++ {
				out = append(out, sub...)
			}
		}
	}
	return out, nil
}
