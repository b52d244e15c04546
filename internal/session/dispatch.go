package session

import "strings"

// DocKind routes a document to its resolution path. Classification is by
// file identity alone; content is never inspected.
type DocKind uint8

const (
	KindUntracked DocKind = iota
	KindDeclarative
	KindModule
)

func (k DocKind) String() string {
	switch k {
	case KindDeclarative:
		return "declarative"
	case KindModule:
		return "module"
	default:
		return "untracked"
	}
}

// Classify maps a document path to its kind.
func Classify(path string) DocKind {
	switch {
	case strings.HasSuffix(path, ".frag.js"), strings.HasSuffix(path, ".mol.js"):
		return KindModule
	case strings.HasSuffix(path, ".frag"):
		return KindDeclarative
	default:
		return KindUntracked
	}
}
