package engine

import (
	"fmt"
	"strings"
)

type TokenKind uint8

const (
	AtomToken TokenKind = iota
	RefToken
	BondToken
	OpenToken
	CloseToken
	RepeatToken
)

// Token is one element of a definition body. Atoms carry an element symbol
// and a multiplicity ([H3] means count 3), references carry the name of
// another definition, and repeat tokens carry a sub-pattern plus a count.
type Token struct {
	Kind    TokenKind
	Sym     string
	Count   int
	Name    string
	Bond    byte
	Pattern []Token
	Times   int
	Col     int // 1-based column of the token start
}

// Render reconstructs the source-level text of a token sequence. Repeat
// constructs are rendered in the canonical repeat(pattern, count) form
// regardless of how they were spelled.
func Render(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case AtomToken:
			if tok.Count > 1 {
				fmt.Fprintf(&b, "[%s%d]", tok.Sym, tok.Count)
			} else {
				fmt.Fprintf(&b, "[%s]", tok.Sym)
			}
		case RefToken:
			fmt.Fprintf(&b, "[%s]", tok.Name)
		case BondToken:
			b.WriteByte(tok.Bond)
		case OpenToken:
			b.WriteByte('(')
		case CloseToken:
			b.WriteByte(')')
		case RepeatToken:
			fmt.Fprintf(&b, "repeat(%s, %d)", Render(tok.Pattern), tok.Times)
		}
	}
	return b.String()
}
