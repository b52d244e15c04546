package engine

import (
	"strconv"
	"strings"
)

// lexer tokenizes the right-hand side of a definition. It works on a slice
// of the physical line, so baseCol carries the 1-based column where the
// slice begins and all reported positions land in the original line.
type lexer struct {
	src     string
	pos     int
	line    int
	baseCol int
}

func newLexer(src string, line, baseCol int) *lexer {
	return &lexer{src: src, line: line, baseCol: baseCol}
}

func (l *lexer) col() int {
	return l.baseCol + l.pos
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
}

// tokens lexes until end of input. Branch parens must balance.
func (l *lexer) tokens() ([]Token, *Error) {
	toks, err := l.sequence(false)
	if err != nil {
		return nil, err
	}
	depth := 0
	for _, t := range toks {
		switch t.Kind {
		case OpenToken:
			depth++
		case CloseToken:
			depth--
			if depth < 0 {
				return nil, syntaxErr(l.line, t.Col, "unbalanced ')'")
			}
		}
	}
	if depth != 0 {
		return nil, syntaxErr(l.line, l.col(), "unclosed '('")
	}
	return toks, nil
}

// sequence lexes tokens until end of input, or until a top-level ',' or
// unmatched ')' when insideRepeat is set (those terminate a repeat pattern
// and are left for the caller).
func (l *lexer) sequence(insideRepeat bool) ([]Token, *Error) {
	var toks []Token
	depth := 0
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			return toks, nil
		}
		c := l.src[l.pos]
		col := l.col()
		switch {
		case c == ',' && insideRepeat && depth == 0:
			return toks, nil
		case c == ')' && insideRepeat && depth == 0:
			return toks, nil
		case c == '[':
			tok, err := l.bracket()
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		case c == '-' || c == '=' || c == '#':
			toks = append(toks, Token{Kind: BondToken, Bond: c, Col: col})
			l.pos++
		case c == '(':
			toks = append(toks, Token{Kind: OpenToken, Col: col})
			depth++
			l.pos++
		case c == ')':
			toks = append(toks, Token{Kind: CloseToken, Col: col})
			depth--
			l.pos++
		case strings.HasPrefix(l.src[l.pos:], "repeat("):
			tok, err := l.repeat()
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		default:
			return nil, syntaxErr(l.line, col, "unexpected character %q", c)
		}
	}
}

// bracket lexes [C], [H3] or [name]. An element-cased body is an atom,
// a lowercase identifier is a reference to another definition.
func (l *lexer) bracket() (Token, *Error) {
	start := l.col()
	end := strings.IndexByte(l.src[l.pos:], ']')
	if end < 0 {
		return Token{}, syntaxErr(l.line, start, "unterminated '['")
	}
	body := l.src[l.pos+1 : l.pos+end]
	l.pos += end + 1

	tok := Token{Col: start}
	switch {
	case isRefName(body):
		tok.Kind = RefToken
		tok.Name = body
	case len(body) > 0 && body[0] >= 'A' && body[0] <= 'Z':
		sym, count, ok := splitAtom(body)
		if !ok {
			return Token{}, syntaxErr(l.line, start, "malformed atom %q", "["+body+"]")
		}
		tok.Kind = AtomToken
		tok.Sym = sym
		tok.Count = count
	default:
		return Token{}, syntaxErr(l.line, start, "invalid bracket token %q", "["+body+"]")
	}
	return tok, nil
}

// repeat lexes repeat(<pattern>, <count>).
func (l *lexer) repeat() (Token, *Error) {
	start := l.col()
	l.pos += len("repeat(")
	pattern, err := l.sequence(true)
	if err != nil {
		return Token{}, err
	}
	l.skipSpace()
	if l.pos >= len(l.src) || l.src[l.pos] != ',' {
		return Token{}, syntaxErr(l.line, l.col(), "repeat: expected ',' after pattern")
	}
	l.pos++
	l.skipSpace()
	numStart := l.pos
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		l.pos++
	}
	times, convErr := strconv.Atoi(l.src[numStart:l.pos])
	if convErr != nil || times < 1 {
		return Token{}, syntaxErr(l.line, l.baseCol+numStart, "repeat: count must be a positive integer")
	}
	l.skipSpace()
	if l.pos >= len(l.src) || l.src[l.pos] != ')' {
		return Token{}, syntaxErr(l.line, l.col(), "repeat: expected ')'")
	}
	l.pos++
	if len(pattern) == 0 {
		return Token{}, syntaxErr(l.line, start, "repeat: empty pattern")
	}
	return Token{Kind: RepeatToken, Pattern: pattern, Times: times, Col: start}, nil
}

func isRefName(s string) bool {
	if len(s) == 0 || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// splitAtom splits "H3" into ("H", 3). A missing count means 1.
func splitAtom(body string) (string, int, bool) {
	i := 0
	for i < len(body) && (body[i] >= 'A' && body[i] <= 'Z' || body[i] >= 'a' && body[i] <= 'z') {
		i++
	}
	sym := body[:i]
	if len(sym) == 0 || len(sym) > 2 {
		return "", 0, false
	}
	if i == len(body) {
		return sym, 1, true
	}
	count, err := strconv.Atoi(body[i:])
	if err != nil || count < 1 {
		return "", 0, false
	}
	return sym, count, true
}
