package engine

import (
	"fmt"
	"sort"
	"strings"
)

// parseEncoded lexes a fully expanded encoded form. References and repeat
// constructs are illegal here: an encoded form contains only atoms, bonds
// and branches.
func parseEncoded(encoded string) ([]Token, error) {
	toks, err := newLexer(encoded, 0, 1).tokens()
	if err != nil {
		return nil, err
	}
	for _, tok := range toks {
		switch tok.Kind {
		case RefToken:
			return nil, &Error{Kind: KindError, Message: fmt.Sprintf("encoded form contains unexpanded reference %q", tok.Name)}
		case RepeatToken:
			return nil, &Error{Kind: KindError, Message: "encoded form contains unexpanded repeat construct"}
		}
	}
	return toks, nil
}

// Decode converts an encoded form into SMILES. An encoding can be
// structurally well-formed yet still fail here, e.g. on an element symbol
// the periodic table does not know.
func Decode(encoded string) (string, error) {
	toks, err := parseEncoded(encoded)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, tok := range toks {
		switch tok.Kind {
		case AtomToken:
			if _, ok := elements[tok.Sym]; !ok {
				return "", &Error{Kind: KindChemistry, Message: fmt.Sprintf("unknown element %q", tok.Sym)}
			}
			for i := 0; i < tok.Count; i++ {
				if organicSubset[tok.Sym] {
					b.WriteString(tok.Sym)
				} else {
					fmt.Fprintf(&b, "[%s]", tok.Sym)
				}
			}
		case BondToken:
			// single bonds are implicit in SMILES
			if tok.Bond != '-' {
				b.WriteByte(tok.Bond)
			}
		case OpenToken:
			b.WriteByte('(')
		case CloseToken:
			b.WriteByte(')')
		}
	}
	if b.Len() == 0 {
		return "", &Error{Kind: KindError, Message: "empty encoded form"}
	}
	return b.String(), nil
}

// Mass computes the molecular mass of an encoded form.
func Mass(encoded string) (float64, error) {
	counts, err := atomCounts(encoded)
	if err != nil {
		return 0, err
	}
	var mass float64
	for sym, n := range counts {
		mass += elements[sym] * float64(n)
	}
	return mass, nil
}

// Formula computes the Hill-order molecular formula of an encoded form:
// carbon first, hydrogen second, everything else alphabetical.
func Formula(encoded string) (string, error) {
	counts, err := atomCounts(encoded)
	if err != nil {
		return "", err
	}
	syms := make([]string, 0, len(counts))
	for sym := range counts {
		if sym != "C" && sym != "H" {
			syms = append(syms, sym)
		}
	}
	sort.Strings(syms)
	if _, ok := counts["H"]; ok {
		syms = append([]string{"H"}, syms...)
	}
	if _, ok := counts["C"]; ok {
		syms = append([]string{"C"}, syms...)
	}

	var b strings.Builder
	for _, sym := range syms {
		b.WriteString(sym)
		if counts[sym] > 1 {
			fmt.Fprintf(&b, "%d", counts[sym])
		}
	}
	return b.String(), nil
}

func atomCounts(encoded string) (map[string]int, error) {
	toks, err := parseEncoded(encoded)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, tok := range toks {
		if tok.Kind != AtomToken {
			continue
		}
		if _, ok := elements[tok.Sym]; !ok {
			return nil, &Error{Kind: KindChemistry, Message: fmt.Sprintf("unknown element %q", tok.Sym)}
		}
		counts[tok.Sym] += tok.Count
	}
	if len(counts) == 0 {
		return nil, &Error{Kind: KindError, Message: "encoded form has no atoms"}
	}
	return counts, nil
}
