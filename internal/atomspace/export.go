package atomspace

import (
	"fmt"
	"strconv"
	"strings"
)

// The textual grammar is the interchange contract for serialization
// collaborators. Field order and names are fixed; a changed rendering here
// breaks round-trip compatibility with anything that consumed an export.

// ExportNode renders one node in the interchange grammar.
func ExportNode(n Node) string {
	var b strings.Builder
	b.WriteString("(node (id ")
	b.WriteString(strconv.FormatInt(int64(n.ID), 10))
	b.WriteString(") (type ")
	b.WriteString(string(n.Kind))
	b.WriteString(") (name ")
	b.WriteString(strconv.Quote(n.Name))
	b.WriteString(") ")
	writeAttention(&b, n.Attention)
	b.WriteString(" ")
	writeTruth(&b, n.Truth)
	b.WriteString(")")
	return b.String()
}

// ExportLink renders one link in the interchange grammar.
func ExportLink(l Link) string {
	var b strings.Builder
	b.WriteString("(link (id ")
	b.WriteString(strconv.FormatInt(int64(l.ID), 10))
	b.WriteString(") (type ")
	b.WriteString(string(l.Kind))
	b.WriteString(") (outgoing (")
	for i, nid := range l.Outgoing {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strconv.FormatInt(int64(nid), 10))
	}
	b.WriteString(")) ")
	writeAttention(&b, l.Attention)
	b.WriteString(" ")
	writeTruth(&b, l.Truth)
	b.WriteString(")")
	return b.String()
}

func writeAttention(b *strings.Builder, av AttentionValue) {
	b.WriteString("(attention (sti ")
	b.WriteString(formatFloat(av.STI))
	b.WriteString(") (lti ")
	b.WriteString(formatFloat(av.LTI))
	b.WriteString(") (vlti ")
	b.WriteString(formatFloat(av.VLTI))
	b.WriteString("))")
}

func writeTruth(b *strings.Builder, tv TruthValue) {
	b.WriteString("(truth ")
	b.WriteString(formatFloat(tv.Strength))
	b.WriteString(" ")
	b.WriteString(formatFloat(tv.Confidence))
	b.WriteString(")")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Export renders the whole store, nodes first then links, one entity per
// line, both in ascending id order.
func (s *Store) Export() string {
	var b strings.Builder
	for _, n := range s.Nodes() {
		b.WriteString(ExportNode(n))
		b.WriteString("\n")
	}
	for _, l := range s.Links() {
		b.WriteString(ExportLink(l))
		b.WriteString("\n")
	}
	return b.String()
}

// Import parses an export back into the store, preserving ids. It fails on
// malformed input or id collisions with entities already present.
func (s *Store) Import(text string) error {
	exprs, err := parseSexps(text)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	for _, e := range exprs {
		if len(e.list) == 0 || e.list[0].isList {
			return fmt.Errorf("import: expected (node ...) or (link ...)")
		}
		switch e.list[0].atom {
		case "node":
			n, err := nodeFromSexp(e)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if err := s.RestoreNode(n); err != nil {
				return fmt.Errorf("import: %w", err)
			}
		case "link":
			l, err := linkFromSexp(e)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if err := s.RestoreLink(l); err != nil {
				return fmt.Errorf("import: %w", err)
			}
		default:
			return fmt.Errorf("import: unknown entity %q", e.list[0].atom)
		}
	}
	return nil
}

// sexp is a minimal s-expression: either an atom or a list.
type sexp struct {
	atom   string
	list   []sexp
	isList bool
}

func parseSexps(text string) ([]sexp, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	var exprs []sexp
	pos := 0
	for pos < len(toks) {
		e, next, err := parseSexp(toks, pos)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		pos = next
	}
	return exprs, nil
}

func parseSexp(toks []string, pos int) (sexp, int, error) {
	if pos >= len(toks) {
		return sexp{}, pos, fmt.Errorf("unexpected end of input")
	}
	switch toks[pos] {
	case "(":
		e := sexp{isList: true}
		pos++
		for pos < len(toks) && toks[pos] != ")" {
			child, next, err := parseSexp(toks, pos)
			if err != nil {
				return sexp{}, pos, err
			}
			e.list = append(e.list, child)
			pos = next
		}
		if pos >= len(toks) {
			return sexp{}, pos, fmt.Errorf("unclosed list")
		}
		return e, pos + 1, nil
	case ")":
		return sexp{}, pos, fmt.Errorf("unexpected )")
	default:
		return sexp{atom: toks[pos]}, pos + 1, nil
	}
}

func tokenize(text string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"':
			j := i + 1
			for j < len(text) {
				if text[j] == '\\' {
					j += 2
					continue
				}
				if text[j] == '"' {
					break
				}
				j++
			}
			if j >= len(text) {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, text[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(text) && !strings.ContainsRune("() \t\n\r", rune(text[j])) {
				j++
			}
			toks = append(toks, text[i:j])
			i = j
		}
	}
	return toks, nil
}

// field finds the sub-list (key ...) in a parsed entity.
func field(e sexp, key string) (sexp, error) {
	for _, child := range e.list[1:] {
		if child.isList && len(child.list) > 0 && !child.list[0].isList && child.list[0].atom == key {
			return child, nil
		}
	}
	return sexp{}, fmt.Errorf("missing field %q", key)
}

func fieldInt(e sexp, key string) (int64, error) {
	f, err := field(e, key)
	if err != nil {
		return 0, err
	}
	if len(f.list) != 2 || f.list[1].isList {
		return 0, fmt.Errorf("malformed field %q", key)
	}
	return strconv.ParseInt(f.list[1].atom, 10, 64)
}

func fieldFloat(f sexp, idx int) (float64, error) {
	if idx >= len(f.list) || f.list[idx].isList {
		return 0, fmt.Errorf("malformed numeric field")
	}
	return strconv.ParseFloat(f.list[idx].atom, 64)
}

func attentionFromSexp(e sexp) (AttentionValue, error) {
	att, err := field(e, "attention")
	if err != nil {
		return AttentionValue{}, err
	}
	var av AttentionValue
	for _, part := range []struct {
		key string
		dst *float64
	}{{"sti", &av.STI}, {"lti", &av.LTI}, {"vlti", &av.VLTI}} {
		f, err := field(att, part.key)
		if err != nil {
			return AttentionValue{}, err
		}
		v, err := fieldFloat(f, 1)
		if err != nil {
			return AttentionValue{}, fmt.Errorf("attention %s: %w", part.key, err)
		}
		*part.dst = v
	}
	return av, nil
}

func truthFromSexp(e sexp) (TruthValue, error) {
	tr, err := field(e, "truth")
	if err != nil {
		return TruthValue{}, err
	}
	if len(tr.list) != 3 {
		return TruthValue{}, fmt.Errorf("malformed truth field")
	}
	strength, err := fieldFloat(tr, 1)
	if err != nil {
		return TruthValue{}, err
	}
	confidence, err := fieldFloat(tr, 2)
	if err != nil {
		return TruthValue{}, err
	}
	return TruthValue{Strength: strength, Confidence: confidence}, nil
}

func nodeFromSexp(e sexp) (Node, error) {
	id, err := fieldInt(e, "id")
	if err != nil {
		return Node{}, err
	}
	typ, err := field(e, "type")
	if err != nil {
		return Node{}, err
	}
	if len(typ.list) != 2 {
		return Node{}, fmt.Errorf("malformed type field")
	}
	nameField, err := field(e, "name")
	if err != nil {
		return Node{}, err
	}
	if len(nameField.list) != 2 {
		return Node{}, fmt.Errorf("malformed name field")
	}
	name, err := strconv.Unquote(nameField.list[1].atom)
	if err != nil {
		return Node{}, fmt.Errorf("name: %w", err)
	}
	av, err := attentionFromSexp(e)
	if err != nil {
		return Node{}, err
	}
	tv, err := truthFromSexp(e)
	if err != nil {
		return Node{}, err
	}
	return Node{
		ID:        NodeID(id),
		Kind:      NodeKind(typ.list[1].atom),
		Name:      name,
		Attention: av,
		Truth:     tv,
	}, nil
}

func linkFromSexp(e sexp) (Link, error) {
	id, err := fieldInt(e, "id")
	if err != nil {
		return Link{}, err
	}
	typ, err := field(e, "type")
	if err != nil {
		return Link{}, err
	}
	if len(typ.list) != 2 {
		return Link{}, fmt.Errorf("malformed type field")
	}
	outField, err := field(e, "outgoing")
	if err != nil {
		return Link{}, err
	}
	if len(outField.list) != 2 || !outField.list[1].isList {
		return Link{}, fmt.Errorf("malformed outgoing field")
	}
	var outgoing []NodeID
	for _, idTok := range outField.list[1].list {
		if idTok.isList {
			return Link{}, fmt.Errorf("malformed outgoing id")
		}
		v, err := strconv.ParseInt(idTok.atom, 10, 64)
		if err != nil {
			return Link{}, fmt.Errorf("outgoing id: %w", err)
		}
		outgoing = append(outgoing, NodeID(v))
	}
	av, err := attentionFromSexp(e)
	if err != nil {
		return Link{}, err
	}
	tv, err := truthFromSexp(e)
	if err != nil {
		return Link{}, err
	}
	return Link{
		ID:        LinkID(id),
		Kind:      LinkKind(typ.list[1].atom),
		Outgoing:  outgoing,
		Attention: av,
		Truth:     tv,
	}, nil
}
