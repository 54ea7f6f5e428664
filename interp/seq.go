package interp

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Site identifies one stateful operator in the script text: the slot, the
// line, the byte offset of the operator keyword in the normalized line, and
// for nested SEQ groups the step/option path below it.
type Site struct {
	Script int
	Line   int
	Offset int
	Path   string
}

func (s Site) sub(i int) Site {
	s.Path = s.Path + "/" + strconv.Itoa(i)
	return s
}

// maxRepeat bounds literal*N expansion.
const maxRepeat = 256

type seqEntry struct {
	counter uint64
	last    int
}

type altEntry struct {
	counter uint64
	last    int
}

type randEntry struct {
	choice int
}

type togEntry struct {
	on     bool
	second bool // last evaluation yielded the second value
}

type eithEntry struct {
	second bool
}

// SeqState is the persistent state of every SEQ, TOG and EITH call-site.
type SeqState struct {
	seqs  map[Site]*seqEntry
	alts  map[Site]*altEntry
	rands map[Site]*randEntry
	togs  map[Site]*togEntry
	eiths map[Site]*eithEntry
}

// NewSeqState returns an empty state table.
func NewSeqState() *SeqState {
	return &SeqState{
		seqs:  make(map[Site]*seqEntry),
		alts:  make(map[Site]*altEntry),
		rands: make(map[Site]*randEntry),
		togs:  make(map[Site]*togEntry),
		eiths: make(map[Site]*eithEntry),
	}
}

// Reset forgets every call-site.
func (s *SeqState) Reset() {
	*s = *NewSeqState()
}

// Len returns the number of tracked call-sites, nested groups included.
func (s *SeqState) Len() int {
	return len(s.seqs) + len(s.alts) + len(s.rands) + len(s.togs) + len(s.eiths)
}

type nodeKind int

const (
	nodeLiteral nodeKind = iota
	nodeAlt              // <a b c>
	nodeRand             // {a b c}
)

type seqNode struct {
	kind    nodeKind
	value   string
	options []seqNode
}

// Seq advances the SEQ at site and returns the value of the step it lands on.
func (s *SeqState) Seq(site Site, src string, r *rand.Rand) (string, error) {
	steps, err := parseSeq(src)
	if err != nil {
		return "", err
	}
	e := s.seqs[site]
	if e == nil {
		e = &seqEntry{}
		s.seqs[site] = e
	}
	idx := int(e.counter % uint64(len(steps)))
	e.counter++
	e.last = idx
	return s.step(steps[idx], site.sub(idx), r), nil
}

func (s *SeqState) step(n seqNode, key Site, r *rand.Rand) string {
	switch n.kind {
	case nodeAlt:
		a := s.alts[key]
		if a == nil {
			a = &altEntry{}
			s.alts[key] = a
		}
		i := int(a.counter % uint64(len(n.options)))
		a.counter++
		a.last = i
		return s.step(n.options[i], key.sub(i), r)
	case nodeRand:
		i := r.Intn(len(n.options))
		s.rands[key] = &randEntry{choice: i}
		return s.step(n.options[i], key.sub(i), r)
	}
	return n.value
}

// PeekSeq returns the value the SEQ at site last produced without
// advancing anything. ok is false when the site never ran.
func (s *SeqState) PeekSeq(site Site, src string) (value string, ok bool, err error) {
	steps, err := parseSeq(src)
	if err != nil {
		return "", false, err
	}
	e := s.seqs[site]
	if e == nil || e.last >= len(steps) {
		return "", false, nil
	}
	return s.peek(steps[e.last], site.sub(e.last)), true, nil
}

func (s *SeqState) peek(n seqNode, key Site) string {
	i := 0
	switch n.kind {
	case nodeAlt:
		if a := s.alts[key]; a != nil {
			i = a.last
		}
	case nodeRand:
		if rd := s.rands[key]; rd != nil {
			i = rd.choice
		}
	default:
		return n.value
	}
	if i >= len(n.options) {
		i = 0
	}
	return s.peek(n.options[i], key.sub(i))
}

// Tog flips the toggle at site and returns a, b, a, b, ...
func (s *SeqState) Tog(site Site, a, b string) string {
	e := s.togs[site]
	if e == nil {
		e = &togEntry{}
		s.togs[site] = e
	}
	e.second = e.on
	e.on = !e.on
	if e.second {
		return b
	}
	return a
}

// PeekTog returns the last value the toggle produced. ok is false when
// it never ran.
func (s *SeqState) PeekTog(site Site, a, b string) (string, bool) {
	e := s.togs[site]
	if e == nil {
		return "", false
	}
	if e.second {
		return b, true
	}
	return a, true
}

// Eith picks a or b at random and records the choice.
func (s *SeqState) Eith(site Site, a, b string, r *rand.Rand) string {
	e := s.eiths[site]
	if e == nil {
		e = &eithEntry{}
		s.eiths[site] = e
	}
	e.second = r.Intn(2) == 1
	if e.second {
		return b
	}
	return a
}

// PeekEith returns the last value chosen. ok is false when it never ran.
func (s *SeqState) PeekEith(site Site, a, b string) (string, bool) {
	e := s.eiths[site]
	if e == nil {
		return "", false
	}
	if e.second {
		return b, true
	}
	return a, true
}

// Resolve replaces every SEQ, TOG and EITH in text with the value it
// produces now. base.Offset is the offset of text within its line.
func (s *SeqState) Resolve(text string, base Site, r *rand.Rand) (string, error) {
	return s.rewrite(text, base, func(op string, site Site, args []string) (string, bool, error) {
		switch op {
		case "SEQ":
			v, err := s.Seq(site, args[0], r)
			return v, true, err
		case "TOG":
			return s.Tog(site, args[0], args[1]), true, nil
		default:
			return s.Eith(site, args[0], args[1], r), true, nil
		}
	})
}

// Preview renders a whole normalized line with every stateful operator
// shown at the value it last produced. Operators that never ran or fail to
// parse stay as written.
func (s *SeqState) Preview(line string, slot, lineIdx int) string {
	var out strings.Builder
	for _, seg := range splitAny(line) {
		site := Site{Script: slot, Line: lineIdx, Offset: seg.Offset}
		text, err := s.rewrite(seg.Text, site, func(op string, site Site, args []string) (string, bool, error) {
			switch op {
			case "SEQ":
				return s.PeekSeq(site, args[0])
			case "TOG":
				v, ok := s.PeekTog(site, args[0], args[1])
				return v, ok, nil
			default:
				v, ok := s.PeekEith(site, args[0], args[1])
				return v, ok, nil
			}
		})
		if err != nil {
			text = seg.Text
		}
		out.WriteString(text)
		out.WriteString(seg.sep)
	}
	return out.String()
}

// opFunc produces the replacement for one operator. A false result leaves
// the operator as written.
type opFunc func(op string, site Site, args []string) (string, bool, error)

// rewrite scans text for stateful operators and substitutes fn's result.
// Untouched text keeps its original spacing.
func (s *SeqState) rewrite(text string, base Site, fn opFunc) (string, error) {
	toks := tokenizeOffsets(text)
	var out strings.Builder
	last := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		var arity int
		switch t.Text {
		case "SEQ":
			arity = 1
		case "TOG", "EITH":
			arity = 2
		default:
			continue
		}
		if i+arity >= len(toks) {
			return "", syntaxError(fmt.Sprintf("%s at %d", t.Text, t.Offset),
				fmt.Sprintf("%s NEEDS %d ARGUMENTS", t.Text, arity))
		}

		args := make([]string, arity)
		for j := range args {
			args[j] = toks[i+1+j].Text
		}
		if t.Text == "SEQ" {
			src, quoted := unquote(args[0])
			if !quoted {
				return "", syntaxError("unquoted SEQ pattern", `SEQ NEEDS A "QUOTED" PATTERN`)
			}
			args[0] = src
		}

		site := base
		site.Offset = base.Offset + t.Offset
		val, ok, err := fn(t.Text, site, args)
		if err != nil {
			return "", err
		}
		if !ok {
			i += arity
			continue
		}

		end := toks[i+arity]
		out.WriteString(text[last:t.Offset])
		out.WriteString(val)
		last = end.Offset + len(end.Text)
		i += arity
	}
	out.WriteString(text[last:])
	return out.String(), nil
}

type previewSegment struct {
	segment
	sep string
}

// splitAny splits a line on ':' and ';' outside quotes, keeping separators.
func splitAny(line string) []previewSegment {
	var segs []previewSegment
	inQuote := false
	start := 0
	for i := 0; i < len(line); i++ {
		switch c := line[i]; c {
		case '"':
			inQuote = !inQuote
		case ':', ';':
			if !inQuote {
				segs = append(segs, previewSegment{segment{line[start:i], start}, string(c)})
				start = i + 1
			}
		}
	}
	return append(segs, previewSegment{segment: segment{line[start:], start}})
}

// parseSeq parses a SEQ pattern and expands repeats into steps.
func parseSeq(src string) ([]seqNode, error) {
	p := &seqParser{src: src}
	steps, err := p.items(0)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, syntaxError("empty SEQ", "SEQ PATTERN IS EMPTY")
	}
	return steps, nil
}

type seqParser struct {
	src string
	pos int
}

// items parses until closing (0 for end of input).
func (p *seqParser) items(closing byte) ([]seqNode, error) {
	var nodes []seqNode
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			if closing != 0 {
				return nil, syntaxError(fmt.Sprintf("unclosed group in %q", p.src), "SEQ GROUP NOT CLOSED: MISSING "+string(closing))
			}
			return nodes, nil
		}

		c := p.src[p.pos]
		if c == closing {
			p.pos++
			return nodes, nil
		}

		var node seqNode
		switch c {
		case '<', '{':
			p.pos++
			node.kind = nodeAlt
			end := byte('>')
			if c == '{' {
				node.kind, end = nodeRand, '}'
			}
			opts, err := p.items(end)
			if err != nil {
				return nil, err
			}
			if len(opts) == 0 {
				return nil, syntaxError("empty group", "SEQ GROUP IS EMPTY")
			}
			node.options = opts
		case '>', '}', '*':
			return nil, syntaxError(fmt.Sprintf("unexpected %q in %q", c, p.src), "UNEXPECTED "+string(c)+" IN SEQ")
		default:
			node.kind = nodeLiteral
			node.value = p.literal()
		}

		n, err := p.repeat()
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			nodes = append(nodes, node)
		}
	}
}

func (p *seqParser) literal() string {
	start := p.pos
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || strings.IndexByte("<>{}*", c) >= 0:
			return p.src[start:p.pos]
		}
		p.pos++
	}
	return p.src[start:]
}

func (p *seqParser) repeat() (int, error) {
	if p.pos >= len(p.src) || p.src[p.pos] != '*' {
		return 1, nil
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil || n < 1 || n > maxRepeat {
		return 0, syntaxError(fmt.Sprintf("repeat %q", p.src[start:p.pos]), fmt.Sprintf("SEQ REPEAT MUST BE 1-%d", maxRepeat))
	}
	return n, nil
}

func (p *seqParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}
