package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-monokit/pattern"
)

// Eval evaluates the prefix expression starting at tokens[start]. It
// returns the value and the number of tokens the expression used.
func Eval(tokens []string, start int, env *Env) (int16, int, error) {
	if start < 0 || start >= len(tokens) {
		return 0, 0, unresolved("expression ran out of tokens", "MISSING VALUE")
	}
	tok := tokens[start]

	if v, ok := env.Vars.Get(tok, env.Script); ok {
		return v, 1, nil
	}
	if v, ok := ParseLiteral(tok); ok {
		return v, 1, nil
	}

	switch tok {
	case "RND":
		limit, n, err := Eval(tokens, start+1, env)
		if err != nil {
			return 0, 0, err
		}
		if limit <= 0 {
			return 0, 1 + n, nil
		}
		return int16(env.Rand.Intn(int(limit))), 1 + n, nil

	case "RRND":
		lo, n1, err := Eval(tokens, start+1, env)
		if err != nil {
			return 0, 0, err
		}
		hi, n2, err := Eval(tokens, start+1+n1, env)
		if err != nil {
			return 0, 0, err
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		v := int(lo) + env.Rand.Intn(int(hi)-int(lo)+1)
		return int16(v), 1 + n1 + n2, nil

	case "ADD", "SUB", "MUL", "DIV", "MOD":
		a, n1, err := Eval(tokens, start+1, env)
		if err != nil {
			return 0, 0, err
		}
		b, n2, err := Eval(tokens, start+1+n1, env)
		if err != nil {
			return 0, 0, err
		}
		v, err := Arith(tok, a, b)
		if err != nil {
			return 0, 0, err
		}
		return v, 1 + n1 + n2, nil
	}

	return evalPattern(tokens, start, env)
}

// evalPattern handles the P and PN read family.
func evalPattern(tokens []string, start int, env *Env) (int16, int, error) {
	tok := tokens[start]
	ps := env.Patterns

	switch tok {
	case "P.HERE":
		return ps.Current().Here(), 1, nil
	case "P.NEXT":
		return ps.Current().Next(), 1, nil
	case "P.PREV":
		return ps.Current().Prev(), 1, nil
	case "P.I":
		return int16(ps.Current().Index), 1, nil
	case "P.L":
		return int16(ps.Current().Length), 1, nil
	case "P.N":
		return int16(ps.Working), 1, nil
	case "P":
		idx, n, err := Eval(tokens, start+1, env)
		if err != nil {
			return 0, 0, err
		}
		return ps.Current().Get(int(idx)), 1 + n, nil
	case "PN":
		p, n1, err := patternArg(tokens, start+1, env)
		if err != nil {
			return 0, 0, err
		}
		idx, n2, err := Eval(tokens, start+1+n1, env)
		if err != nil {
			return 0, 0, err
		}
		return p.Get(int(idx)), 1 + n1 + n2, nil
	case "PN.I", "PN.L", "PN.HERE", "PN.NEXT", "PN.PREV":
		p, n, err := patternArg(tokens, start+1, env)
		if err != nil {
			return 0, 0, err
		}
		var v int16
		switch tok {
		case "PN.I":
			v = int16(p.Index)
		case "PN.L":
			v = int16(p.Length)
		case "PN.HERE":
			v = p.Here()
		case "PN.NEXT":
			v = p.Next()
		case "PN.PREV":
			v = p.Prev()
		}
		return v, 1 + n, nil
	}

	return 0, 0, unresolved(fmt.Sprintf("token %q", tok), "UNKNOWN VALUE: "+tok)
}

func patternArg(tokens []string, start int, env *Env) (*pattern.Pattern, int, error) {
	n, used, err := Eval(tokens, start, env)
	if err != nil {
		return nil, 0, err
	}
	p, err := env.Patterns.Get(int(n))
	if err != nil {
		return nil, 0, err
	}
	return p, used, nil
}

// EvalAll evaluates tokens as exactly one expression.
func EvalAll(tokens []string, env *Env) (int16, error) {
	if len(tokens) == 0 {
		return 0, unresolved("empty expression", "MISSING VALUE")
	}
	v, n, err := Eval(tokens, 0, env)
	if err != nil {
		return 0, err
	}
	if n != len(tokens) {
		return 0, unresolved(fmt.Sprintf("%d trailing tokens", len(tokens)-n), "EXTRA TOKENS: "+tokens[n])
	}
	return v, nil
}

// ParseLiteral reads a signed integer; values beyond int16 saturate.
func ParseLiteral(tok string) (int16, bool) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			if len(tok) > 0 && tok[0] == '-' {
				return math.MinInt16, true
			}
			return math.MaxInt16, true
		}
		return 0, false
	}
	return Saturate(int(n)), true
}

// Arith applies a binary operator. ADD, SUB and MUL saturate at the int16
// bounds; DIV and MOD fail on a zero divisor.
func Arith(op string, a, b int16) (int16, error) {
	switch op {
	case "ADD":
		return Saturate(int(a) + int(b)), nil
	case "SUB":
		return Saturate(int(a) - int(b)), nil
	case "MUL":
		return Saturate(int(a) * int(b)), nil
	case "DIV":
		if b == 0 {
			return 0, divideByZero()
		}
		return Saturate(int(a) / int(b)), nil
	case "MOD":
		if b == 0 {
			return 0, divideByZero()
		}
		return Saturate(int(a) % int(b)), nil
	}
	return 0, unresolved("operator "+op, "UNKNOWN OPERATOR: "+op)
}

func divideByZero() error {
	return fault.Wrap(ErrDivideByZero, fmsg.WithDesc("zero divisor", "DIVIDE BY ZERO"))
}

// Saturate clamps v into the int16 range.
func Saturate(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

var expressionWords = map[string]bool{
	"RND": true, "RRND": true,
	"ADD": true, "SUB": true, "MUL": true, "DIV": true, "MOD": true,
	"P": true, "P.HERE": true, "P.NEXT": true, "P.PREV": true, "P.I": true, "P.L": true, "P.N": true,
	"PN": true, "PN.HERE": true, "PN.NEXT": true, "PN.PREV": true, "PN.I": true, "PN.L": true,
}

// ExpressionWords lists the operator and pattern words, sorted.
func ExpressionWords() []string {
	words := make([]string, 0, len(expressionWords))
	for w := range expressionWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// IsExpressionWord reports whether tok can start an expression.
func IsExpressionWord(tok string) bool {
	if expressionWords[tok] || IsRegister(tok) {
		return true
	}
	_, ok := ParseLiteral(tok)
	return ok
}
