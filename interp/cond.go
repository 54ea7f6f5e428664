package interp

import (
	"fmt"
	"strings"
)

// Two-character operators come first so they win over their prefixes.
var compareOps = []string{">=", "<=", "!=", "==", ">", "<"}

// EvalCondition evaluates "[IF] left OP right". Malformed text is false.
func EvalCondition(text string, env *Env) bool {
	ok, err := evalCondition(text, env)
	return err == nil && ok
}

func evalCondition(text string, env *Env) (bool, error) {
	s := strings.TrimSpace(text)
	if s == "IF" || strings.HasPrefix(s, "IF ") {
		s = strings.TrimSpace(s[2:])
	}

	left, op, right, found := splitComparison(s)
	if !found {
		return false, syntaxError(fmt.Sprintf("condition %q", text), "NO COMPARISON IN: "+s)
	}

	l, err := EvalAll(Tokenize(left), env)
	if err != nil {
		return false, err
	}
	r, err := EvalAll(Tokenize(right), env)
	if err != nil {
		return false, err
	}
	return Compare(op, l, r), nil
}

// splitComparison finds the comparison operator, preferring a standalone
// token and falling back to the earliest embedded one (A>5).
func splitComparison(s string) (left, op, right string, found bool) {
	for _, t := range tokenizeOffsets(s) {
		for _, candidate := range compareOps {
			if t.Text == candidate {
				return s[:t.Offset], candidate, s[t.Offset+len(candidate):], true
			}
		}
	}

	best := -1
	for _, candidate := range compareOps {
		if i := strings.Index(s, candidate); i >= 0 && (best < 0 || i < best) {
			best, op = i, candidate
		}
	}
	if best < 0 {
		return "", "", "", false
	}
	return s[:best], op, s[best+len(op):], true
}

// Compare applies a comparison operator.
func Compare(op string, a, b int16) bool {
	switch op {
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	case "!=":
		return a != b
	case "==":
		return a == b
	case ">":
		return a > b
	case "<":
		return a < b
	}
	return false
}
