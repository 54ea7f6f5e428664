package interp

import (
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	// ErrUnresolved means a token could not be read as an expression.
	ErrUnresolved = fault.New("unresolved expression")

	// ErrDivideByZero is returned by DIV and MOD with a zero divisor.
	ErrDivideByZero = fault.New("divide by zero")

	// ErrRecursion is reported when script calls nest too deeply or fan out
	// past the call budget.
	ErrRecursion = fault.New("script recursion limit exceeded")

	// ErrSyntax covers malformed lines: missing ':' or bad operator arguments.
	ErrSyntax = fault.New("syntax error")
)

func unresolved(internal, issue string) error {
	return fault.Wrap(ErrUnresolved, fmsg.WithDesc(internal, issue), ftag.With(ftag.InvalidArgument))
}

func syntaxError(internal, issue string) error {
	return fault.Wrap(ErrSyntax, fmsg.WithDesc(internal, issue), ftag.With(ftag.InvalidArgument))
}

// FormatError renders err as a single output line.
func FormatError(err error) string {
	issue := fmsg.GetIssue(err)
	if issue == "" {
		issue = strings.ToUpper(err.Error())
	}
	return "ERROR: " + issue
}
