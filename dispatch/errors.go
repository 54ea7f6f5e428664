package dispatch

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	// ErrUnknownCommand is returned for a word that is neither a command
	// nor an expression.
	ErrUnknownCommand = fault.New("unknown command")

	// ErrUsage means a command got the wrong number or kind of arguments.
	ErrUsage = fault.New("bad arguments")
)

func unknownCommand(name, suggestion string) error {
	issue := "UNKNOWN COMMAND: " + name
	if suggestion != "" {
		issue += " (DID YOU MEAN " + suggestion + "?)"
	}
	return fault.Wrap(ErrUnknownCommand,
		fmsg.WithDesc(fmt.Sprintf("command %q", name), issue),
		ftag.With(ftag.NotFound),
	)
}

func usage(cmd *command) error {
	return fault.Wrap(ErrUsage,
		fmsg.WithDesc("usage of "+cmd.name, "USAGE: "+cmd.usage),
		ftag.With(ftag.InvalidArgument),
	)
}

func invalid(internal, issue string) error {
	return fault.Wrap(ErrUsage, fmsg.WithDesc(internal, issue), ftag.With(ftag.InvalidArgument))
}
