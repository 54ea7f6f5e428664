// Command monorepl is a line-mode front end for machines without a full
// terminal UI. It shares the interpreter, scenes and engine output with the
// main program.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/peterh/liner"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-monokit/config"
	"go-monokit/debug"
	"go-monokit/engine"
	"go-monokit/interp"
	"go-monokit/metro"
	"go-monokit/sequencer"
)

const historyFile = "repl_history"

var replHelp = []string{
	":show N             print script N",
	":set N L TEXT       store TEXT in line L of script N",
	":run N              run script N",
	":metro              toggle the metro",
	":quit               exit",
}

func main() {
	port := flag.String("port", "", "MIDI output port (overrides config)")
	scene := flag.String("scene", "", "scene to load at startup")
	verbose := flag.Bool("v", false, "print every engine message")
	flag.Parse()

	if err := run(*port, *scene, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, interp.FormatError(err))
		os.Exit(1)
	}
}

func run(port, scene string, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Engine.PortName = port
	}
	if verbose {
		debug.SetOutput(os.Stderr)
	}

	var sink engine.Sink = engine.LogSink{}
	if cfg.Engine.PortName != "" {
		out := engine.NewMIDIOutput(cfg.Engine.PortName, cfg.Engine.Channel)
		defer out.Close()
		sink = engine.Tee(out, engine.LogSink{})
	}

	store, err := sequencer.DefaultStore()
	if err != nil {
		return err
	}

	clock := metro.NewClock(metro.NewState(cfg.Metro.IntervalMS, cfg.Metro.Active), sink)
	manager := sequencer.NewManager(interp.NewContext(), clock, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	if scene != "" {
		if err := manager.LoadScene(scene, ""); err != nil {
			return err
		}
	}

	return repl(manager)
}

func repl(manager *sequencer.Manager) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	words := append(manager.Dispatcher().Names(), interp.ExpressionWords()...)
	ln.SetCompleter(completer(append(words, interp.RegisterNames()...)))

	histPath := ""
	if dir, err := config.ConfigDir(); err == nil {
		histPath = filepath.Join(dir, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("go-monokit repl. :help for commands, :quit to exit.")

	for {
		line, err := ln.Prompt("> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fault.Wrap(err, fmsg.With("read line"))
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if line == ":quit" || line == ":q" {
			return nil
		}
		for _, out := range handle(manager, line) {
			fmt.Println(out)
		}
	}
}

// handle runs the repl's own commands, then colon commands, then the
// interpreter.
func handle(manager *sequencer.Manager, line string) []string {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		return append(append([]string{}, replHelp...), sequencer.MetaHelp...)

	case ":show":
		slot, err := slotArg(fields, 1)
		if err != nil {
			return []string{interp.FormatError(err)}
		}
		view := manager.Snapshot()
		out := []string{"#" + interp.SlotName(slot)}
		for i, text := range view.Scripts[slot].Lines {
			out = append(out, fmt.Sprintf("%d: %s", i+1, text))
		}
		return out

	case ":set":
		slot, err := slotArg(fields, 1)
		if err != nil {
			return []string{interp.FormatError(err)}
		}
		if len(fields) < 3 {
			return []string{"ERROR: USAGE: :set N L TEXT"}
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return []string{"ERROR: BAD LINE NUMBER: " + fields[2]}
		}
		text := strings.Join(fields[3:], " ")
		if err := manager.SetLine(slot, n-1, text); err != nil {
			return []string{interp.FormatError(err)}
		}
		return nil

	case ":run":
		slot, err := slotArg(fields, 1)
		if err != nil {
			return []string{interp.FormatError(err)}
		}
		manager.RunScript(slot)
		return nil

	case ":metro":
		manager.ToggleMetro()
		if manager.Snapshot().Metro.Active {
			return []string{"METRO ON"}
		}
		return []string{"METRO OFF"}
	}

	if out, ok := manager.Meta(line); ok {
		return out
	}
	return manager.Execute(line)
}

func slotArg(fields []string, i int) (int, error) {
	if len(fields) <= i {
		return 0, fault.New("missing script", fmsg.WithDesc("no script argument", "MISSING SCRIPT NUMBER"))
	}
	slot, ok := interp.ParseSlot(strings.ToUpper(fields[i]))
	if !ok {
		return 0, fault.New("bad script", fmsg.WithDesc(fields[i], "NO SUCH SCRIPT: "+fields[i]))
	}
	return slot, nil
}

// completer offers command names for the last word typed.
func completer(names []string) liner.Completer {
	words := append(append([]string{}, names...), ":help", ":show", ":set", ":run", ":metro", ":quit",
		":save", ":load", ":scenes", ":saves", ":rename", ":delete", ":clear", ":stats")
	return func(line string) []string {
		start := strings.LastIndexAny(line, " :") + 1
		if strings.HasPrefix(line, ":") && !strings.Contains(line, " ") {
			start = 0
		}
		prefix := strings.ToUpper(line[start:])
		if start == 0 && strings.HasPrefix(line, ":") {
			prefix = strings.ToLower(line)
		}
		var out []string
		for _, w := range words {
			if prefix != "" && strings.HasPrefix(w, prefix) {
				out = append(out, line[:start]+w)
			}
		}
		return out
	}
}
