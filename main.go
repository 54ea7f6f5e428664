package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-monokit/config"
	"go-monokit/debug"
	"go-monokit/engine"
	"go-monokit/interp"
	"go-monokit/metro"
	"go-monokit/midi"
	"go-monokit/sequencer"
	"go-monokit/theme"
	"go-monokit/tui"
)

func main() {
	debugLog := flag.Bool("debug", false, "write ~/.config/go-monokit/debug.log")
	scene := flag.String("scene", "", "scene to load (default: last scene)")
	flag.Parse()

	if err := run(*debugLog, *scene); err != nil {
		fmt.Println(interp.FormatError(err))
		os.Exit(1)
	}
}

func run(debugLog bool, scene string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if debugLog {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}

	th := theme.New(theme.LoadOrDefault(cfg.UI.Palette))

	// Engine messages go to the synth when one is configured and always to
	// the debug log.
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

	if scene == "" {
		scene = cfg.UI.LastScene
	}
	if scene != "" {
		if err := manager.LoadScene(scene, ""); err != nil {
			manager.Log(interp.FormatError(err))
		}
	}

	// Device manager handles hot-plug of launchpads and trigger keyboards
	deviceMgr := midi.NewDeviceManager(keyboardPorts(cfg), cfg.Engine.PortName)
	go deviceMgr.Run(ctx)

	m := tui.NewModel(manager, deviceMgr, cfg, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	if name := manager.Snapshot().Scene; name != "" && name != cfg.UI.LastScene {
		cfg.UI.LastScene = name
		if err := cfg.Save(); err != nil {
			debug.Log("config", "save: %v", err)
		}
	}
	return nil
}

func keyboardPorts(cfg *config.Config) []midi.KeyboardPort {
	var ports []midi.KeyboardPort
	for _, c := range cfg.AutoConnectControllers() {
		if c.Type != config.ControllerKeyboard || strings.TrimSpace(c.PortName) == "" {
			continue
		}
		ports = append(ports, midi.KeyboardPort{Match: c.PortName, Channel: c.InputChannel})
	}
	return ports
}
