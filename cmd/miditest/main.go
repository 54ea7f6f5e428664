package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-monokit/engine"
	"go-monokit/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "probe":
		err = probe(os.Args[2:])
	case "leds":
		err = testLEDs()
	case "watch":
		watch()
	default:
		usage()
	}
	if err != nil {
		msg := fmsg.GetIssue(err)
		if msg == "" {
			msg = err.Error()
		}
		fmt.Fprintln(os.Stderr, "Error:", msg)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("go-monokit MIDI checks")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List all MIDI ports")
	fmt.Println("  probe PORT [CH]    - Send a test trigger and a cutoff sweep to a synth")
	fmt.Println("  leds               - Light the script row on a Launchpad X")
	fmt.Println("  watch              - Print controllers as they connect and disconnect")
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		return nil
	case <-time.After(3 * time.Second):
		return fault.New("port listing timed out",
			fmsg.WithDesc("driver did not answer", "MIDI driver is hung (macOS: sudo killall coreaudiod midiserver)"))
	}
}

// probe drives a synth through the same output the interpreter uses.
func probe(args []string) error {
	if len(args) == 0 {
		return fault.New("missing port", fmsg.WithDesc("usage", "usage: miditest probe PORT [CHANNEL]"))
	}
	channel := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fault.Wrap(err, fmsg.With("parse channel"))
		}
		channel = n
	}

	out := engine.NewMIDIOutput(args[0], channel)
	defer out.Close()
	sink := engine.Tee(out, printSink{})

	steps := []engine.Message{
		engine.Set("VOL", 80),
		engine.Set("PF", 48),
		engine.Trigger(),
	}
	for _, hz := range []int16{200, 800, 3200, 12000} {
		steps = append(steps, engine.Set("FC", hz), engine.Trigger())
	}

	for _, msg := range steps {
		if err := sink.Send(msg); err != nil {
			return err
		}
		if msg.Kind == engine.KindTrigger {
			time.Sleep(250 * time.Millisecond)
		}
	}
	fmt.Println("Done")
	return nil
}

type printSink struct{}

func (printSink) Send(msg engine.Message) error {
	fmt.Println("  ->", msg)
	return nil
}

func testLEDs() error {
	var in drivers.In
	var out drivers.Out
	for _, p := range gomidi.GetInPorts() {
		if isLaunchpad(p.String()) {
			in = p
			break
		}
	}
	for _, p := range gomidi.GetOutPorts() {
		if isLaunchpad(p.String()) {
			out = p
			break
		}
	}
	if out == nil {
		return fault.New("no launchpad", fmsg.WithDesc("no output port", "No Launchpad found"))
	}

	lp, err := midi.NewLaunchpadController(out.String(), in, out)
	if err != nil {
		return err
	}
	defer lp.Close()

	fmt.Println("Lighting the script row...")
	for col := 0; col < 8; col++ {
		err := lp.SetLEDBatch([]midi.LEDUpdate{{Row: midi.ScriptRow, Col: col, Color: [3]uint8{0, 200, 60}, Channel: midi.ChannelStatic}})
		if err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("Press pads to see them, Enter to clear...")
	go func() {
		for ev := range lp.PadEvents() {
			a := midi.PadAction(ev)
			fmt.Printf("  pad row=%d col=%d -> %+v\n", ev.Row, ev.Col, a)
		}
	}()
	fmt.Scanln()
	return nil
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

func watch() {
	fmt.Println("Watching for controllers. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dm := midi.NewDeviceManager(nil, "")
	go dm.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-dm.Events():
			stamp := time.Now().Format("15:04:05")
			switch ev.Type {
			case midi.DeviceConnected:
				fmt.Printf("[%s] connected %s (%s)\n", stamp, ev.ID, ev.Controller.Type())
			case midi.DeviceDisconnected:
				fmt.Printf("[%s] disconnected %s\n", stamp, ev.ID)
			}
		}
	}
}
