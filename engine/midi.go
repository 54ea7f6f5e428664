package engine

import (
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-monokit/debug"
)

// ErrNoPort is returned when the configured output port is missing.
var ErrNoPort = fault.New("midi output port not found")

// MIDIOutput drives a MIDI synth: parameters become control changes and
// triggers become a note on/off pair at the current pitch and velocity.
type MIDIOutput struct {
	portName string
	channel  uint8

	mu       sync.Mutex
	send     func(gomidi.Message) error
	open     func(portName string) (func(gomidi.Message) error, error)
	note     uint8
	velocity uint8
}

// NewMIDIOutput returns an output for portName on channel 1-16. The port
// is opened on first use so a synth can be plugged in after startup.
func NewMIDIOutput(portName string, channel int) *MIDIOutput {
	if channel < 1 || channel > 16 {
		channel = 1
	}
	return &MIDIOutput{
		portName: portName,
		channel:  uint8(channel - 1),
		open:     openPort,
		note:     60,
		velocity: 100,
	}
}

// PortName returns the configured port.
func (o *MIDIOutput) PortName() string {
	return o.portName
}

// Send implements Sink.
func (o *MIDIOutput) Send(msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch msg.Kind {
	case KindParam:
		switch msg.Param {
		case "PF":
			o.note = uint8(clamp7(msg.Value))
			return nil
		case "VEL":
			o.velocity = uint8(clamp7(msg.Value))
			return nil
		}
	}

	send, err := o.sender()
	if err != nil {
		return err
	}

	switch msg.Kind {
	case KindTrigger:
		if err := send(gomidi.NoteOn(o.channel, o.note, o.velocity)); err != nil {
			return fault.Wrap(err, fmsg.With("note on"))
		}
		if err := send(gomidi.NoteOff(o.channel, o.note)); err != nil {
			return fault.Wrap(err, fmsg.With("note off"))
		}
		debug.Log("engine", "trigger ch=%d note=%d vel=%d", o.channel+1, o.note, o.velocity)
	case KindParam:
		p, ok := LookupParam(msg.Param)
		if !ok || p.CC == 0 {
			return nil
		}
		v := p.Scale(msg.Value)
		if err := send(gomidi.ControlChange(o.channel, p.CC, v)); err != nil {
			return fault.Wrap(err, fmsg.With("control change"))
		}
		debug.Log("engine", "cc ch=%d cc=%d val=%d (%s %d)", o.channel+1, p.CC, v, msg.Param, msg.Value)
	}
	return nil
}

// sender returns the open port sender, opening it lazily. Callers hold mu.
func (o *MIDIOutput) sender() (func(gomidi.Message) error, error) {
	if o.send != nil {
		return o.send, nil
	}
	send, err := o.open(o.portName)
	if err != nil {
		return nil, err
	}
	o.send = send
	return send, nil
}

// Close forgets the open port; the next Send reopens it.
func (o *MIDIOutput) Close() {
	o.mu.Lock()
	o.send = nil
	o.mu.Unlock()
}

func openPort(portName string) (func(gomidi.Message) error, error) {
	for _, port := range gomidi.GetOutPorts() {
		if port.String() == portName {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, fault.Wrap(err, fmsg.WithDesc("open "+portName, "CANNOT OPEN MIDI PORT "+portName))
			}
			return send, nil
		}
	}
	return nil, missingPort(portName)
}

func missingPort(portName string) error {
	return fault.Wrap(ErrNoPort,
		fmsg.WithDesc(portName, "MIDI PORT NOT FOUND: "+portName),
		ftag.With(ftag.NotFound),
	)
}

func clamp7(v int16) int16 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}
