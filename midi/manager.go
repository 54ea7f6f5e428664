package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-monokit/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// KeyboardPort names an input port to treat as a trigger keyboard. Match is
// a case-insensitive substring of the port name.
type KeyboardPort struct {
	Match   string
	Channel int // 0 = omni
}

// DeviceManager handles hot-plug detection of MIDI controllers
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	keyboards   []KeyboardPort
	ignore      string // our own output port, never a controller

	ports func() ([]drivers.In, []drivers.Out)
}

// NewDeviceManager creates a device manager. ignore is the engine's output
// port so a loopback of it is not picked up as a keyboard.
func NewDeviceManager(keyboards []KeyboardPort, ignore string) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		keyboards:   keyboards,
		ignore:      strings.ToLower(ignore),
		ports: func() ([]drivers.In, []drivers.Out) {
			return gomidi.GetInPorts(), gomidi.GetOutPorts()
		},
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

type portsResult struct {
	in  []drivers.In
	out []drivers.Out
}

func (dm *DeviceManager) scan() {
	// CoreMIDI can hang, so list ports with a timeout
	ch := make(chan portsResult, 1)
	go func() {
		in, out := dm.ports()
		ch <- portsResult{in: in, out: out}
	}()

	var ports portsResult
	select {
	case ports = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("devices", "port scan timed out")
		return
	}

	seen := make(map[string]bool)
	for _, inPort := range ports.in {
		id := inPort.String()
		kind, channel := dm.classify(id)
		if kind == ControllerUnknown {
			continue
		}
		seen[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(kind, id, inPort, channel, ports.out)
		if err != nil {
			debug.Log("devices", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()
	for id, c := range dm.controllers {
		if seen[id] {
			continue
		}
		c.Close()
		delete(dm.controllers, id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
}

func (dm *DeviceManager) open(kind ControllerType, id string, in drivers.In, channel int, outs []drivers.Out) (Controller, error) {
	if kind == ControllerKeyboard {
		return NewKeyboardController(id, in, channel)
	}

	var out drivers.Out
	for _, op := range outs {
		if strings.EqualFold(op.String(), id) {
			out = op
			break
		}
	}
	return NewLaunchpadController(id, in, out)
}

// classify decides what an input port is. Launchpads are detected by name;
// keyboards must be configured.
func (dm *DeviceManager) classify(portName string) (ControllerType, int) {
	name := strings.ToLower(portName)
	if dm.ignore != "" && name == dm.ignore {
		return ControllerUnknown, 0
	}
	if isLaunchpad(name) {
		return ControllerLaunchpad, 0
	}
	for _, kb := range dm.keyboards {
		if kb.Match != "" && strings.Contains(name, strings.ToLower(kb.Match)) {
			return ControllerKeyboard, kb.Channel
		}
	}
	return ControllerUnknown, 0
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}
