// Package engine is the boundary to the sound engine. Scripts only ever
// produce Messages; a Sink decides how they reach a synth.
package engine

import (
	"fmt"
	"sync"

	"go-monokit/debug"
)

// Kind says what a Message does.
type Kind uint8

const (
	// KindParam sets a voice parameter.
	KindParam Kind = iota
	// KindTrigger fires the voice.
	KindTrigger
)

// Message is one parameter update or trigger.
type Message struct {
	Kind  Kind
	Param string // parameter name, empty for triggers
	Value int16
}

func (m Message) String() string {
	if m.Kind == KindTrigger {
		return "TR"
	}
	return fmt.Sprintf("%s %d", m.Param, m.Value)
}

// Trigger returns a trigger message.
func Trigger() Message {
	return Message{Kind: KindTrigger}
}

// Set returns a parameter message.
func Set(param string, v int16) Message {
	return Message{Kind: KindParam, Param: param, Value: v}
}

// Sink receives engine messages.
type Sink interface {
	Send(Message) error
}

// Discard drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Send(Message) error { return nil }

// Recorder keeps every message it receives. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

// Send records msg.
func (r *Recorder) Send(msg Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Reset forgets recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}

// LogSink writes messages to the debug log.
type LogSink struct{}

// Send logs msg under the "engine" category.
func (LogSink) Send(msg Message) error {
	debug.Log("engine", "%s", msg)
	return nil
}

// Tee sends every message to each sink in turn and returns the first error.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) Send(msg Message) error {
	var first error
	for _, s := range t {
		if err := s.Send(msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
