package main

import (
	"context"
	"math/rand"
	"reflect"
	"testing"

	"go-monokit/engine"
	"go-monokit/interp"
	"go-monokit/metro"
	"go-monokit/sequencer"
)

func startManager(t *testing.T) *sequencer.Manager {
	t.Helper()
	clock := metro.NewClock(metro.NewState(metro.DefaultInterval, false), &engine.Recorder{})
	m := sequencer.NewManager(interp.NewContextWithRand(rand.New(rand.NewSource(1))), clock, sequencer.NewStore(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go m.Run(ctx)
	return m
}

func TestHandle(t *testing.T) {
	m := startManager(t)

	if out := handle(m, ":set 2 1 A 7"); len(out) != 0 {
		t.Fatalf(":set printed %q", out)
	}
	out := handle(m, ":show 2")
	if len(out) != interp.LinesPerScript+1 || out[0] != "#2" || out[1] != "1: A 7" {
		t.Errorf(":show = %q", out)
	}

	if out := handle(m, "ADD 2 3"); !reflect.DeepEqual(out, []string{"5"}) {
		t.Errorf("live = %q", out)
	}
	if out := handle(m, ":metro"); !reflect.DeepEqual(out, []string{"METRO ON"}) {
		t.Errorf(":metro = %q", out)
	}
	if out := handle(m, ":show 9"); len(out) != 1 || out[0] != "ERROR: NO SUCH SCRIPT: 9" {
		t.Errorf(":show 9 = %q", out)
	}
	if out := handle(m, ":clear 2"); !reflect.DeepEqual(out, []string{"CLEARED 2"}) {
		t.Errorf(":clear = %q", out)
	}
}

func TestCompleter(t *testing.T) {
	c := completer([]string{"ADD", "AD", "TR"})

	tests := []struct {
		line string
		want []string
	}{
		{"a", []string{"ADD", "AD"}},
		{"X ADD 1 t", []string{"X ADD 1 TR"}},
		{":sa", []string{":save", ":saves"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := c(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("complete(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
