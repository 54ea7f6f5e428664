package interp

import (
	"errors"
	"math/rand"
	"testing"
)

func site(script, line, off int) Site {
	return Site{Script: script, Line: line, Offset: off}
}

func runSeq(t *testing.T, s *SeqState, at Site, src string, n int) []string {
	t.Helper()
	r := rand.New(rand.NewSource(7))
	out := make([]string, n)
	for i := range out {
		v, err := s.Seq(at, src, r)
		if err != nil {
			t.Fatalf("Seq(%q): %v", src, err)
		}
		out[i] = v
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSeqSteps(t *testing.T) {
	tests := []struct {
		src  string
		n    int
		want []string
	}{
		{"1 2 3", 7, []string{"1", "2", "3", "1", "2", "3", "1"}},
		{"C4*2 E4", 6, []string{"C4", "C4", "E4", "C4", "C4", "E4"}},
		{"1 <2 3>", 6, []string{"1", "2", "1", "3", "1", "2"}},
		{"<1 2>*2 9", 6, []string{"1", "1", "9", "2", "2", "9"}},
		{"<a <b c>>", 6, []string{"a", "b", "a", "c", "a", "b"}},
	}
	for _, tt := range tests {
		got := runSeq(t, NewSeqState(), site(0, 0, 0), tt.src, tt.n)
		if !equal(got, tt.want) {
			t.Errorf("SEQ %q = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestSeqRandomGroup(t *testing.T) {
	s := NewSeqState()
	at := site(0, 0, 0)
	got := runSeq(t, s, at, "{1 2 3}", 200)
	seen := map[string]bool{}
	for _, v := range got {
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Fatalf("random group produced %v", seen)
	}

	peek, ok, err := s.PeekSeq(at, "{1 2 3}")
	if err != nil || !ok {
		t.Fatal(ok, err)
	}
	if peek != got[len(got)-1] {
		t.Errorf("PeekSeq = %q, last value %q", peek, got[len(got)-1])
	}
}

func TestSeqParseErrors(t *testing.T) {
	for _, src := range []string{"", "<1 2", "{}", "1*0", "1*", "1 > 2", "x*9999"} {
		_, err := NewSeqState().Seq(site(0, 0, 0), src, rand.New(rand.NewSource(1)))
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("Seq(%q) error = %v, want ErrSyntax", src, err)
		}
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	s := NewSeqState()
	at := site(1, 2, 3)
	r := rand.New(rand.NewSource(1))

	if v, ok, _ := s.PeekSeq(at, "5 6 7"); ok || v != "" {
		t.Fatalf("PeekSeq before first run = %q, %v", v, ok)
	}
	if s.Len() != 0 {
		t.Fatalf("peek created state")
	}

	s.Seq(at, "5 6 7", r)
	s.Seq(at, "5 6 7", r)
	for i := 0; i < 3; i++ {
		if v, _, _ := s.PeekSeq(at, "5 6 7"); v != "6" {
			t.Fatalf("PeekSeq = %q, want 6", v)
		}
	}
	if v, _ := s.Seq(at, "5 6 7", r); v != "7" {
		t.Errorf("Seq after peeks = %q, want 7", v)
	}
}

func TestTog(t *testing.T) {
	s := NewSeqState()
	a, b := site(0, 0, 0), site(0, 0, 12)

	if v, ok := s.PeekTog(a, "10", "20"); ok {
		t.Fatalf("PeekTog unseen = %q", v)
	}
	want := []string{"10", "20", "10", "20", "10"}
	for i, w := range want {
		if v := s.Tog(a, "10", "20"); v != w {
			t.Fatalf("Tog #%d = %q, want %q", i, v, w)
		}
		if v, _ := s.PeekTog(a, "10", "20"); v != w {
			t.Fatalf("PeekTog #%d = %q, want %q", i, v, w)
		}
	}

	// same literal arguments at another call-site start fresh
	if v := s.Tog(b, "10", "20"); v != "10" {
		t.Errorf("second site Tog = %q, want 10", v)
	}
}

func TestEith(t *testing.T) {
	s := NewSeqState()
	at := site(0, 0, 0)
	r := rand.New(rand.NewSource(3))
	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		v := s.Eith(at, "X", "Y", r)
		seen[v]++
		if p, _ := s.PeekEith(at, "X", "Y"); p != v {
			t.Fatalf("PeekEith = %q, last %q", p, v)
		}
	}
	if seen["X"] == 0 || seen["Y"] == 0 {
		t.Errorf("EITH never picked both sides: %v", seen)
	}
}

func TestResolve(t *testing.T) {
	s := NewSeqState()
	r := rand.New(rand.NewSource(1))
	base := site(0, 0, 0)

	line := `ADD TOG 1 2  SEQ "4 5"`
	for i, want := range []string{"ADD 1  4", "ADD 2  5", "ADD 1  4"} {
		got, err := s.Resolve(line, base, r)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("pass %d: Resolve = %q, want %q", i, got, want)
		}
	}

	// identical text on two lines keeps separate state
	s.Resolve("TOG 1 2", site(0, 1, 0), r)
	if got, _ := s.Resolve("TOG 1 2", site(0, 2, 0), r); got != "1" {
		t.Errorf("line 3 TOG = %q, want 1", got)
	}

	for _, bad := range []string{"TOG 1", `SEQ 1 2`, "EITH"} {
		if _, err := s.Resolve(bad, base, r); !errors.Is(err, ErrSyntax) {
			t.Errorf("Resolve(%q) error = %v", bad, err)
		}
	}
}

func TestPreviewMatchesExecution(t *testing.T) {
	ctx := NewContextWithRand(rand.New(rand.NewSource(1)))
	ctx.Scripts.SetLine(0, 0, `IF A == 0: PF SEQ "60 62 64"; VOL TOG 1 2`)

	if got := ctx.Preview(0, 0); got != `IF A == 0: PF SEQ "60 62 64"; VOL TOG 1 2` {
		t.Fatalf("Preview before run = %q", got)
	}

	ex := NewExecutor(ctx, recordDispatcher(t), nil, nil)
	ex.Execute(0, 0)
	if got := ctx.Preview(0, 0); got != `IF A == 0: PF 60; VOL 1` {
		t.Fatalf("Preview after one run = %q", got)
	}
	ex.Execute(0, 0)

	if got := ctx.Preview(0, 0); got != `IF A == 0: PF 62; VOL 2` {
		t.Errorf("Preview after two runs = %q", got)
	}
}
