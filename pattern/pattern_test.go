package pattern

import (
	"errors"
	"testing"

	"github.com/Southclaws/fault/fmsg"
)

func TestSetLengthClamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{32, 32},
		{64, 64},
		{65, 64},
		{1000, 64},
	}
	for _, tt := range tests {
		p := New()
		p.SetLength(tt.in)
		if p.Length != tt.want {
			t.Errorf("SetLength(%d) = %d, want %d", tt.in, p.Length, tt.want)
		}
	}
}

func TestSetLengthPullsIndexBack(t *testing.T) {
	p := New()
	p.SetIndex(10)
	p.SetLength(4)
	if p.Index != 3 {
		t.Fatalf("index = %d, want 3", p.Index)
	}
}

func TestNextPrevWrap(t *testing.T) {
	p := New()
	p.SetLength(3)
	for i := 0; i < 3; i++ {
		p.Set(i, int16(10*(i+1)))
	}

	var got []int16
	for i := 0; i < 4; i++ {
		got = append(got, p.Next())
	}
	want := []int16{20, 30, 10, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Next sequence = %v, want %v", got, want)
		}
	}

	p.SetIndex(0)
	if v := p.Prev(); v != 30 || p.Index != 2 {
		t.Fatalf("Prev from 0 = %d (index %d), want 30 (index 2)", v, p.Index)
	}
}

func TestNegativeIndexCountsFromLength(t *testing.T) {
	p := New()
	p.SetLength(4)
	p.Set(3, 99)
	if v := p.Get(-1); v != 99 {
		t.Fatalf("Get(-1) = %d, want 99", v)
	}
	p.Set(200, 7)
	if p.Data[MaxLength-1] != 7 {
		t.Fatal("out of range index should clamp to the last slot")
	}
}

func TestStorageRange(t *testing.T) {
	s := NewStorage()
	if _, err := s.Get(Count); !errors.Is(err, ErrRange) {
		t.Fatalf("Get(%d) err = %v, want ErrRange", Count, err)
	}
	if err := s.SetWorking(-1); err == nil {
		t.Fatal("SetWorking(-1) should fail")
	} else if fmsg.GetIssue(err) == "" {
		t.Fatal("range error should carry a user-facing message")
	}
	if err := s.SetWorking(2); err != nil {
		t.Fatalf("SetWorking(2): %v", err)
	}
	if s.Current() != &s.Patterns[2] {
		t.Fatal("Current should return the working pattern")
	}
}

func TestNormalizeRepairsDecodedState(t *testing.T) {
	s := NewStorage()
	s.Patterns[1].Length = 0
	s.Patterns[1].Index = 9
	s.Working = 42
	s.Normalize()
	if s.Patterns[1].Length != 1 || s.Patterns[1].Index != 0 || s.Working != 0 {
		t.Fatalf("normalize left %+v working=%d", s.Patterns[1], s.Working)
	}
}
