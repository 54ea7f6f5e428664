package interp

import "testing"

func TestEvalCondition(t *testing.T) {
	env := testEnv(t)
	env.Vars.Set("A", 0, 5)

	tests := []struct {
		in   string
		want bool
	}{
		{"A == 5", true},
		{"IF A == 5", true},
		{"A != 5", false},
		{"A > 4", true},
		{"A>4", true},
		{"A>=5", true},
		{"A <= 4", false},
		{"A < ADD 2 4", true},
		{"ADD A 1 == 6", true},
		{"IF P.L == 16", true},
		{"-1 < 0", true},

		// malformed
		{"A 5", false},
		{"A ==", false},
		{"== 5", false},
		{"FOO == 1", false},
		{"A == 5 5", false},
		{"DIV 1 0 == 0", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := EvalCondition(tt.in, env); got != tt.want {
			t.Errorf("EvalCondition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op   string
		a, b int16
		want bool
	}{
		{">=", 3, 3, true},
		{"<=", 4, 3, false},
		{"!=", 1, 2, true},
		{"==", -1, -1, true},
		{">", 2, 1, true},
		{"<", 2, 1, false},
		{"=<", 1, 2, false},
	}
	for _, tt := range tests {
		if got := Compare(tt.op, tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %d, %d) = %v", tt.op, tt.a, tt.b, got)
		}
	}
}
