package interp

// Global registers, shared by every script. I doubles as the loop variable.
var globalNames = [...]string{"A", "B", "C", "D", "X", "Y", "Z", "T", "I"}

// Local registers, one pair per script slot.
var localNames = [...]string{"J", "K"}

// Variables is the register bank.
type Variables struct {
	Global [len(globalNames)]int16          `json:"global"`
	Local  [NumSlots][len(localNames)]int16 `json:"local"`
}

// NewVariables returns a zeroed register bank.
func NewVariables() *Variables {
	return &Variables{}
}

// IsRegister reports whether name is a register.
func IsRegister(name string) bool {
	return globalIndex(name) >= 0 || localIndex(name) >= 0
}

// RegisterNames lists every register, globals first.
func RegisterNames() []string {
	names := make([]string, 0, len(globalNames)+len(localNames))
	names = append(names, globalNames[:]...)
	return append(names, localNames[:]...)
}

// Ref returns the storage for a register as seen from slot, or nil.
func (v *Variables) Ref(name string, slot int) *int16 {
	if i := globalIndex(name); i >= 0 {
		return &v.Global[i]
	}
	if i := localIndex(name); i >= 0 && slot >= 0 && slot < NumSlots {
		return &v.Local[slot][i]
	}
	return nil
}

// Get reads a register.
func (v *Variables) Get(name string, slot int) (int16, bool) {
	r := v.Ref(name, slot)
	if r == nil {
		return 0, false
	}
	return *r, true
}

// Set writes a register; it reports false for unknown names.
func (v *Variables) Set(name string, slot int, val int16) bool {
	r := v.Ref(name, slot)
	if r == nil {
		return false
	}
	*r = val
	return true
}

func globalIndex(name string) int {
	for i, n := range globalNames {
		if n == name {
			return i
		}
	}
	return -1
}

func localIndex(name string) int {
	for i, n := range localNames {
		if n == name {
			return i
		}
	}
	return -1
}
