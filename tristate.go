package versgen

// Tristate is a boolean that may be unknown. The zero value is Unknown so a
// signal that was never supplied can't be mistaken for false.
type Tristate int

const (
	Unknown Tristate = iota
	True
	False
)

// TristateOf lifts a known boolean
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// And is unknown whenever either side is unknown
func (t Tristate) And(o Tristate) Tristate {
	if t == Unknown || o == Unknown {
		return Unknown
	}
	return TristateOf(t == True && o == True)
}

// Known reports whether t carries a value
func (t Tristate) Known() bool {
	return t == True || t == False
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON renders unknown as null
func (t Tristate) MarshalJSON() ([]byte, error) {
	if !t.Known() {
		return []byte("null"), nil
	}
	return []byte(t.String()), nil
}
