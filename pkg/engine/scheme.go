package engine

import "fmt"

// Scheme selects the tiebreaker policy applied after score, per
// spec.md §3/§4.3.
type Scheme int

const (
	SchemeDefault Scheme = iota
	SchemePath
	SchemeHistory
)

// ParseScheme parses the --scheme flag value.
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "", "default":
		return SchemeDefault, nil
	case "path":
		return SchemePath, nil
	case "history":
		return SchemeHistory, nil
	default:
		return SchemeDefault, fmt.Errorf("unknown scheme %q: want default, path, or history", s)
	}
}

func (s Scheme) String() string {
	switch s {
	case SchemePath:
		return "path"
	case SchemeHistory:
		return "history"
	default:
		return "default"
	}
}
