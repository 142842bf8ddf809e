package topology

import "strings"

// NodeKind tags a node with its role in the optical plane.
type NodeKind int

const (
	// KindUnknown is the zero value; lookups fall back to the name prefix.
	KindUnknown NodeKind = iota
	// KindROADM cross-connects channels between two line ports
	KindROADM
	// KindTerminal translates between client and line ports
	KindTerminal
	// KindRouter is any packet node outside the optical plane
	KindRouter
)

func (k NodeKind) String() string {
	switch k {
	case KindROADM:
		return "roadm"
	case KindTerminal:
		return "terminal"
	case KindRouter:
		return "router"
	default:
		return "unknown"
	}
}

// KindFromName derives a kind from the emulator naming convention:
// "r..." is a ROADM, "t..." a terminal, anything else a router.
func KindFromName(name string) NodeKind {
	switch {
	case strings.HasPrefix(name, "r"):
		return KindROADM
	case strings.HasPrefix(name, "t"):
		return KindTerminal
	default:
		return KindRouter
	}
}

// KindFromClass maps a class or driver name reported by the emulator or the
// controller ("ROADM", "Terminal", "opticalemulator-roadm-rest", "OVSSwitch")
// to a kind.
func KindFromClass(class string) NodeKind {
	c := strings.ToLower(strings.TrimSpace(class))
	switch {
	case c == "":
		return KindUnknown
	case strings.Contains(c, "roadm"):
		return KindROADM
	case strings.Contains(c, "terminal"):
		return KindTerminal
	default:
		return KindRouter
	}
}

// Kinds holds the explicit kind of each node known to the topology source.
type Kinds map[string]NodeKind

// Of returns the declared kind of name, or the prefix convention if the
// source did not declare it.
func (k Kinds) Of(name string) NodeKind {
	if kind, ok := k[name]; ok && kind != KindUnknown {
		return kind
	}
	return KindFromName(name)
}

// Merge copies every declared kind from other into k.
func (k Kinds) Merge(other Kinds) {
	for name, kind := range other {
		if kind != KindUnknown {
			k[name] = kind
		}
	}
}
