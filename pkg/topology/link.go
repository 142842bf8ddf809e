package topology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedLinkKey is returned when a link key is not of the form
	// "<node>/<port>-<node>/<port>".
	ErrMalformedLinkKey = errors.New("topology: malformed link key")

	// ErrMalformedLink is returned when a link list element does not name
	// exactly two node/port sides.
	ErrMalformedLink = errors.New("topology: malformed link")

	// ErrMalformedDocument is returned when a topology document is not valid JSON
	// or does not have the expected shape.
	ErrMalformedDocument = errors.New("topology: malformed document")
)

// Link is one physical link between two node ports.
// PortA is the port used when leaving NodeA, PortB the port used when leaving NodeB.
type Link struct {
	NodeA string
	PortA string
	NodeB string
	PortB string
}

// LinkID identifies a physical link independent of the orientation it was declared in.
type LinkID string

// ID returns the canonical identity of the link.
func (l Link) ID() LinkID {
	a := l.NodeA + "/" + l.PortA
	b := l.NodeB + "/" + l.PortB
	if b < a {
		a, b = b, a
	}
	return LinkID(a + "-" + b)
}

// Mirror returns the same link declared from the other side.
func (l Link) Mirror() Link {
	return Link{NodeA: l.NodeB, PortA: l.PortB, NodeB: l.NodeA, PortB: l.PortA}
}

// Connects reports whether the link joins a and b in either orientation.
func (l Link) Connects(a, b string) bool {
	return (l.NodeA == a && l.NodeB == b) || (l.NodeA == b && l.NodeB == a)
}

func (l Link) String() string {
	return l.NodeA + "/" + l.PortA + "-" + l.NodeB + "/" + l.PortB
}

// ParseLinkKey parses a key of the form "<node>/<port>-<node>/<port>".
//
// Node names may contain '-', ':' and '.' (ONOS device ids look like
// "rest:127.0.0.1:9001"), so the separator is the first '-' that follows a
// '/', and each half is split on its last '/'.
func ParseLinkKey(key string) (Link, error) {
	firstSlash := strings.IndexByte(key, '/')
	if firstSlash < 0 {
		return Link{}, fmt.Errorf("%w: %q", ErrMalformedLinkKey, key)
	}
	sep := strings.IndexByte(key[firstSlash:], '-')
	if sep < 0 {
		return Link{}, fmt.Errorf("%w: %q", ErrMalformedLinkKey, key)
	}
	sep += firstSlash

	nodeA, portA, okA := splitSide(key[:sep])
	nodeB, portB, okB := splitSide(key[sep+1:])
	if !okA || !okB || strings.Contains(portB, "-") {
		return Link{}, fmt.Errorf("%w: %q", ErrMalformedLinkKey, key)
	}

	return Link{NodeA: nodeA, PortA: portA, NodeB: nodeB, PortB: portB}, nil
}

func splitSide(side string) (node, port string, ok bool) {
	i := strings.LastIndexByte(side, '/')
	if i <= 0 || i == len(side)-1 {
		return "", "", false
	}
	return side[:i], side[i+1:], true
}

// Normalize collapses mirrored declarations of the same physical link into the
// first-seen tuple. Repeats in the same orientation are kept.
func Normalize(links []Link) []Link {
	out := make([]Link, 0, len(links))
	seen := make(map[LinkID]Link, len(links))
	for _, l := range links {
		if prev, ok := seen[l.ID()]; ok && prev != l && prev == l.Mirror() {
			continue
		}
		if _, ok := seen[l.ID()]; !ok {
			seen[l.ID()] = l
		}
		out = append(out, l)
	}
	return out
}
