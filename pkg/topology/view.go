package topology

import "fmt"

// View selects a subset of links, mirroring the emulator's /links/* endpoints.
type View string

const (
	ViewAll      View = "all"
	ViewROADM    View = "roadm"    // ROADM-ROADM only
	ViewTerminal View = "terminal" // terminal-ROADM only
	ViewRouter   View = "router"   // any link touching a router
)

// ParseView accepts "", "all", "roadm", "terminal" and "router".
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewROADM, ViewTerminal, ViewRouter:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown link view %q", s)
}

// Select returns the links that belong to view, in input order.
func Select(links []Link, kinds Kinds, view View) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		a, b := kinds.Of(l.NodeA), kinds.Of(l.NodeB)
		keep := false
		switch view {
		case ViewROADM:
			keep = a == KindROADM && b == KindROADM
		case ViewTerminal:
			keep = (a == KindTerminal && b == KindROADM) || (a == KindROADM && b == KindTerminal)
		case ViewRouter:
			keep = a == KindRouter || b == KindRouter
		default:
			keep = true
		}
		if keep {
			out = append(out, l)
		}
	}
	return out
}
