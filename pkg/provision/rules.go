// Package provision turns computed light-paths into per-hop configuration
// calls and drives them against a configuration sink.
package provision

import (
	"context"
	"fmt"
)

// RoadmRule cross-connects channels between two ports of a ROADM.
type RoadmRule struct {
	Node     string
	Port1    string
	Port2    string
	Channels []int
	Remove   bool
}

// TerminalRule binds a client (eth) port to a line (wdm) port of a
// terminal on one channel.
type TerminalRule struct {
	Node    string
	EthPort string
	WDMPort string
	Channel int
	Power   float64
	Remove  bool
}

// Configurator applies rules to devices. Each call is independent; there is
// no transaction spanning several calls.
type Configurator interface {
	ConnectROADM(ctx context.Context, rule RoadmRule) error
	ConnectTerminal(ctx context.Context, rule TerminalRule) error
}

func (r RoadmRule) String() string {
	return fmt.Sprintf("roadm %s %s<->%s channels=%v%s", r.Node, r.Port1, r.Port2, r.Channels, removeSuffix(r.Remove))
}

func (r TerminalRule) String() string {
	return fmt.Sprintf("terminal %s eth=%s wdm=%s channel=%d power=%g%s", r.Node, r.EthPort, r.WDMPort, r.Channel, r.Power, removeSuffix(r.Remove))
}

func removeSuffix(remove bool) string {
	if remove {
		return " (remove)"
	}
	return ""
}
