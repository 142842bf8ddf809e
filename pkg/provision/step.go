package provision

import (
	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// DefaultClientPort is used as the eth port of a terminal that is itself
// the end of the path and so has no client-side hop.
const DefaultClientPort = "1"

// Step is one configuration call. Exactly one of Roadm and Terminal is set.
type Step struct {
	Hop      lightpath.Hop
	Roadm    *RoadmRule
	Terminal *TerminalRule
}

// Kind returns "roadm" or "terminal".
func (s Step) Kind() string {
	if s.Roadm != nil {
		return topology.KindROADM.String()
	}
	return topology.KindTerminal.String()
}

// Action returns "remove" for tear-down steps and "connect" otherwise.
func (s Step) Action() string {
	if (s.Roadm != nil && s.Roadm.Remove) || (s.Terminal != nil && s.Terminal.Remove) {
		return "remove"
	}
	return "connect"
}

func (s Step) String() string {
	if s.Roadm != nil {
		return s.Roadm.String()
	}
	if s.Terminal != nil {
		return s.Terminal.String()
	}
	return "empty step"
}

// Plan derives the configuration steps for path on channel.
//
// Every ROADM with both ports resolved gets a cross-connect. Terminals get a
// transponder rule whose wdm port is the one facing the ROADM side and whose
// eth port is the other one, because client and line ports are fixed by
// hardware, not by direction of travel. So the near-end terminal binds
// eth=in, wdm=out and the far-end terminal the swapped eth=out, wdm=in. A
// terminal with no client-side hop takes clientPort as its eth port.
// Routers get nothing.
func Plan(path *lightpath.Path, channel int, power float64, clientPort string, remove bool) []Step {
	if path == nil {
		return nil
	}
	if clientPort == "" {
		clientPort = DefaultClientPort
	}

	steps := make([]Step, 0, len(path.Hops))
	seenTerminal := false
	for i, hop := range path.Hops {
		switch hop.Kind {
		case topology.KindROADM:
			if hop.InPort == "" || hop.OutPort == "" {
				continue
			}
			steps = append(steps, Step{Hop: hop, Roadm: &RoadmRule{
				Node:     hop.Node,
				Port1:    hop.InPort,
				Port2:    hop.OutPort,
				Channels: []int{channel},
				Remove:   remove,
			}})

		case topology.KindTerminal:
			eth, wdm := terminalPorts(path.Hops, i, seenTerminal)
			seenTerminal = true
			if eth == "" {
				eth = clientPort
			}
			if wdm == "" {
				continue
			}
			steps = append(steps, Step{Hop: hop, Terminal: &TerminalRule{
				Node:    hop.Node,
				EthPort: eth,
				WDMPort: wdm,
				Channel: channel,
				Power:   power,
				Remove:  remove,
			}})
		}
	}
	return steps
}

// terminalPorts returns the eth and wdm ports of the terminal at hops[i].
// The wdm port faces the neighbouring ROADM. With no ROADM on either side
// the first terminal on the path is taken as the near end.
func terminalPorts(hops []lightpath.Hop, i int, seenTerminal bool) (eth, wdm string) {
	hop := hops[i]
	switch {
	case i+1 < len(hops) && hops[i+1].Kind == topology.KindROADM:
		return hop.InPort, hop.OutPort
	case i > 0 && hops[i-1].Kind == topology.KindROADM:
		return hop.OutPort, hop.InPort
	case seenTerminal:
		return hop.OutPort, hop.InPort
	default:
		return hop.InPort, hop.OutPort
	}
}
