package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dd0wney/cluso-lightpath/pkg/algorithms"
	"github.com/dd0wney/cluso-lightpath/pkg/emulator"
	"github.com/dd0wney/cluso-lightpath/pkg/health"
	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
	"github.com/dd0wney/cluso-lightpath/pkg/provision"
	"github.com/dd0wney/cluso-lightpath/pkg/pubsub"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderLinks(links []topology.Link, kinds topology.Kinds) string {
	t := newTable("#", "Node A", "Port", "Node B", "Port", "Kinds")
	for i, l := range links {
		t.Row(strconv.Itoa(i+1), l.NodeA, l.PortA, l.NodeB, l.PortB,
			kinds.Of(l.NodeA).String()+"-"+kinds.Of(l.NodeB).String())
	}
	return titleStyle.Render(fmt.Sprintf("%d links", len(links))) + "\n" + t.String()
}

func renderPath(path *lightpath.Path) string {
	t := newTable("Hop", "Node", "Kind", "In", "Out")
	for i, h := range path.Hops {
		t.Row(strconv.Itoa(i), h.Node, h.Kind.String(), orDash(h.InPort), orDash(h.OutPort))
	}
	title := fmt.Sprintf("%s -> %s, %d hops", path.Source, path.Destination, path.HopCount())
	return titleStyle.Render(title) + "\n" + t.String()
}

func renderSteps(steps []provision.Step) string {
	if len(steps) == 0 {
		return dimStyle.Render("no device steps")
	}
	t := newTable("Node", "Kind", "Action", "Rule")
	for _, s := range steps {
		t.Row(s.Hop.Node, s.Kind(), s.Action(), s.String())
	}
	return t.String()
}

func renderFlow(flow *provision.Flow) string {
	var b strings.Builder
	b.WriteString(renderPath(flow.Path))
	b.WriteString("\n")
	fmt.Fprintf(&b, "flow %s channel %d power %g dBm: ", flow.ID, flow.Channel, flow.Power)
	b.WriteString(flowResult(flow))
	return b.String()
}

func renderFlows(flows []*provision.Flow) string {
	t := newTable("Source", "Destination", "Channel", "Hops", "Result")
	for _, f := range flows {
		hops := "-"
		if f.Path != nil {
			hops = strconv.Itoa(f.Path.HopCount())
		}
		t.Row(f.Source, f.Destination, strconv.Itoa(f.Channel), hops, flowResult(f))
	}
	return t.String()
}

func flowResult(f *provision.Flow) string {
	switch {
	case f.Skipped != nil:
		return warnStyle.Render("skipped: " + f.Skipped.Error())
	case f.Report == nil:
		return dimStyle.Render("planned")
	case f.Report.OK():
		return successStyle.Render(fmt.Sprintf("applied %d steps", len(f.Report.Applied)))
	default:
		return errorStyle.Render(fmt.Sprintf("%d of %d steps failed", len(f.Report.Failed), len(f.Report.Failed)+len(f.Report.Applied)))
	}
}

func renderEvent(ev pubsub.Event) string {
	switch ev.Topic {
	case pubsub.TopicFlowPlanned:
		return dimStyle.Render(fmt.Sprintf("planned %s on channel %d", ev.Node, ev.Channel))
	case pubsub.TopicStepApplied:
		return successStyle.Render("ok") + fmt.Sprintf("   %s %s", ev.Kind, ev.Node)
	case pubsub.TopicStepFailed:
		return errorStyle.Render("fail") + fmt.Sprintf(" %s %s: %s", ev.Kind, ev.Node, ev.Err)
	case pubsub.TopicFlowDone:
		if ev.Err != "" {
			return warnStyle.Render("flow " + ev.Flow + " finished with errors")
		}
		return dimStyle.Render("flow " + ev.Flow + " done")
	}
	return string(ev.Topic)
}

func renderMonitors(monitors []emulator.MonitorInfo) string {
	t := newTable("Monitor", "Link", "Amplifier", "Target gain (dB)")
	for _, m := range monitors {
		t.Row(m.Name, m.Link[0]+" -> "+m.Link[1], orDash(m.Amplifier), strconv.FormatFloat(m.TargetGain, 'f', 2, 64))
	}
	return t.String()
}

func renderDistances(source string, dist map[string]int, kinds topology.Kinds) string {
	nodes := make([]string, 0, len(dist))
	for n := range dist {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if dist[nodes[i]] != dist[nodes[j]] {
			return dist[nodes[i]] < dist[nodes[j]]
		}
		return nodes[i] < nodes[j]
	})

	t := newTable("Node", "Kind", "Hops")
	for _, n := range nodes {
		t.Row(n, kinds.Of(n).String(), strconv.Itoa(dist[n]))
	}
	return titleStyle.Render(fmt.Sprintf("reachable from %s", source)) + "\n" + t.String()
}

func renderComponents(components []algorithms.Component) string {
	t := newTable("#", "Size", "Nodes")
	for _, c := range components {
		t.Row(strconv.Itoa(c.ID), strconv.Itoa(c.Size), strings.Join(c.Nodes, " "))
	}
	title := fmt.Sprintf("%d components", len(components))
	if len(components) > 1 {
		return warnStyle.Render(title) + "\n" + t.String()
	}
	return titleStyle.Render(title) + "\n" + t.String()
}

func renderHealth(report health.Report) string {
	names := make([]string, 0, len(report.Checks))
	for n := range report.Checks {
		names = append(names, n)
	}
	sort.Strings(names)

	t := newTable("Check", "Status", "Message", "Took")
	for _, n := range names {
		c := report.Checks[n]
		t.Row(n, statusStyle(c.Status).Render(string(c.Status)), c.Message, c.Duration.Round(time.Millisecond).String())
	}
	return t.String()
}

func statusStyle(s health.Status) lipgloss.Style {
	switch s {
	case health.StatusHealthy:
		return successStyle
	case health.StatusDegraded:
		return warnStyle
	default:
		return errorStyle
	}
}

// renderDemoTopology draws the network installed by default-topo.
func renderDemoTopology() string {
	const drawing = `
  h1 - s1 - t1 = r1 --- r2 --- r3 = t3 - s3 - h3
                        ||
                        t2 - s2 - h2`
	return titleStyle.Render("demo topology") + dimStyle.Render(drawing)
}

func renderJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

// renderError formats a command failure with the pipeline stage, if any.
func renderError(err error) string {
	if stage := lightpath.StageOf(err); stage != "" {
		var se *lightpath.StageError
		errors.As(err, &se)
		return errorStyle.Render("error ["+string(stage)+"]") + " " + se.Err.Error()
	}
	return errorStyle.Render("error") + " " + err.Error()
}

// exitCode maps a failure to a process exit status, one per stage.
func exitCode(err error) int {
	switch lightpath.StageOf(err) {
	case lightpath.StageFetch:
		return 2
	case lightpath.StageFlatten:
		return 3
	case lightpath.StageSolve:
		return 4
	case lightpath.StageReconstruct:
		return 5
	case lightpath.StageProvision:
		return 6
	}
	return 1
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
