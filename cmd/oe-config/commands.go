package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-lightpath/pkg/algorithms"
	"github.com/dd0wney/cluso-lightpath/pkg/controller"
	"github.com/dd0wney/cluso-lightpath/pkg/health"
	"github.com/dd0wney/cluso-lightpath/pkg/linkgraph"
	"github.com/dd0wney/cluso-lightpath/pkg/provision"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
	"github.com/dd0wney/cluso-lightpath/pkg/validation"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "oe-config",
		Short:         "Optical emulator light-path provisioning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", "", "YAML configuration file")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&a.flags.emulator, "emulator", "", "emulator REST URL")
	pf.StringVar(&a.flags.controller, "controller", "", "ONOS network configuration URL")
	pf.StringVar(&a.flags.source, "source", "", "topology source: emulator, controller or file")
	pf.StringVar(&a.flags.file, "file", "", "YAML topology file (implies --source file)")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "do not stream provisioning progress")

	root.AddCommand(
		a.addFlowCmd(),
		a.removeFlowCmd(),
		a.pathCmd(),
		a.meshCmd(),
		a.showLinksCmd(),
		a.roadmCmd(),
		a.terminalCmd(),
		a.nodeCmd("reset", "Clear every rule on a node", a.reset),
		a.nodeCmd("rules", "Show the rules installed on a node", a.rules),
		a.nodeCmd("ports", "Show the ports of a node", a.ports),
		a.monitorCmd(),
		a.defaultTopoCmd(),
		a.reachCmd(),
		a.componentsCmd(),
		a.statusCmd(),
	)
	return root
}

// run wraps a command body so the event bus is always torn down.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown()
		return fn(cmd, args)
	}
}

func (a *app) addFlowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-flow <src> <dst> [channel] [power]",
		Short: "Compute and provision a light-path between two nodes",
		Long: "Compute the shortest light-path from src to dst and configure every\n" +
			"ROADM and terminal along it. Without a channel one is drawn at random.",
		Args: cobra.RangeArgs(2, 4),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			req, err := a.flowRequest(args, false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			batch, err := a.batch(ctx)
			if err != nil {
				return err
			}
			if err := a.watch(ctx, cmd.ErrOrStderr()); err != nil {
				return err
			}
			flow, err := a.driver().AddFlow(ctx, batch, req.Source, req.Destination, req.Channel, req.Power)
			a.teardown()
			if flow != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderFlow(flow))
			}
			return err
		}),
	}
}

func (a *app) removeFlowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-flow <src> <dst> <channel> [power]",
		Short: "Tear down the light-path between two nodes",
		Args:  cobra.RangeArgs(3, 4),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			req, err := a.flowRequest(args, true)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			batch, err := a.batch(ctx)
			if err != nil {
				return err
			}
			if err := a.watch(ctx, cmd.ErrOrStderr()); err != nil {
				return err
			}
			flow, err := a.driver().RemoveFlow(ctx, batch, req.Source, req.Destination, *req.Channel, req.Power)
			a.teardown()
			if flow != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderFlow(flow))
			}
			return err
		}),
	}
}

// flowRequest parses "<src> <dst> [channel] [power]" and validates it.
func (a *app) flowRequest(args []string, needChannel bool) (*validation.FlowRequest, error) {
	req := &validation.FlowRequest{Source: args[0], Destination: args[1], Power: a.cfg.Provision.Power}
	if len(args) > 2 {
		ch, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", args[2], err)
		}
		req.Channel = &ch
	}
	if len(args) > 3 {
		p, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return nil, fmt.Errorf("power %q: %w", args[3], err)
		}
		req.Power = p
	}
	if needChannel && req.Channel == nil {
		return nil, errors.New("a channel is required")
	}
	p := a.cfg.Provision
	if err := validation.ValidateFlowRequest(req, p.MinChannel, p.MaxChannel); err != nil {
		return nil, err
	}
	return req, nil
}

func (a *app) pathCmd() *cobra.Command {
	var channel int
	cmd := &cobra.Command{
		Use:   "path <src> <dst>",
		Short: "Show the light-path and device steps without configuring anything",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			batch, err := a.batch(cmd.Context())
			if err != nil {
				return err
			}
			path, err := a.driver().Route(batch, args[0], args[1])
			if err != nil {
				return err
			}
			steps := provision.Plan(path, channel, a.cfg.Provision.Power, a.cfg.Provision.ClientPort, false)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderPath(path))
			fmt.Fprintln(out, renderSteps(steps))
			return nil
		}),
	}
	cmd.Flags().IntVar(&channel, "channel", 1, "channel shown in the planned steps")
	return cmd
}

func (a *app) meshCmd() *cobra.Command {
	var base int
	var power float64
	cmd := &cobra.Command{
		Use:   "demo-mesh-flows [router...]",
		Short: "Provision a light-path between every pair of routers",
		Long: "Provision one light-path per router pair, in order, on a single\n" +
			"topology snapshot. Pairs left without a free path are skipped.",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			routers := a.cfg.Mesh.Routers
			if len(args) > 0 {
				routers = args
			}
			for _, r := range routers {
				if err := validation.ValidateNodeName(r); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("base-channel") {
				base = a.cfg.Mesh.BaseChannel
			}
			if !cmd.Flags().Changed("power") {
				power = a.cfg.Provision.Power
			}

			ctx := cmd.Context()
			batch, err := a.batch(ctx)
			if err != nil {
				return err
			}
			if err := a.watch(ctx, cmd.ErrOrStderr()); err != nil {
				return err
			}
			flows, err := a.driver().DemoMeshFlows(ctx, batch, routers, base, power)
			a.teardown()
			fmt.Fprintln(cmd.OutOrStdout(), renderFlows(flows))
			return err
		}),
	}
	cmd.Flags().IntVar(&base, "base-channel", 1, "channel of the first pair")
	cmd.Flags().Float64Var(&power, "power", 0, "launch power in dBm")
	return cmd
}

func (a *app) showLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show-links [all|roadm|terminal|router]",
		Short:     "List the links of the topology",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"all", "roadm", "terminal", "router"},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			view := topology.ViewAll
			if len(args) == 1 {
				v, err := topology.ParseView(args[0])
				if err != nil {
					return err
				}
				view = v
			}
			batch, err := a.batch(cmd.Context())
			if err != nil {
				return err
			}
			links := topology.Select(batch.Links(), batch.Kinds(), view)
			fmt.Fprintln(cmd.OutOrStdout(), renderLinks(links, batch.Kinds()))
			return nil
		}),
	}
}

func (a *app) roadmCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "roadm <node> <port1> <port2> <channels>",
		Short: "Cross-connect channels between two ROADM ports",
		Long:  "Cross-connect a comma separated list of channels between two ports of a ROADM.",
		Args:  cobra.ExactArgs(4),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			channels, err := parseChannels(args[3])
			if err != nil {
				return err
			}
			req := &validation.RoadmRequest{Node: args[0], Port1: args[1], Port2: args[2], Channels: channels}
			if err := validation.ValidateRoadmRequest(req); err != nil {
				return err
			}
			rule := provision.RoadmRule{Node: req.Node, Port1: req.Port1, Port2: req.Port2, Channels: req.Channels, Remove: remove}
			if err := a.emulator.ConnectROADM(cmd.Context(), rule); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("configured "+rule.String()))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the cross-connect")
	return cmd
}

func (a *app) terminalCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "terminal <node> <eth-port> <wdm-port> <channel> [power]",
		Short: "Bind a terminal's client port to a line port on a channel",
		Args:  cobra.RangeArgs(4, 5),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ch, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("channel %q: %w", args[3], err)
			}
			power := a.cfg.Provision.Power
			if len(args) == 5 {
				if power, err = strconv.ParseFloat(args[4], 64); err != nil {
					return fmt.Errorf("power %q: %w", args[4], err)
				}
			}
			req := &validation.TerminalRequest{Node: args[0], EthPort: args[1], WDMPort: args[2], Channel: ch, Power: power}
			if err := validation.ValidateTerminalRequest(req); err != nil {
				return err
			}
			rule := provision.TerminalRule{Node: req.Node, EthPort: req.EthPort, WDMPort: req.WDMPort, Channel: req.Channel, Power: req.Power, Remove: remove}
			if err := a.emulator.ConnectTerminal(cmd.Context(), rule); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("configured "+rule.String()))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the transponder binding")
	return cmd
}

func parseChannels(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		ch, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", p, err)
		}
		out = append(out, ch)
	}
	return out, nil
}

func (a *app) nodeCmd(use, short string, fn func(ctx context.Context, cmd *cobra.Command, node string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <node>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNodeName(args[0]); err != nil {
				return err
			}
			return fn(cmd.Context(), cmd, args[0])
		}),
	}
}

func (a *app) reset(ctx context.Context, cmd *cobra.Command, node string) error {
	if err := a.emulator.Reset(ctx, node); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("reset "+node))
	return nil
}

func (a *app) rules(ctx context.Context, cmd *cobra.Command, node string) error {
	data, err := a.emulator.Rules(ctx, node)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderJSON(data))
	return nil
}

func (a *app) ports(ctx context.Context, cmd *cobra.Command, node string) error {
	data, err := a.emulator.Ports(ctx, node)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderJSON(data))
	return nil
}

func (a *app) monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "monitor [name]",
		Aliases: []string{"osnr"},
		Short:   "List link monitors, or show one monitor's readings",
		Args:    cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				data, err := a.emulator.Monitor(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderJSON(data))
				return nil
			}
			monitors, err := a.emulator.Monitors(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderMonitors(monitors))
			return nil
		}),
	}
}

func (a *app) defaultTopoCmd() *cobra.Command {
	var skipController bool
	cmd := &cobra.Command{
		Use:   "default-topo",
		Short: "Install the static demo rules and seed the controller",
		Long: "Install the static transponder and cross-connect rules of the demo\n" +
			"network on the emulator, then register its ROADMs and links with ONOS.",
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			terminals, roadms := controller.DemoRules()

			if err := a.driver().InstallRules(ctx, terminals, roadms, a.cfg.Provision.Workers); err != nil {
				return fmt.Errorf("demo rules: %w", err)
			}

			if !skipController {
				topo := controller.DefaultTopology()
				checker := health.NewChecker()
				checker.Register("controller", health.EndpointCheck(a.controller.Ping))
				checker.Register("links", health.LinksDiscoveredCheck(a.controller.LinkCount, len(topo.Links)))

				ready := func(ctx context.Context) error {
					ctx, cancel := a.readyTimeout(ctx)
					defer cancel()
					return checker.WaitReady(ctx, a.cfg.Ready.Interval)
				}
				if err := a.controller.Seed(ctx, topo, ready); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderDemoTopology())
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("default topology configured"))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&skipController, "skip-controller", false, "only install the emulator rules")
	return cmd
}

func (a *app) reachCmd() *cobra.Command {
	var maxHops int
	var optical bool
	cmd := &cobra.Command{
		Use:   "reach <node>",
		Short: "Show the hop distance from a node to every reachable node",
		Long: "Show the hop distance from a node to every node it can reach. With\n" +
			"--optical the walk only crosses ROADMs, which lists the terminals a\n" +
			"light-path from this node could end on.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			batch, err := a.batch(cmd.Context())
			if err != nil {
				return err
			}
			g := linkgraph.Build(batch.Links(), batch.Kinds(), nil)

			var dist map[string]int
			if maxHops > 0 || optical {
				opts := algorithms.KHopOptions{MaxHops: maxHops}
				if opts.MaxHops <= 0 {
					opts.MaxHops = g.NodeCount()
				}
				if optical {
					opts.Through = []topology.NodeKind{topology.KindROADM}
				}
				res, err := algorithms.KHopNeighbours(g, args[0], opts)
				if err != nil {
					return err
				}
				dist = res.Distances
				dist[args[0]] = 0
			} else if dist, err = algorithms.HopDistances(g, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDistances(args[0], dist, batch.Kinds()))
			return nil
		}),
	}
	cmd.Flags().IntVar(&maxHops, "max-hops", 0, "stop after this many hops (0 = unlimited)")
	cmd.Flags().BoolVar(&optical, "optical", false, "only walk through ROADMs")
	return cmd
}

func (a *app) componentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the disconnected islands of the topology",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			batch, err := a.batch(cmd.Context())
			if err != nil {
				return err
			}
			components, err := algorithms.ConnectedComponents(linkgraph.Build(batch.Links(), batch.Kinds(), nil))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderComponents(components))
			return nil
		}),
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the emulator and controller answer",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			checker := health.NewChecker()
			checker.Register("emulator", health.EndpointCheck(a.emulator.Ping))
			checker.Register("emulator-links", health.LinksDiscoveredCheck(a.emulator.LinkCount, 1))
			checker.Register("controller", health.EndpointCheck(a.controller.Ping))

			report := checker.Readiness(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), renderHealth(report))
			if !report.Ready() {
				return fmt.Errorf("%w: %s", health.ErrNotReady, report.Status)
			}
			return nil
		}),
	}
}
