package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-lightpath/pkg/config"
	"github.com/dd0wney/cluso-lightpath/pkg/controller"
	"github.com/dd0wney/cluso-lightpath/pkg/emulator"
	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/metrics"
	"github.com/dd0wney/cluso-lightpath/pkg/provision"
	"github.com/dd0wney/cluso-lightpath/pkg/pubsub"
	"github.com/dd0wney/cluso-lightpath/pkg/tls"
	"github.com/dd0wney/cluso-lightpath/pkg/topology"
)

// app carries the clients shared by every sub-command. It is filled in by
// the root command's PersistentPreRunE.
type app struct {
	flags struct {
		config     string
		logLevel   string
		emulator   string
		controller string
		source     string
		file       string
		quiet      bool
	}

	cfg        *config.Config
	logger     logging.Logger
	metrics    *metrics.Registry
	bus        *pubsub.Bus
	emulator   *emulator.Client
	controller *controller.Client

	progress sync.WaitGroup
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.config)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if f.Changed("emulator") {
		cfg.Emulator.URL = a.flags.emulator
	}
	if f.Changed("controller") {
		cfg.Controller.URL = a.flags.controller
	}
	if f.Changed("source") {
		cfg.Source = a.flags.source
	}
	if f.Changed("file") {
		cfg.TopologyFile = a.flags.file
		if !f.Changed("source") {
			cfg.Source = config.SourceFile
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), cfg.Level())
	logging.SetDefaultLogger(a.logger)
	a.metrics = metrics.DefaultRegistry()
	a.bus = pubsub.New()

	a.emulator = emulator.NewClient(cfg.Emulator.URL,
		emulator.WithTimeout(cfg.Emulator.Timeout),
		emulator.WithMetrics(a.metrics),
		emulator.WithLogger(a.logger),
	)
	hc, err := tls.HTTPClient(cfg.Controller.TLS, cfg.Controller.Timeout)
	if err != nil {
		return err
	}
	a.controller = controller.NewClient(cfg.Controller.URL,
		controller.WithCredentials(cfg.Controller.User, cfg.Controller.Password),
		controller.WithHTTPClient(hc),
		controller.WithMetrics(a.metrics),
		controller.WithLogger(a.logger),
	)

	if cfg.Provision.Seed != 0 {
		provision.SeedChannels(cfg.Provision.Seed)
	}
	return nil
}

// teardown closes the event bus and waits for progress output to drain.
func (a *app) teardown() {
	if a.bus != nil {
		a.bus.Shutdown()
	}
	a.progress.Wait()
}

// source returns the configured topology source.
func (a *app) source() lightpath.Source {
	switch a.cfg.Source {
	case config.SourceController:
		return a.controller
	case config.SourceFile:
		path := a.cfg.TopologyFile
		return lightpath.SourceFunc(func(context.Context) ([]topology.Link, topology.Kinds, error) {
			return topology.LoadFile(path)
		})
	default:
		return a.emulator
	}
}

// batch takes a fresh topology snapshot.
func (a *app) batch(ctx context.Context) (*lightpath.Batch, error) {
	timer := logging.StartTimer(a.logger, "topology loaded", logging.String("source", a.cfg.Source))
	b, err := lightpath.Load(ctx, a.source())
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End(logging.Batch(b.ID.String()), logging.Count(len(b.Links())))
	return b, nil
}

// driver builds a provisioning driver against the emulator.
func (a *app) driver() *provision.Driver {
	p := a.cfg.Provision
	return provision.NewDriver(a.emulator,
		provision.WithLogger(a.logger),
		provision.WithMetrics(a.metrics),
		provision.WithEvents(a.bus),
		provision.WithChannels(provision.NewRandomChannels("channels", p.MinChannel, p.MaxChannel)),
		provision.WithClientPort(p.ClientPort),
		provision.WithRetry(p.Attempts, p.RetryDelay),
	)
}

// watch streams provisioning events to w until the bus shuts down.
func (a *app) watch(ctx context.Context, w io.Writer) error {
	if a.flags.quiet {
		return nil
	}
	sub, err := a.bus.Subscribe(ctx, pubsub.TopicFlowPlanned, pubsub.TopicStepApplied, pubsub.TopicStepFailed, pubsub.TopicFlowDone)
	if err != nil {
		return err
	}
	a.progress.Add(1)
	go func() {
		defer a.progress.Done()
		for ev := range sub.Events() {
			fmt.Fprintln(w, renderEvent(ev))
		}
	}()
	return nil
}

// readyTimeout bounds ctx by the configured readiness timeout.
func (a *app) readyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.Ready.Timeout)
}
