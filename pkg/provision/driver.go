package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/metrics"
	"github.com/dd0wney/cluso-lightpath/pkg/pubsub"
)

// Options tune how steps are applied.
type Options struct {
	ClientPort string
	Attempts   int           // calls per step, at least 1
	RetryDelay time.Duration // wait between attempts
}

// Driver computes light-paths on a batch and applies their steps to a
// Configurator. Steps are applied one at a time with no rollback: a failed
// step is reported and the remaining steps still run.
type Driver struct {
	sink     Configurator
	channels ChannelSource
	events   *pubsub.Bus
	metrics  *metrics.Registry
	logger   logging.Logger
	opts     Options
}

// Option configures a Driver.
type Option func(*Driver)

func WithLogger(l logging.Logger) Option     { return func(d *Driver) { d.logger = l } }
func WithMetrics(r *metrics.Registry) Option { return func(d *Driver) { d.metrics = r } }
func WithEvents(b *pubsub.Bus) Option        { return func(d *Driver) { d.events = b } }
func WithChannels(c ChannelSource) Option    { return func(d *Driver) { d.channels = c } }
func WithClientPort(port string) Option      { return func(d *Driver) { d.opts.ClientPort = port } }
func WithRetry(attempts int, delay time.Duration) Option {
	return func(d *Driver) {
		d.opts.Attempts = attempts
		d.opts.RetryDelay = delay
	}
}

// NewDriver creates a driver over sink.
func NewDriver(sink Configurator, opts ...Option) *Driver {
	d := &Driver{
		sink: sink,
		opts: Options{ClientPort: DefaultClientPort, Attempts: 1},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.DefaultLogger()
	}
	d.logger = d.logger.With(logging.Component("provision"))
	if d.metrics == nil {
		d.metrics = metrics.DefaultRegistry()
	}
	if d.channels == nil {
		d.channels = NewRandomChannels("channels", DefaultMinChannel, DefaultMaxChannel)
	}
	if d.opts.Attempts < 1 {
		d.opts.Attempts = 1
	}
	if d.opts.ClientPort == "" {
		d.opts.ClientPort = DefaultClientPort
	}
	return d
}

// Options returns the effective options.
func (d *Driver) Options() Options { return d.opts }

// Flow is one light-path request and what became of it.
type Flow struct {
	ID          uuid.UUID
	Source      string
	Destination string
	Channel     int
	Power       float64
	Remove      bool
	Path        *lightpath.Path
	Steps       []Step
	Report      *Report
	// Skipped holds the reason a mesh pair was not planned.
	Skipped error
}

// StepFailure is a step that failed after every attempt.
type StepFailure struct {
	Step Step
	Err  error
}

// Report lists the outcome of each applied step.
type Report struct {
	Applied []Step
	Failed  []StepFailure
}

// OK reports whether every step succeeded.
func (r *Report) OK() bool { return r != nil && len(r.Failed) == 0 }

// Err joins the step failures into one provision-stage error, or returns nil.
func (r *Report) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Step, f.Err))
	}
	return &lightpath.StageError{Stage: lightpath.StageProvision, Err: errors.Join(errs...)}
}

// Route computes the next light-path of batch and records the outcome.
func (d *Driver) Route(batch *lightpath.Batch, src, dst string) (*lightpath.Path, error) {
	log := d.logger.With(logging.Batch(batch.ID.String()), logging.Endpoints(src, dst))

	path, err := batch.Compute(src, dst)
	if err != nil {
		stage := lightpath.StageOf(err)
		d.metrics.RecordPath(string(stage), 0)
		log.Debug("path computation failed", logging.Stage(string(stage)), logging.Error(err))
		return nil, err
	}

	d.metrics.RecordPath("ok", path.HopCount())
	d.metrics.SetConsumed(len(batch.Consumed()))
	log.Debug("path computed", logging.Strings("nodes", path.Nodes), logging.Count(path.HopCount()))
	return path, nil
}

// Apply runs steps in order. It stops early only when ctx ends; the steps
// not attempted are then reported as failed with the context error.
func (d *Driver) Apply(ctx context.Context, flowID string, channel int, steps []Step) *Report {
	report := &Report{}
	log := d.logger.With(logging.Flow(flowID), logging.Channel(channel))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			for _, rest := range steps[i:] {
				report.Failed = append(report.Failed, StepFailure{Step: rest, Err: err})
			}
			log.Warn("provisioning interrupted", logging.Count(len(steps)-i), logging.Error(err))
			break
		}

		err := d.applyStep(ctx, step)
		ev := pubsub.Event{Flow: flowID, Node: step.Hop.Node, Kind: step.Kind(), Channel: channel}
		if err != nil {
			report.Failed = append(report.Failed, StepFailure{Step: step, Err: err})
			ev.Topic, ev.Err = pubsub.TopicStepFailed, err.Error()
			log.Warn("step failed", logging.Node(step.Hop.Node), logging.String("step", step.String()), logging.Error(err))
		} else {
			report.Applied = append(report.Applied, step)
			ev.Topic = pubsub.TopicStepApplied
			log.Debug("step applied", logging.Node(step.Hop.Node), logging.String("step", step.String()))
		}
		d.events.Publish(ev)
	}

	return report
}

func (d *Driver) applyStep(ctx context.Context, step Step) error {
	var err error
	for attempt := 1; attempt <= d.opts.Attempts; attempt++ {
		if attempt > 1 {
			d.metrics.RecordRetry(step.Kind())
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w (after %d attempts)", err, attempt-1)
			case <-time.After(d.opts.RetryDelay):
			}
		}

		start := time.Now()
		switch {
		case step.Roadm != nil:
			err = d.sink.ConnectROADM(ctx, *step.Roadm)
		case step.Terminal != nil:
			err = d.sink.ConnectTerminal(ctx, *step.Terminal)
		default:
			return errors.New("provision: empty step")
		}
		d.metrics.RecordProvisionCall(step.Kind(), step.Action(), err, time.Since(start))

		if err == nil {
			return nil
		}
	}
	return err
}

// AddFlow computes a light-path from src to dst on batch and provisions it.
// A nil channel draws one from the driver's channel source. The returned
// flow is non-nil whenever a path was found, even if some steps failed.
func (d *Driver) AddFlow(ctx context.Context, batch *lightpath.Batch, src, dst string, channel *int, power float64) (*Flow, error) {
	ch := 0
	if channel != nil {
		ch = *channel
	} else {
		ch = d.channels.Next()
	}
	return d.runFlow(ctx, batch, src, dst, ch, power, false)
}

// RemoveFlow tears down the light-path from src to dst on channel. The path
// is recomputed on batch, so batch must reflect the topology the flow was
// added on.
func (d *Driver) RemoveFlow(ctx context.Context, batch *lightpath.Batch, src, dst string, channel int, power float64) (*Flow, error) {
	return d.runFlow(ctx, batch, src, dst, channel, power, true)
}

func (d *Driver) runFlow(ctx context.Context, batch *lightpath.Batch, src, dst string, channel int, power float64, remove bool) (*Flow, error) {
	action := "add"
	if remove {
		action = "remove"
	}

	path, err := d.Route(batch, src, dst)
	if err != nil {
		d.metrics.RecordFlow(action, "failed", channel)
		return nil, err
	}

	flow := d.newFlow(path, channel, power, remove)
	d.announce(flow)

	flow.Report = d.Apply(ctx, flow.ID.String(), channel, flow.Steps)
	d.finish(action, flow)
	return flow, flow.Report.Err()
}

func (d *Driver) newFlow(path *lightpath.Path, channel int, power float64, remove bool) *Flow {
	return &Flow{
		ID:          uuid.New(),
		Source:      path.Source,
		Destination: path.Destination,
		Channel:     channel,
		Power:       power,
		Remove:      remove,
		Path:        path,
		Steps:       Plan(path, channel, power, d.opts.ClientPort, remove),
	}
}

func (d *Driver) announce(flow *Flow) {
	d.events.Publish(pubsub.Event{
		Topic:   pubsub.TopicFlowPlanned,
		Flow:    flow.ID.String(),
		Node:    flow.Source + "->" + flow.Destination,
		Channel: flow.Channel,
	})
}

func (d *Driver) finish(action string, flow *Flow) {
	result := "applied"
	switch {
	case len(flow.Report.Failed) > 0 && len(flow.Report.Applied) > 0:
		result = "partial"
	case len(flow.Report.Failed) > 0:
		result = "failed"
	}
	d.metrics.RecordFlow(action, result, flow.Channel)

	ev := pubsub.Event{Topic: pubsub.TopicFlowDone, Flow: flow.ID.String(), Channel: flow.Channel}
	if err := flow.Report.Err(); err != nil {
		ev.Err = err.Error()
	}
	d.events.Publish(ev)

	d.logger.Info("flow "+result,
		logging.Flow(flow.ID.String()),
		logging.Endpoints(flow.Source, flow.Destination),
		logging.Channel(flow.Channel),
		logging.Int("applied", len(flow.Report.Applied)),
		logging.Int("failed", len(flow.Report.Failed)),
	)
}
