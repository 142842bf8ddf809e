package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-lightpath/pkg/logging"
	"github.com/dd0wney/cluso-lightpath/pkg/parallel"
)

// InstallRules applies static rules with up to workers devices configured
// at once. Rules for the same node run in the order given, on one worker,
// since a device agent handles its own requests one at a time. Terminal
// rules of a node go before its ROADM rules. Every rule is attempted; the
// failures are joined in the returned error.
func (d *Driver) InstallRules(ctx context.Context, terminals []TerminalRule, roadms []RoadmRule, workers int) error {
	var order []string
	byNode := make(map[string][]Step)
	add := func(node string, s Step) {
		if _, ok := byNode[node]; !ok {
			order = append(order, node)
		}
		byNode[node] = append(byNode[node], s)
	}
	for i := range terminals {
		r := terminals[i]
		add(r.Node, Step{Terminal: &r})
	}
	for i := range roadms {
		r := roadms[i]
		add(r.Node, Step{Roadm: &r})
	}

	tasks := make([]func(context.Context) error, len(order))
	for i, node := range order {
		steps := byNode[node]
		tasks[i] = func(ctx context.Context) error {
			var errs []error
			for _, s := range steps {
				if err := d.applyStep(ctx, s); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", s, err))
				}
			}
			return errors.Join(errs...)
		}
	}

	timer := logging.StartTimer(d.logger, "static rules installed", logging.Count(len(terminals)+len(roadms)))
	results, err := parallel.Run(ctx, workers, d.logger, tasks)
	if err != nil {
		return err
	}
	if err := errors.Join(results...); err != nil {
		timer.EndError(err)
		return err
	}
	timer.End(logging.Int("nodes", len(order)))
	return nil
}
