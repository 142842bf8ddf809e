package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-lightpath/pkg/algorithms"
	"github.com/dd0wney/cluso-lightpath/pkg/lightpath"
	"github.com/dd0wney/cluso-lightpath/pkg/logging"
)

// DefaultMeshRouters is the router set of the demo topology.
var DefaultMeshRouters = []string{"s1", "s2", "s3"}

// PlanMesh computes one flow per unordered pair of routers, in router
// order (i<j), all on batch so that later pairs cannot reuse terminal links
// taken by earlier ones. The k-th pair gets channel baseChannel+k whether
// or not it is routable.
//
// A pair without a path is returned with Skipped set. A topology mismatch
// means the snapshot is inconsistent and aborts the plan.
//
// Channels are distinct per pair but not checked against fiber sharing, so
// wavelength collisions are possible on larger meshes.
func (d *Driver) PlanMesh(batch *lightpath.Batch, routers []string, baseChannel int, power float64) ([]*Flow, error) {
	if len(routers) == 0 {
		routers = DefaultMeshRouters
	}

	flows := make([]*Flow, 0, len(routers)*(len(routers)-1)/2)
	k := 0
	for i := 0; i < len(routers); i++ {
		for j := i + 1; j < len(routers); j++ {
			src, dst := routers[i], routers[j]
			channel := baseChannel + k
			k++

			path, err := d.Route(batch, src, dst)
			if err != nil {
				if errors.Is(err, lightpath.ErrTopologyMismatch) {
					return flows, fmt.Errorf("mesh %s->%s: %w", src, dst, err)
				}
				d.metrics.RecordFlow("add", "skipped", channel)
				d.logger.Warn("mesh pair skipped",
					logging.Endpoints(src, dst),
					logging.Channel(channel),
					logging.Stage(string(lightpath.StageOf(err))),
					logging.Error(err),
				)
				flows = append(flows, &Flow{Source: src, Destination: dst, Channel: channel, Power: power, Skipped: err})
				continue
			}

			flow := d.newFlow(path, channel, power, false)
			d.announce(flow)
			flows = append(flows, flow)
		}
	}
	return flows, nil
}

// DemoMeshFlows plans the router mesh on batch and provisions every
// routable pair. Skipped pairs are not errors; step failures of all flows
// are joined in the returned error.
func (d *Driver) DemoMeshFlows(ctx context.Context, batch *lightpath.Batch, routers []string, baseChannel int, power float64) ([]*Flow, error) {
	flows, err := d.PlanMesh(batch, routers, baseChannel, power)
	if err != nil {
		return flows, err
	}

	var errs []error
	for _, flow := range flows {
		if flow.Skipped != nil {
			continue
		}
		flow.Report = d.Apply(ctx, flow.ID.String(), flow.Channel, flow.Steps)
		d.finish("add", flow)
		if ferr := flow.Report.Err(); ferr != nil {
			errs = append(errs, fmt.Errorf("flow %s->%s: %w", flow.Source, flow.Destination, ferr))
		}
	}
	return flows, errors.Join(errs...)
}

// Unreachable reports whether err means the endpoints are not connected.
func Unreachable(err error) bool {
	return errors.Is(err, algorithms.ErrNoPath)
}
