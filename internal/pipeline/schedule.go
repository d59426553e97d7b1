package pipeline

import (
	"context"
	"time"
)

// RunEvery runs the pipeline immediately and then once per interval until ctx
// is cancelled. onRun, if non-nil, receives every summary. Runs never overlap:
// a tick that fires during a run is dropped by the ticker.
func (p *Pipeline) RunEvery(ctx context.Context, stations []string, interval time.Duration, onRun func(Summary)) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.logger.Info("scheduled runs started", "interval", interval, "stations", len(stations))

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		s := p.RunOnce(ctx, stations)
		if onRun != nil {
			onRun(s)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("scheduled runs stopped")
			return
		case <-ticker.Chan():
		}
	}
}
