package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

// observe fetches and parses the primary feed for one station and, when
// enabled, overlays the spectral summary. A spectral failure only degrades
// the observation to the primary feed's values.
func (p *Pipeline) observe(ctx context.Context, station string) (domain.Observation, error) {
	body, err := p.fetcher.Fetch(ctx, station, p.opts.Feed)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("fetch %s feed: %w", p.opts.Feed, err)
	}

	obs, err := domain.ParseFeed(body, station)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse %s feed: %w", p.opts.Feed, err)
	}

	if !p.opts.IncludeSpectral {
		return obs, nil
	}

	specBody, err := p.fetcher.Fetch(ctx, station, domain.FeedSpectral)
	if err != nil {
		p.logger.Warn("spectral feed unavailable", "station", station, "error", err)
		return obs, nil
	}
	spec, err := domain.ParseText(specBody, station)
	if err != nil {
		p.logger.Warn("spectral feed unparseable", "station", station, "error", err)
		return obs, nil
	}
	return domain.MergeSpectral(obs, spec), nil
}
