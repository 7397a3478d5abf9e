// Package regions picks the lowest-latency AWS region for a set of
// candidates by timing a single probe request per region.
package regions

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DefaultRegion is used when no candidate produced a measurement.
const DefaultRegion = "us-west-2"

const (
	probeURLFormat = "https://dynamodb.%s.amazonaws.com/ping"
	probeTimeout   = 5 * time.Second
)

// ProbeFunc measures the round-trip time to one region. A failing probe
// excludes the region from ranking without failing the selection.
type ProbeFunc func(ctx context.Context, region string) (time.Duration, error)

type Selector struct {
	defaultRegion string
	probe         ProbeFunc
	log           *zap.SugaredLogger
}

type Option func(*Selector)

// WithProbe replaces the HTTP probe, used by tests and alternative probing
// strategies.
func WithProbe(probe ProbeFunc) Option {
	return func(s *Selector) { s.probe = probe }
}

func NewSelector(defaultRegion string, opts ...Option) *Selector {
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	s := &Selector{
		defaultRegion: defaultRegion,
		probe:         httpProbe(&http.Client{Timeout: probeTimeout}),
		log:           zap.S().Named("regions"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func httpProbe(client *http.Client) ProbeFunc {
	return func(ctx context.Context, region string) (time.Duration, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(probeURLFormat, region), nil)
		if err != nil {
			return 0, err
		}
		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return 0, err
		}
		resp.Body.Close()
		return time.Since(start), nil
	}
}

// Select probes every candidate once, sequentially, and returns the fastest.
// Ties keep the candidates' original order; with no measurements at all the
// default region is returned.
func (s *Selector) Select(ctx context.Context, candidates []string) string {
	type measurement struct {
		region  string
		latency time.Duration
	}

	measurements := make([]measurement, 0, len(candidates))
	for _, region := range candidates {
		latency, err := s.probe(ctx, region)
		if err != nil {
			s.log.Debugw("region probe failed", "region", region, "error", err)
			continue
		}
		measurements = append(measurements, measurement{region: region, latency: latency})
	}
	if len(measurements) == 0 {
		s.log.Infow("no region probe succeeded, using default", "region", s.defaultRegion)
		return s.defaultRegion
	}

	sort.SliceStable(measurements, func(i, j int) bool {
		return measurements[i].latency < measurements[j].latency
	})
	s.log.Infow("selected fastest region",
		"region", measurements[0].region, "latency", measurements[0].latency)
	return measurements[0].region
}
