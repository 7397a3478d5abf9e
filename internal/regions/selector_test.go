package regions_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orijen-udf/lifecycle-agent/internal/regions"
)

var _ = Describe("Selector", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	probeWith := func(latencies map[string]time.Duration) regions.ProbeFunc {
		return func(_ context.Context, region string) (time.Duration, error) {
			latency, ok := latencies[region]
			if !ok {
				return 0, errors.New("unreachable")
			}
			return latency, nil
		}
	}

	It("should return the lowest-latency region", func() {
		selector := regions.NewSelector("", regions.WithProbe(probeWith(map[string]time.Duration{
			"a": 500 * time.Millisecond,
			"b": 100 * time.Millisecond,
			"c": 300 * time.Millisecond,
		})))

		Expect(selector.Select(ctx, []string{"a", "b", "c"})).To(Equal("b"))
	})

	It("should exclude failed probes without failing the selection", func() {
		selector := regions.NewSelector("", regions.WithProbe(probeWith(map[string]time.Duration{
			"c": 300 * time.Millisecond,
		})))

		Expect(selector.Select(ctx, []string{"a", "b", "c"})).To(Equal("c"))
	})

	It("should fall back to the default region when nothing was measured", func() {
		selector := regions.NewSelector("eu-central-1", regions.WithProbe(probeWith(nil)))

		Expect(selector.Select(ctx, []string{"a", "b"})).To(Equal("eu-central-1"))
	})

	It("should use the package default when no default is configured", func() {
		selector := regions.NewSelector("", regions.WithProbe(probeWith(nil)))

		Expect(selector.Select(ctx, nil)).To(Equal(regions.DefaultRegion))
	})

	It("should keep scan order on latency ties", func() {
		selector := regions.NewSelector("", regions.WithProbe(probeWith(map[string]time.Duration{
			"a": 100 * time.Millisecond,
			"b": 100 * time.Millisecond,
		})))

		Expect(selector.Select(ctx, []string{"a", "b"})).To(Equal("a"))
	})
})
