package retry_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/orijen-udf/lifecycle-agent/pkg/retry"
)

var _ = Describe("Policy", func() {
	var (
		ctx    context.Context
		policy retry.Policy
	)

	BeforeEach(func() {
		ctx = context.Background()
		policy = retry.Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	})

	// Given an operation that always fails
	// When we run it under a five-attempt policy
	// Then it is attempted exactly five times and the last error surfaces
	It("should attempt exactly MaxAttempts times on sustained failure", func() {
		attempts := 0
		boom := errors.New("boom")

		_, err := retry.Do(ctx, policy, func() (string, error) {
			attempts++
			return "", boom
		})

		Expect(err).To(MatchError(boom))
		Expect(attempts).To(Equal(5))
	})

	It("should apply doubling delays between attempts", func() {
		var stamps []time.Time

		start := time.Now()
		_, _ = retry.Do(ctx, policy, func() (string, error) {
			stamps = append(stamps, time.Now())
			return "", errors.New("boom")
		})

		// 1 + 2 + 4 + 8 base units of sleep across four gaps, none before
		// the first attempt.
		Expect(stamps).To(HaveLen(5))
		Expect(stamps[0].Sub(start)).To(BeNumerically("<", policy.BaseDelay))
		Expect(time.Since(start)).To(BeNumerically(">=", 15*policy.BaseDelay))
		for i := 1; i < len(stamps); i++ {
			gap := stamps[i].Sub(stamps[i-1])
			want := policy.BaseDelay * time.Duration(1<<(i-1))
			Expect(gap).To(BeNumerically(">=", want))
		}
	})

	It("should stop retrying on the first success", func() {
		attempts := 0

		value, err := retry.Do(ctx, policy, func() (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("boom")
			}
			return "ok", nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("ok"))
		Expect(attempts).To(Equal(3))
	})

	It("should stop when the context is cancelled", func() {
		cancelCtx, cancel := context.WithCancel(ctx)
		attempts := 0

		_, err := retry.Do(cancelCtx, retry.Policy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}, func() (string, error) {
			attempts++
			cancel()
			return "", errors.New("boom")
		})

		Expect(err).To(HaveOccurred())
		Expect(attempts).To(Equal(1))
	})
})
