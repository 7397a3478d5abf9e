package tagcodec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
	"github.com/orijen-udf/lifecycle-agent/pkg/tagcodec"
)

var _ = Describe("Tagcodec", func() {
	Context("Decode", func() {
		// Given a tag value whose length is not a multiple of 4
		// When we decode it
		// Then the stripped base64 padding is restored before decoding
		It("should restore stripped padding", func() {
			// "LAB1" encodes to "TEFCMQ==", stored without padding
			value, err := tagcodec.Decode("TEFCMQ")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("LAB1"))
		})

		It("should decode values that needed no padding", func() {
			value, err := tagcodec.Decode("cnVubmVy")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("runner"))
		})

		It("should strip trailing newlines from the decoded value", func() {
			value, err := tagcodec.Decode(tagcodec.Encode("LAB1\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("LAB1"))
		})

		It("should return a DecodeError for malformed input", func() {
			_, err := tagcodec.Decode("???")
			Expect(err).To(HaveOccurred())
			Expect(agenterrors.IsDecodeError(err)).To(BeTrue())
		})

		// An empty tag decodes to the empty string without error, which is
		// distinct from the malformed-input case above.
		It("should decode the empty tag to the empty string", func() {
			value, err := tagcodec.Decode("")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeEmpty())
		})
	})

	Context("round trip", func() {
		It("should return the original value for tag-safe inputs", func() {
			for _, input := range []string{"LAB1", "a", "ab", "abc", "us-west-2", "1234567890/queue-name"} {
				value, err := tagcodec.Decode(tagcodec.Encode(input))
				Expect(err).NotTo(HaveOccurred())
				Expect(value).To(Equal(input))
			}
		})

		It("should produce only alphanumeric-safe encodings without padding", func() {
			Expect(tagcodec.Encode("LAB1")).NotTo(ContainSubstring("="))
		})
	})
})
