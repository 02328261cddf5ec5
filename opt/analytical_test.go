package opt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AnalyticalOptimizer", func() {
	var optimizer *AnalyticalOptimizer

	BeforeEach(func() {
		optimizer = NewAnalyticalOptimizer(NewLibrary())
	})

	It("should start from the per-type base cost", func() {
		result := optimizer.Optimize("HASH_ENCODE", nil)

		// Two reuse strategies apply, compounding 0.9 each on the 400
		// cycle base.
		Expect(result.BaseDuration).To(Equal(int32(400)))
		Expect(result.Duration).To(Equal(int32(324)))
		Expect(result.AppliedOptimizations).To(ConsistOf(
			"restricted_hashing", "sparse_radiance_warping"))
	})

	It("should fall back to the default base cost", func() {
		result := optimizer.Optimize("SOMETHING_ELSE", nil)

		Expect(result.BaseDuration).To(Equal(int32(800)))
	})

	It("should add a logarithmic FLOP term to the base", func() {
		result := optimizer.Optimize("SOMETHING_ELSE", map[string]string{
			"flop_count": "1000000",
		})

		// log10(1e6) * 100 = 600 extra base cycles.
		Expect(result.BaseDuration).To(Equal(int32(1400)))
	})

	It("should compound skip, reuse, and low-bit strategy speedups", func() {
		result := optimizer.Optimize("VOLUME_RENDERING", nil)

		// early_ray_termination (skip, 0.85) and
		// sparse_radiance_warping (reuse, 0.9).
		Expect(result.SpeedupFactor).To(BeNumerically("~", 0.765, 1e-9))
		Expect(result.StrategiesConsidered).To(Equal(2))
	})

	Context("volume rendering hints", func() {
		It("should gate on high average opacity", func() {
			without := optimizer.Optimize("VOLUME_RENDERING", nil)
			with := optimizer.Optimize("VOLUME_RENDERING", map[string]string{
				"avg_opacity": "0.995",
			})

			Expect(with.Duration).To(BeNumerically("<", without.Duration))
			Expect(with.AppliedOptimizations).To(
				ContainElement("hint_early_ray_termination"))
			Expect(without.AppliedOptimizations).ToNot(
				ContainElement("hint_early_ray_termination"))
		})

		It("should respect a custom opacity threshold", func() {
			result := optimizer.Optimize("VOLUME_RENDERING", map[string]string{
				"avg_opacity":       "0.90",
				"opacity_threshold": "0.85",
			})

			Expect(result.AppliedOptimizations).To(
				ContainElement("hint_early_ray_termination"))
		})

		It("should scale with the active samples ratio", func() {
			sparse := optimizer.Optimize("SAMPLING", map[string]string{
				"active_samples_ratio": "0.1",
			})
			dense := optimizer.Optimize("SAMPLING", map[string]string{
				"active_samples_ratio": "0.9",
			})

			Expect(sparse.Duration).To(BeNumerically("<", dense.Duration))
			Expect(sparse.AppliedOptimizations).To(
				ContainElement("hint_sampling_activity"))
		})

		It("should not let full activity speed anything up", func() {
			full := optimizer.Optimize("SAMPLING", map[string]string{
				"active_samples_ratio": "1.0",
			})
			absent := optimizer.Optimize("SAMPLING", nil)

			Expect(full.Duration).To(Equal(absent.Duration))
		})
	})

	Context("hash encoding hints", func() {
		It("should gate on hash index activity", func() {
			result := optimizer.Optimize("HASH_ENCODE", map[string]string{
				"hash_index_activity": "true",
			})

			Expect(result.AppliedOptimizations).To(
				ContainElement("hint_hash_activity"))
		})

		It("should gate on strong locality only", func() {
			strong := optimizer.Optimize("HASH_ENCODE", map[string]string{
				"locality_score": "0.8",
			})
			weak := optimizer.Optimize("HASH_ENCODE", map[string]string{
				"locality_score": "0.5",
			})

			Expect(strong.AppliedOptimizations).To(
				ContainElement("hint_locality"))
			Expect(weak.AppliedOptimizations).ToNot(
				ContainElement("hint_locality"))
		})
	})

	Context("field computation hints", func() {
		It("should gate on observed low-bit execution", func() {
			result := optimizer.Optimize("FIELD_COMPUTATION", map[string]string{
				"low_bit_observed": "yes",
			})

			Expect(result.AppliedOptimizations).To(
				ContainElement("hint_low_bit"))
		})

		It("should gate on declared low precision", func() {
			eight := optimizer.Optimize("FIELD_COMPUTATION", map[string]string{
				"precision_bits": "8",
			})
			sixteen := optimizer.Optimize("FIELD_COMPUTATION", map[string]string{
				"precision_bits": "16",
			})

			Expect(eight.AppliedOptimizations).To(
				ContainElement("hint_low_bit"))
			Expect(eight.Duration).To(BeNumerically("<", sixteen.Duration))
		})

		It("should gate harder below four bits", func() {
			four := optimizer.Optimize("FIELD_COMPUTATION", map[string]string{
				"precision_bits": "4",
			})
			eight := optimizer.Optimize("FIELD_COMPUTATION", map[string]string{
				"precision_bits": "8",
			})

			Expect(four.Duration).To(BeNumerically("<", eight.Duration))
		})
	})

	It("should never emit hints for types they do not apply to", func() {
		result := optimizer.Optimize("BLENDING", map[string]string{
			"avg_opacity":      "0.999",
			"precision_bits":   "4",
			"low_bit_observed": "true",
		})

		Expect(result.AppliedOptimizations).ToNot(
			ContainElement("hint_early_ray_termination"))
		Expect(result.AppliedOptimizations).ToNot(
			ContainElement("hint_low_bit"))
	})
})

var _ = Describe("NewOptimizer", func() {
	It("should build the requested optimizer", func() {
		lib := NewLibrary()

		Expect(NewOptimizer(Dummy, lib)).
			To(BeAssignableToTypeOf(&DummyOptimizer{}))
		Expect(NewOptimizer(Analytical, lib)).
			To(BeAssignableToTypeOf(&AnalyticalOptimizer{}))
		Expect(NewOptimizer(MLBased, lib)).
			To(BeAssignableToTypeOf(&DummyOptimizer{}))
	})
})
