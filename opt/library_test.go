package opt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Library", func() {
	var lib *Library

	BeforeEach(func() {
		lib = NewLibrary()
	})

	It("should carry the built-in strategies", func() {
		Expect(lib.Count()).To(Equal(7))

		s := lib.Get("early_ray_termination")
		Expect(s).ToNot(BeNil())
		Expect(s.OptType).To(Equal(TypeSkip))
		Expect(s.Scope).To(Equal(ElementLevel))
		Expect(s.Parameters.Doubles["opacity_threshold"]).To(Equal(0.99))
		Expect(s.Parameters.Ints["min_samples"]).To(Equal(int32(8)))
	})

	It("should name optimization types and scopes", func() {
		Expect(TypeReuse.Name()).To(Equal("REUSE"))
		Expect(TypeSkip.Name()).To(Equal("SKIP"))
		Expect(TypeLowBit.Name()).To(Equal("LOW_BIT"))
		Expect(ElementLevel.Name()).To(Equal("ELEMENT_LEVEL"))
		Expect(RegionLevel.Name()).To(Equal("REGION_LEVEL"))
		Expect(FrameLevel.Name()).To(Equal("FRAME_LEVEL"))
	})

	It("should return nil for unknown strategies", func() {
		Expect(lib.Get("nonexistent")).To(BeNil())
	})

	It("should query by optimization type in name order", func() {
		reuse := lib.ByType(TypeReuse)

		names := make([]string, 0, len(reuse))
		for _, s := range reuse {
			names = append(names, s.Name)
		}
		Expect(names).To(Equal([]string{
			"exponential_value_reuse",
			"restricted_hashing",
			"sparse_radiance_warping",
		}))
	})

	It("should query by scope", func() {
		frame := lib.ByScope(FrameLevel)
		Expect(frame).To(HaveLen(1))
		Expect(frame[0].Name).To(Equal("sparse_radiance_warping"))
	})

	It("should match wildcard strategies for every operator type", func() {
		applicable := lib.Applicable("SOME_NOVEL_OP")
		Expect(applicable).To(HaveLen(1))
		Expect(applicable[0].Name).To(Equal("sparse_radiance_warping"))
	})

	It("should list applicable strategies for VOLUME_RENDERING", func() {
		applicable := lib.Applicable("VOLUME_RENDERING")

		names := make([]string, 0, len(applicable))
		for _, s := range applicable {
			names = append(names, s.Name)
		}
		Expect(names).To(Equal([]string{
			"early_ray_termination",
			"sparse_radiance_warping",
		}))
	})

	It("should replace a strategy on re-registration", func() {
		replacement, err := NewStrategy(
			"early_ray_termination",
			TypeSkip, RegionLevel, ThresholdBased,
			"replacement",
			[]string{"VOLUME_RENDERING"},
			Params{},
		)
		Expect(err).ToNot(HaveOccurred())

		lib.Register(replacement)

		Expect(lib.Count()).To(Equal(7))
		Expect(lib.Get("early_ray_termination").Scope).To(Equal(RegionLevel))
	})

	It("should reject strategies without a name or operators", func() {
		_, err := NewStrategy("", TypeSkip, ElementLevel, ThresholdBased,
			"", []string{"X"}, Params{})
		Expect(err).To(HaveOccurred())

		_, err = NewStrategy("x", TypeSkip, ElementLevel, ThresholdBased,
			"", nil, Params{})
		Expect(err).To(HaveOccurred())
	})
})
