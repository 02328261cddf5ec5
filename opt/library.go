package opt

import "sort"

// Library is a registry of named optimization strategies. It is a pure
// lookup structure: strategies are metadata, never executed. Libraries
// are independent values, so several strategy sets can coexist in one
// process; share one by reference and treat it as read-only while
// scheduling.
type Library struct {
	strategies map[string]*Strategy
}

// NewLibrary creates a library pre-populated with the built-in
// neural-rendering strategies.
func NewLibrary() *Library {
	lib := &Library{strategies: make(map[string]*Strategy)}
	lib.registerBuiltins()
	return lib
}

// Register adds a strategy. Registering a name that already exists
// replaces the prior entry.
func (l *Library) Register(s *Strategy) {
	l.strategies[s.Name] = s
}

// Get returns the strategy with the given name, or nil.
func (l *Library) Get(name string) *Strategy {
	return l.strategies[name]
}

// Count returns the number of registered strategies.
func (l *Library) Count() int {
	return len(l.strategies)
}

// Applicable returns every strategy applicable to the operator type,
// ordered by name.
func (l *Library) Applicable(operatorType string) []*Strategy {
	var result []*Strategy
	for _, s := range l.sorted() {
		if s.IsApplicableTo(operatorType) {
			result = append(result, s)
		}
	}
	return result
}

// ByType returns every strategy of the given optimization type, ordered
// by name.
func (l *Library) ByType(optType Type) []*Strategy {
	var result []*Strategy
	for _, s := range l.sorted() {
		if s.OptType == optType {
			result = append(result, s)
		}
	}
	return result
}

// ByScope returns every strategy with the given scope, ordered by name.
func (l *Library) ByScope(scope Scope) []*Strategy {
	var result []*Strategy
	for _, s := range l.sorted() {
		if s.Scope == scope {
			result = append(result, s)
		}
	}
	return result
}

func (l *Library) sorted() []*Strategy {
	names := make([]string, 0, len(l.strategies))
	for name := range l.strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]*Strategy, 0, len(names))
	for _, name := range names {
		result = append(result, l.strategies[name])
	}
	return result
}

func (l *Library) registerBuiltins() {
	mustRegister := func(s *Strategy, err error) {
		if err != nil {
			panic(err)
		}
		l.Register(s)
	}

	mustRegister(NewStrategy(
		"exponential_value_reuse",
		TypeReuse, ElementLevel, ThresholdBased,
		"Share exponential computations across multiple Gaussians in hybrid arrays",
		[]string{"GAUSSIAN_SPLATTING", "FIELD_COMPUTATION"},
		Params{
			Doubles: map[string]float64{"reuse_threshold": 0.95},
			Ints:    map[string]int32{"max_reuse_distance": 4},
		},
	))

	mustRegister(NewStrategy(
		"restricted_hashing",
		TypeReuse, RegionLevel, BoundaryBased,
		"Process rays within spatial subgrids for hash table locality",
		[]string{"HASH_ENCODE"},
		Params{
			Ints:    map[string]int32{"hash_table_size": 262144},
			IntVecs: map[string][]int32{"subgrid_size": {16, 16, 16}},
		},
	))

	mustRegister(NewStrategy(
		"sparse_radiance_warping",
		TypeReuse, FrameLevel, ThresholdBased,
		"Reuse pixels with similar ray directions across frames",
		[]string{"VOLUME_RENDERING", "*"},
		Params{
			Doubles: map[string]float64{"angular_threshold": 0.1},
			Ints:    map[string]int32{"temporal_window": 3},
		},
	))

	mustRegister(NewStrategy(
		"gaussian_skipping",
		TypeSkip, ElementLevel, ThresholdBased,
		"Skip rendering individual Gaussians based on contribution scores",
		[]string{"GAUSSIAN_SPLATTING"},
		Params{
			Doubles: map[string]float64{
				"alpha_threshold":    0.005,
				"distance_threshold": 100.0,
			},
		},
	))

	mustRegister(NewStrategy(
		"early_ray_termination",
		TypeSkip, ElementLevel, ThresholdBased,
		"Terminate rays early based on accumulated opacity",
		[]string{"VOLUME_RENDERING"},
		Params{
			Doubles: map[string]float64{"opacity_threshold": 0.99},
			Ints:    map[string]int32{"min_samples": 8},
		},
	))

	mustRegister(NewStrategy(
		"tile_culling",
		TypeSkip, RegionLevel, BoundaryBased,
		"Skip entire tiles based on bounding box tests",
		[]string{"GAUSSIAN_SPLATTING", "RASTERIZATION"},
		Params{
			Ints:    map[string]int32{"culling_margin": 2},
			IntVecs: map[string][]int32{"tile_size": {16, 16}},
		},
	))

	mustRegister(NewStrategy(
		"low_precision_sampling",
		TypeLowBit, ElementLevel, ThresholdBased,
		"Use reduced precision for importance sampling computations",
		[]string{"SAMPLING"},
		Params{
			Doubles: map[string]float64{"sensitivity_threshold": 0.01},
			Ints:    map[string]int32{"precision_bits": 8},
		},
	))
}
