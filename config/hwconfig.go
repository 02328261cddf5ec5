// Package config loads and represents the hardware catalog available to
// the scheduler: a named accelerator plus its functional-unit instances.
package config

// HWUnit is one named instance of a fixed-function accelerator block.
type HWUnit struct {
	ID   string
	Type string
}

// HWConfig is the catalog of hardware units for one accelerator.
type HWConfig struct {
	AcceleratorName string
	Units           []HWUnit
}

// UnitsByType groups the units by their module type. A type may have
// multiple instances.
func (c *HWConfig) UnitsByType() map[string][]HWUnit {
	result := make(map[string][]HWUnit)
	for _, u := range c.Units {
		result[u.Type] = append(result[u.Type], u)
	}
	return result
}

// UnitIDs returns the set of unit ids in the config.
func (c *HWConfig) UnitIDs() map[string]bool {
	ids := make(map[string]bool, len(c.Units))
	for _, u := range c.Units {
		ids[u.ID] = true
	}
	return ids
}
