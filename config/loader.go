package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

type hwModuleJSON struct {
	ModuleType string `json:"module_type"`
	Count      int    `json:"count"`
}

type hwConfigJSON struct {
	AcceleratorName string                   `json:"accelerator_name"`
	HardwareModules map[string]*hwModuleJSON `json:"hardware_modules"`
}

// LoadHWConfig reads a hardware configuration JSON descriptor from path.
func LoadHWConfig(path string) (*HWConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open HW config %s: %w", path, err)
	}
	cfg, err := ParseHWConfig(data)
	if err != nil {
		return nil, fmt.Errorf("HW config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseHWConfig parses a hardware configuration JSON descriptor. A config
// with no "hardware_modules" key or zero resulting units is a hard error.
// A module with count > 1 is expanded into count replica units with ids
// suffixed _0, _1, ...; a missing module_type defaults to GENERIC.
func ParseHWConfig(data []byte) (*HWConfig, error) {
	var root hwConfigJSON
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	if root.HardwareModules == nil {
		return nil, fmt.Errorf("missing 'hardware_modules'")
	}

	cfg := &HWConfig{AcceleratorName: root.AcceleratorName}
	if cfg.AcceleratorName == "" {
		cfg.AcceleratorName = "UNKNOWN"
	}

	// Sorted for a reproducible unit order.
	ids := make([]string, 0, len(root.HardwareModules))
	for id := range root.HardwareModules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		mod := root.HardwareModules[id]
		modType := mod.ModuleType
		if modType == "" {
			modType = "GENERIC"
		}
		count := mod.Count
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			unitID := id
			if count > 1 {
				unitID = fmt.Sprintf("%s_%d", id, i)
			}
			cfg.Units = append(cfg.Units, HWUnit{ID: unitID, Type: modType})
		}
	}

	if len(cfg.Units) == 0 {
		return nil, fmt.Errorf("no hardware units")
	}

	return cfg, nil
}
