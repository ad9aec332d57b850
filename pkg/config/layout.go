// Package config loads the YAML-configurable presets and rule sets the
// layout and lint layers run with, grounded on the teacher's
// pkg/dungeon/config.go LoadConfig pattern: read file, unmarshal, apply
// defaults, validate.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Compactness selects one of the three named spacing presets spec.md §4.2
// defines for LayeredLayoutAdapter.
type Compactness string

const (
	Compact  Compactness = "compact"
	Normal   Compactness = "normal"
	Spacious Compactness = "spacious"
)

// LayoutConfig holds the tunables for GraphBuilder/LayeredLayoutAdapter/
// PipelineRunner, loadable from YAML the way dungeon.Config is.
type LayoutConfig struct {
	Preset                  Compactness `yaml:"preset" json:"preset"`
	NodeSpacing             int         `yaml:"nodeSpacing" json:"nodeSpacing"`
	LayerSpacing            int         `yaml:"layerSpacing" json:"layerSpacing"`
	MaxCrossingIterations   int         `yaml:"maxCrossingIterations" json:"maxCrossingIterations"`
	MaxOverlapIterations    int         `yaml:"maxOverlapIterations" json:"maxOverlapIterations"`
	LabelCharWidth          float64     `yaml:"labelCharWidth" json:"labelCharWidth"`
	LabelLineHeight         float64     `yaml:"labelLineHeight" json:"labelLineHeight"`
}

// presetSpacing returns the (node, layer) spacing pair spec.md §4.2 assigns
// to each named preset: compact 40/60, normal 60/80, spacious 90/120.
func presetSpacing(p Compactness) (node, layer int) {
	switch p {
	case Compact:
		return 40, 60
	case Spacious:
		return 90, 120
	default:
		return 60, 80
	}
}

// DefaultLayoutConfig returns the "normal" preset with the open-question
// defaults resolved in DESIGN.md (label metrics approximation, iteration
// bounds for the repair/simplify convergence loops).
func DefaultLayoutConfig() *LayoutConfig {
	node, layer := presetSpacing(Normal)
	return &LayoutConfig{
		Preset:                Normal,
		NodeSpacing:           node,
		LayerSpacing:          layer,
		MaxCrossingIterations: 24,
		MaxOverlapIterations:  50,
		LabelCharWidth:        6.2,
		LabelLineHeight:       14,
	}
}

// Validate fills in preset-derived spacing when unset and rejects
// nonsensical values, mirroring dungeon.Config.Validate.
func (c *LayoutConfig) Validate() error {
	if c.Preset == "" {
		c.Preset = Normal
	}
	if c.Preset != Compact && c.Preset != Normal && c.Preset != Spacious {
		return fmt.Errorf("invalid layout preset %q", c.Preset)
	}
	if c.NodeSpacing == 0 && c.LayerSpacing == 0 {
		c.NodeSpacing, c.LayerSpacing = presetSpacing(c.Preset)
	}
	if c.NodeSpacing <= 0 {
		return fmt.Errorf("nodeSpacing must be positive, got %d", c.NodeSpacing)
	}
	if c.LayerSpacing <= 0 {
		return fmt.Errorf("layerSpacing must be positive, got %d", c.LayerSpacing)
	}
	if c.MaxCrossingIterations <= 0 {
		c.MaxCrossingIterations = 24
	}
	if c.MaxOverlapIterations <= 0 {
		c.MaxOverlapIterations = 50
	}
	if c.LabelCharWidth <= 0 {
		c.LabelCharWidth = 6.2
	}
	if c.LabelLineHeight <= 0 {
		c.LabelLineHeight = 14
	}
	return nil
}

// LoadLayoutConfig reads and validates a YAML layout config file.
func LoadLayoutConfig(path string) (*LayoutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout config: %w", err)
	}
	cfg := DefaultLayoutConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse layout config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout config: %w", err)
	}
	return cfg, nil
}
