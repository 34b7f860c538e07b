package traverse

import (
	"github.com/goliatone/go-traverse/internal/clone"
)

// MergeConfigs composes layers ordered from strongest to weakest, e.g. a
// request override, a tenant file and process defaults. Scalar fields take the
// first non-empty value, groups are taken whole from the strongest layer that
// sets any, the enable flags are sticky once any layer sets them, and
// attributes are deep-merged with stronger keys winning.
func MergeConfigs(layers ...Config) Config {
	var merged Config
	for i := len(layers) - 1; i >= 0; i-- {
		merged = overlayConfig(layers[i], merged)
	}
	return merged
}

// LoadConfigLayers loads every path, strongest first, validates each layer
// and returns the merged result.
func LoadConfigLayers(paths ...string) (Config, error) {
	layers := make([]Config, 0, len(paths))
	for _, path := range paths {
		cfg, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		layers = append(layers, cfg)
	}
	merged := MergeConfigs(layers...)
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

func overlayConfig(strong, weak Config) Config {
	out := weak
	if strong.Format != "" {
		out.Format = strong.Format
	}
	if strong.Version != "" {
		out.Version = strong.Version
	}
	if len(strong.Groups) > 0 {
		out.Groups = append([]string(nil), strong.Groups...)
	} else if len(weak.Groups) > 0 {
		out.Groups = append([]string(nil), weak.Groups...)
	}
	if strong.SerializeNull != nil {
		value := *strong.SerializeNull
		out.SerializeNull = &value
	}
	out.MaxDepthChecks = strong.MaxDepthChecks || weak.MaxDepthChecks
	out.ExpressionExclusion = strong.ExpressionExclusion || weak.ExpressionExclusion
	if strong.Engine != "" {
		out.Engine = strong.Engine
	}
	if len(strong.Attributes) > 0 || len(weak.Attributes) > 0 {
		out.Attributes = clone.Merge(strong.Attributes, weak.Attributes)
	}
	return out
}
