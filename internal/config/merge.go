package config

// deepMerge returns a new map holding base overlaid with top. Nested
// mappings are merged recursively; on any other collision top wins.
// Neither input is modified.
func deepMerge(base, top map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(top))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range top {
		if existing, ok := out[k].(map[string]any); ok {
			if incoming, ok := v.(map[string]any); ok {
				out[k] = deepMerge(existing, incoming)
				continue
			}
		}
		out[k] = cloneValue(v)
	}
	return out
}

// collapsePlatform replaces every top-level mapping that holds an entry for
// platform by that entry. Other values are left untouched.
func collapsePlatform(cfg map[string]any, platform string) {
	for k, v := range cfg {
		variants, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if selected, ok := variants[platform]; ok {
			cfg[k] = selected
		}
	}
}

// cloneValue deep-copies the map and slice containers produced by YAML decoding.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
