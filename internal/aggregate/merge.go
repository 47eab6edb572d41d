// Package aggregate rebuilds per-device historical tracks from the
// processor's paginated delta history: state merging, point extraction,
// jump segmentation, simplification, smoothing, pruning, and track
// statistics.
package aggregate

// DeepMerge merges src into dst recursively: nested maps merge key by
// key, everything else in src overrides dst. dst is mutated and returned.
func DeepMerge(src, dst map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, value := range src {
		if srcMap, ok := value.(map[string]any); ok {
			dstMap, ok := dst[key].(map[string]any)
			if !ok {
				dstMap = make(map[string]any, len(srcMap))
			}
			dst[key] = DeepMerge(srcMap, dstMap)
			continue
		}
		dst[key] = value
	}
	return dst
}

// copyState deep-copies a state map so merges never mutate history.
func copyState(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	out := make(map[string]any, len(state))
	for k, v := range state {
		if nested, ok := v.(map[string]any); ok {
			out[k] = copyState(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// MergeState applies one history delta on top of the previous full state.
// Changes deep-merge over the copy; diagnostics, when present on the
// record, replace the previous diagnostics wholesale rather than merging.
func MergeState(last, changes, diagnostics map[string]any) map[string]any {
	merged := DeepMerge(changes, copyState(last))
	if merged == nil {
		merged = make(map[string]any)
	}
	if diagnostics != nil {
		merged["diagnostics"] = diagnostics
	}
	return merged
}
