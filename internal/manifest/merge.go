package manifest

import "fmt"

// UnionKeys are top-level descriptor keys whose lists are merged as a set union.
var UnionKeys = map[string]bool{
	"capabilities": true,
}

// DeepMerge recursively merges overlay into base and returns a new map.
// Maps merge key by key, top-level lists under UnionKeys are unioned, and
// every other value in overlay replaces the one in base. Neither input is
// modified.
func DeepMerge(base, overlay map[string]any) map[string]any {
	return mergeMaps(base, overlay, true)
}

func mergeMaps(base, overlay map[string]any, topLevel bool) map[string]any {
	result := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		result[k] = deepCopy(v)
	}

	for key, overlayValue := range overlay {
		baseValue, exists := result[key]
		if !exists {
			result[key] = deepCopy(overlayValue)
			continue
		}

		baseMap, baseIsMap := baseValue.(map[string]any)
		overlayMap, overlayIsMap := overlayValue.(map[string]any)
		if baseIsMap && overlayIsMap {
			result[key] = mergeMaps(baseMap, overlayMap, false)
			continue
		}

		baseList, baseIsList := baseValue.([]any)
		overlayList, overlayIsList := overlayValue.([]any)
		if baseIsList && overlayIsList && topLevel && UnionKeys[key] {
			result[key] = union(baseList, overlayList)
			continue
		}

		result[key] = deepCopy(overlayValue)
	}

	return result
}

// union returns the elements of a followed by those of b not already seen,
// compared by their string form.
func union(a, b []any) []any {
	seen := make(map[string]bool, len(a)+len(b))
	result := make([]any, 0, len(a)+len(b))

	for _, list := range [][]any{a, b} {
		for _, item := range list {
			s := fmt.Sprintf("%v", item)
			if seen[s] {
				continue
			}
			seen[s] = true
			result = append(result, item)
		}
	}

	return result
}

func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = deepCopy(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = deepCopy(val)
		}
		return result
	default:
		return value
	}
}
