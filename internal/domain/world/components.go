package world

import (
	"encoding/json"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// maxTemplateChain bounds component template chaining; a longer chain
// is treated as a reference cycle.
const maxTemplateChain = 8

// ResolveComponents expands component template references in a world
// document. Any agent config naming a `template` id is replaced by the
// referenced defaults with the config's explicitly set values merged on
// top, so sector-level settings override template defaults. Unset
// (zero) fields defer to the template. Templates may themselves
// reference a base template.
func ResolveComponents(cfg Config, components map[string]json.RawMessage) (Config, error) {
	if len(components) == 0 {
		return cfg, nil
	}

	lib := make(map[string]map[string]any, len(components))
	for id, raw := range components {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Config{}, kernel.ConfigErrorf("component template %q is not a JSON object: %v", id, err)
		}
		lib[id] = doc
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return Config{}, kernel.ConfigErrorf("marshal world document: %v", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return Config{}, kernel.ConfigErrorf("decode world document: %v", err)
	}

	resolved, err := resolveNode(tree, lib, 0)
	if err != nil {
		return Config{}, err
	}

	resolvedRaw, err := json.Marshal(resolved)
	if err != nil {
		return Config{}, kernel.ConfigErrorf("marshal resolved document: %v", err)
	}
	var out Config
	if err := json.Unmarshal(resolvedRaw, &out); err != nil {
		return Config{}, kernel.ConfigErrorf("decode resolved document: %v", err)
	}
	return out, nil
}

func resolveNode(node any, lib map[string]map[string]any, chain int) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v["template"].(string); ok && ref != "" {
			if chain >= maxTemplateChain {
				return nil, kernel.ConfigErrorf("component template chain too deep at %q", ref)
			}
			base, found := lib[ref]
			if !found {
				return nil, kernel.ConfigErrorf("unknown component template %q", ref)
			}
			overrides := make(map[string]any, len(v))
			for k, val := range v {
				if k == "template" || zeroValue(val) {
					continue
				}
				overrides[k] = val
			}
			// The base may chain to its own template; the merged node
			// carries that reference and resolves on the next pass.
			return resolveNode(mergeMaps(base, overrides), lib, chain+1)
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			r, err := resolveNode(val, lib, chain)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			r, err := resolveNode(val, lib, chain)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// zeroValue reports whether a decoded JSON value is its type's zero.
// Referencing configs marshal unset fields as zeros; those must not
// shadow the template's defaults.
func zeroValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
