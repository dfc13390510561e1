package storage

import (
	"encoding/json"
	"fmt"
)

// mergeDocument applies patch onto doc in place. Nested objects merge key by
// key; a nil value deletes the key; anything else replaces it.
func mergeDocument(doc, patch map[string]any) {
	for k, v := range patch {
		if v == nil {
			delete(doc, k)
			continue
		}
		if pm, ok := v.(map[string]any); ok {
			dm, ok := doc[k].(map[string]any)
			if !ok {
				dm = make(map[string]any, len(pm))
			}
			mergeDocument(dm, pm)
			doc[k] = dm
			continue
		}
		doc[k] = v
	}
}

// normalizePatch round-trips patch through JSON so typed values (structs,
// slices of structs, json.RawMessage) become plain maps that can merge.
func normalizePatch(patch map[string]any) (map[string]any, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encoding document patch: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding document patch: %w", err)
	}
	return out, nil
}

func splitDocument(data []byte) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return out, nil
}
