package drafts

import "encoding/json"

// Trace captures which patches of a run touched a given path.
type Trace struct {
	Path  []any        `json:"path"`
	Steps []Provenance `json:"steps"`
}

// Provenance details how a single patch relates to the traced path.
type Provenance struct {
	Index int   `json:"index"`
	Op    Op    `json:"op"`
	Path  []any `json:"path"`
	Value any   `json:"value,omitempty"`
	Exact bool  `json:"exact"`
}

// TracePatches scans patches in order and reports every patch whose path is
// the traced path, an ancestor of it, or a descendant inside its subtree.
func TracePatches(patches Patches, path []any) Trace {
	normalized := make([]any, len(path))
	for i, segment := range path {
		normalized[i] = normalizeSegment(segment)
	}

	trace := Trace{Path: normalized}
	for i, patch := range patches {
		patchPath := make([]any, len(patch.Path))
		for j, segment := range patch.Path {
			patchPath[j] = normalizeSegment(segment)
		}
		if !pathsOverlap(patchPath, normalized) {
			continue
		}
		trace.Steps = append(trace.Steps, Provenance{
			Index: i,
			Op:    patch.Op,
			Path:  patchPath,
			Value: patch.Value,
			Exact: len(patchPath) == len(normalized),
		})
	}
	return trace
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously generated via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	trace.Path = normalizePath(trace.Path)
	for i := range trace.Steps {
		trace.Steps[i].Path = normalizePath(trace.Steps[i].Path)
	}
	return Trace(trace), nil
}

func pathsOverlap(a, b []any) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
