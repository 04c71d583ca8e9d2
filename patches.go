package drafts

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-drafts/internal/hydrate"
)

// Op identifies a patch operation.
type Op string

const (
	// OpAdd inserts a value at a path that did not exist before.
	OpAdd Op = "add"
	// OpReplace overwrites the value at an existing path.
	OpReplace Op = "replace"
	// OpRemove deletes the value at a path.
	OpRemove Op = "remove"
)

// Patch is one discrete edit. Path elements are strings or non-negative
// integers; Value is absent on the wire for remove patches against records,
// sequences and maps (set removals carry the element).
type Patch struct {
	Op    Op
	Path  []any
	Value any
}

// Patches is an ordered patch list.
type Patches []Patch

type patchWire struct {
	Op    Op     `json:"op"`
	Path  []any  `json:"path"`
	Value *any   `json:"value,omitempty"`
}

// MarshalJSON keeps the value member present for add/replace (including a
// null value) and for set removals, absent otherwise.
func (p Patch) MarshalJSON() ([]byte, error) {
	wire := patchWire{Op: p.Op, Path: p.Path}
	if wire.Path == nil {
		wire.Path = []any{}
	}
	if p.Op != OpRemove || p.Value != nil {
		value := p.Value
		wire.Value = &value
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a wire patch, normalizing numeric path segments to
// ints.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var wire patchWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Op {
	case OpAdd, OpReplace, OpRemove:
	default:
		return fmt.Errorf("%w: unknown patch op %q", ErrUnsupportedOperation, wire.Op)
	}
	p.Op = wire.Op
	p.Path = normalizePath(wire.Path)
	if wire.Value != nil {
		p.Value = *wire.Value
	} else {
		p.Value = nil
	}
	return nil
}

func normalizePath(path []any) []any {
	out := make([]any, len(path))
	for i, segment := range path {
		if index, ok := normalizeIndex(segment); ok {
			if _, isString := segment.(string); !isString {
				out[i] = index
				continue
			}
		}
		if number, ok := segment.(json.Number); ok {
			if index, err := number.Int64(); err == nil && index >= 0 {
				out[i] = int(index)
				continue
			}
		}
		out[i] = segment
	}
	return out
}

// ParsePatches decodes a JSON patch payload produced by this package or a
// compatible producer in another runtime.
func ParsePatches(payload []byte) (Patches, error) {
	decoder := hydrate.NewDecoder[Patches](hydrate.WithUseNumber[Patches]())
	patches, err := decoder.Decode(hydrate.Context{Source: "patches"}, payload)
	if err != nil {
		return nil, err
	}
	for i := range patches {
		switch patches[i].Op {
		case OpAdd, OpReplace, OpRemove:
		default:
			return nil, fmt.Errorf("%w: unknown patch op %q", ErrUnsupportedOperation, patches[i].Op)
		}
	}
	return patches, nil
}

// ToJSON serialises the patch list for transport or storage.
func (p Patches) ToJSON() ([]byte, error) {
	if p == nil {
		p = Patches{}
	}
	return json.Marshal(p)
}
