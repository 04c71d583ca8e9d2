package drafts

import (
	"sort"

	"github.com/goliatone/go-drafts/collections"
)

// MergeRecipe returns a recipe that deep-merges overlay documents into the
// draft. Overlays apply in order, so later overlays win; record and map
// overlays merge key by key while sequences, sets and scalars replace the
// slot wholesale.
func MergeRecipe(overlays ...any) Recipe {
	return func(d *Draft) (any, error) {
		for _, overlay := range overlays {
			if err := mergeInto(d, overlay); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}

// Merge produces a new value by deep-merging overlays into base with
// copy-on-write semantics: untouched subtrees stay reference-equal to base.
func Merge(base any, overlays ...any) (any, error) {
	return std.Produce(base, MergeRecipe(overlays...))
}

// Merge runs MergeRecipe through this producer.
func (p *Producer) Merge(base any, overlays ...any) (any, error) {
	return p.Produce(base, MergeRecipe(overlays...))
}

func mergeInto(d *Draft, overlay any) error {
	switch o := overlay.(type) {
	case map[string]any:
		keys := make([]string, 0, len(o))
		for key := range o {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := mergeKey(d, key, o[key]); err != nil {
				return err
			}
		}
		return nil
	case *collections.Map:
		for _, entry := range o.Entries() {
			if err := mergeKey(d, entry.Key, entry.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func mergeKey(d *Draft, key any, value any) error {
	if !mergeableOverlay(value) {
		return d.Set(key, value)
	}
	current, err := d.Get(key)
	if err != nil {
		return err
	}
	child, ok := current.(*Draft)
	if !ok || !kindsMerge(child.Kind(), value) {
		return d.Set(key, value)
	}
	return mergeInto(child, value)
}

func mergeableOverlay(value any) bool {
	switch value.(type) {
	case map[string]any, *collections.Map:
		return value != nil
	default:
		return false
	}
}

func kindsMerge(kind Kind, overlay any) bool {
	switch overlay.(type) {
	case map[string]any:
		return kind == KindRecord
	case *collections.Map:
		return kind == KindMap
	default:
		return false
	}
}
