package drafts

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/goliatone/go-drafts/collections"
)

// Document is a JSON-serialisable description of a value's kind tree.
type Document struct {
	Kind      string               `json:"kind"`
	Type      string               `json:"type,omitempty"`
	Draftable bool                 `json:"draftable"`
	Children  map[string]*Document `json:"children,omitempty"`
	Items     []*Document          `json:"items,omitempty"`
}

// Describe builds a structural description of value. Drafts describe their
// current snapshot. The walk assumes an acyclic value, matching the engine's
// input contract.
func Describe(value any) *Document {
	if d, ok := value.(*Draft); ok && d.s != nil {
		value = currentValue(d)
	}
	doc := &Document{
		Kind:      KindOf(value).String(),
		Draftable: IsDraftable(value),
	}
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if doc.Children == nil {
				doc.Children = make(map[string]*Document, len(v))
			}
			doc.Children[key] = Describe(v[key])
		}
	case []any:
		for _, item := range v {
			doc.Items = append(doc.Items, Describe(item))
		}
	case *collections.Map:
		v.Range(func(key, item any) bool {
			if doc.Children == nil {
				doc.Children = make(map[string]*Document, v.Len())
			}
			doc.Children[fmt.Sprintf("%v", key)] = Describe(item)
			return true
		})
	case *collections.Set:
		v.Range(func(item any) bool {
			doc.Items = append(doc.Items, Describe(item))
			return true
		})
	default:
		if isTaggedStruct(value) {
			for _, name := range structKeys(value) {
				field, _ := structField(value, name)
				if doc.Children == nil {
					doc.Children = make(map[string]*Document)
				}
				doc.Children[name] = Describe(field)
			}
		}
		if value != nil {
			doc.Type = fmt.Sprintf("%T", value)
		}
	}
	return doc
}

// ToJSON serialises the document.
func (d *Document) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}
