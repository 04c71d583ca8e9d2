package drafts

import (
	"testing"

	"github.com/goliatone/go-drafts/collections"
)

func TestDescribeKindTree(t *testing.T) {
	value := map[string]any{
		"name": "ada",
		"tags": []any{"a"},
		"map":  collections.MapOf(collections.Entry{Key: "k", Value: 1}),
		"set":  collections.SetOf(1),
	}
	doc := Describe(value)
	if doc.Kind != "record" || !doc.Draftable {
		t.Fatalf("expected draftable record, got %+v", doc)
	}
	if doc.Children["name"].Kind != "opaque" || doc.Children["name"].Type != "string" {
		t.Fatalf("expected opaque string leaf, got %+v", doc.Children["name"])
	}
	if doc.Children["tags"].Kind != "sequence" || len(doc.Children["tags"].Items) != 1 {
		t.Fatalf("expected sequence with one item, got %+v", doc.Children["tags"])
	}
	if doc.Children["map"].Kind != "map" || doc.Children["map"].Children["k"] == nil {
		t.Fatalf("expected keyed map child, got %+v", doc.Children["map"])
	}
	if doc.Children["set"].Kind != "set" || len(doc.Children["set"].Items) != 1 {
		t.Fatalf("expected set with one item, got %+v", doc.Children["set"])
	}
}

func TestDescribeDraftUsesSnapshot(t *testing.T) {
	p := NewProducer()
	d, err := p.NewDraft(map[string]any{"n": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Set("n", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := Describe(d)
	if doc.Kind != "record" {
		t.Fatalf("expected record kind for draft, got %+v", doc)
	}
	if doc.Children["n"].Type != "int" {
		t.Fatalf("expected int leaf, got %+v", doc.Children["n"])
	}
}

func TestDescribeTaggedStruct(t *testing.T) {
	doc := Describe(&account{Name: "ada"})
	if doc.Kind != "record" || !doc.Draftable {
		t.Fatalf("expected draftable record for tagged struct, got %+v", doc)
	}
	if doc.Children["Name"] == nil || doc.Children["Logins"] == nil {
		t.Fatalf("expected exported fields to be described, got %+v", doc.Children)
	}
	payload, err := doc.ToJSON()
	if err != nil || len(payload) == 0 {
		t.Fatalf("expected document to serialise, got err=%v", err)
	}
}
