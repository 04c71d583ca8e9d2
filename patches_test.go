package drafts

import (
	"reflect"
	"testing"

	"github.com/goliatone/go-drafts/collections"
)

func producePatches(t *testing.T, base any, recipe Recipe) (any, Patches, Patches) {
	t.Helper()
	result, forward, inverse, err := NewProducer().ProduceWithPatches(base, recipe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result, forward, inverse
}

func assertPatches(t *testing.T, got, want Patches) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d patches, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Op != want[i].Op || !reflect.DeepEqual(got[i].Path, want[i].Path) || !reflect.DeepEqual(got[i].Value, want[i].Value) {
			t.Fatalf("patch %d mismatch: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestRecordPatches(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1}, "b": map[string]any{"y": 2}}
	_, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		return nil, childDraft(t, d, "a").Set("x", 9)
	})
	assertPatches(t, forward, Patches{{Op: OpReplace, Path: []any{"a", "x"}, Value: 9}})
	assertPatches(t, inverse, Patches{{Op: OpReplace, Path: []any{"a", "x"}, Value: 1}})
}

func TestRecordAddAndRemovePatches(t *testing.T) {
	base := map[string]any{"keep": 1, "drop": 2}
	_, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		if err := d.Set("fresh", 3); err != nil {
			return nil, err
		}
		_, err := d.Delete("drop")
		return nil, err
	})
	assertPatches(t, forward, Patches{
		{Op: OpAdd, Path: []any{"fresh"}, Value: 3},
		{Op: OpRemove, Path: []any{"drop"}},
	})
	assertPatches(t, inverse, Patches{
		{Op: OpRemove, Path: []any{"fresh"}},
		{Op: OpAdd, Path: []any{"drop"}, Value: 2},
	})
}

func TestSequenceAppendReplacePatches(t *testing.T) {
	base := []any{10, 20, 30}
	result, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		if err := d.Append(40); err != nil {
			return nil, err
		}
		return nil, d.Set(0, 11)
	})
	if !reflect.DeepEqual(result, []any{11, 20, 30, 40}) {
		t.Fatalf("expected [11 20 30 40], got %v", result)
	}
	assertPatches(t, forward, Patches{
		{Op: OpReplace, Path: []any{0}, Value: 11},
		{Op: OpAdd, Path: []any{3}, Value: 40},
	})
	assertPatches(t, inverse, Patches{
		{Op: OpReplace, Path: []any{0}, Value: 10},
		{Op: OpRemove, Path: []any{3}},
	})
}

func TestSequenceLengthShrinkPatches(t *testing.T) {
	base := []any{1, 2, 3, 4}
	result, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		return nil, d.SetLength(2)
	})
	if !reflect.DeepEqual(result, []any{1, 2}) {
		t.Fatalf("expected [1 2], got %v", result)
	}
	assertPatches(t, forward, Patches{
		{Op: OpRemove, Path: []any{3}},
		{Op: OpRemove, Path: []any{2}},
	})
	assertPatches(t, inverse, Patches{
		{Op: OpAdd, Path: []any{2}, Value: 3},
		{Op: OpAdd, Path: []any{3}, Value: 4},
	})

	restored, err := NewProducer().Apply(result, inverse)
	if err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if !reflect.DeepEqual(restored, []any{1, 2, 3, 4}) {
		t.Fatalf("expected inverse to restore [1 2 3 4], got %v", restored)
	}
}

func TestMapValueDraftPatches(t *testing.T) {
	base := collections.MapOf(collections.Entry{Key: "u", Value: map[string]any{"n": "a"}})
	result, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		return nil, childDraft(t, d, "u").Set("n", "b")
	})

	next := result.(*collections.Map)
	inner, _ := next.Get("u")
	if inner.(map[string]any)["n"] != "b" {
		t.Fatalf("expected u.n to be b, got %v", inner)
	}
	baseInner, _ := base.Get("u")
	if baseInner.(map[string]any)["n"] != "a" {
		t.Fatalf("base map value must remain unchanged")
	}
	if reflect.ValueOf(inner).Pointer() == reflect.ValueOf(baseInner).Pointer() {
		t.Fatalf("inner record must be a fresh copy")
	}
	assertPatches(t, forward, Patches{{Op: OpReplace, Path: []any{"u", "n"}, Value: "b"}})
	assertPatches(t, inverse, Patches{{Op: OpReplace, Path: []any{"u", "n"}, Value: "a"}})
}

func TestSetAddRemovePatches(t *testing.T) {
	base := collections.SetOf(1, 2, 3)
	result, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		if _, err := d.Delete(2); err != nil {
			return nil, err
		}
		return nil, d.Add(4)
	})

	values := result.(*collections.Set).Values()
	if !reflect.DeepEqual(values, []any{1, 3, 4}) {
		t.Fatalf("expected iteration order [1 3 4], got %v", values)
	}
	assertPatches(t, forward, Patches{
		{Op: OpRemove, Path: []any{1}, Value: 2},
		{Op: OpAdd, Path: []any{2}, Value: 4},
	})
	assertPatches(t, inverse, Patches{
		{Op: OpAdd, Path: []any{1}, Value: 2},
		{Op: OpRemove, Path: []any{2}, Value: 4},
	})
}

func TestNoTouchEmitsNoPatches(t *testing.T) {
	base := map[string]any{"a": 1}
	result, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		return nil, nil
	})
	if reflect.ValueOf(result).Pointer() != reflect.ValueOf(base).Pointer() {
		t.Fatalf("untouched draft must return the base")
	}
	if len(forward) != 0 || len(inverse) != 0 {
		t.Fatalf("expected no patches, got %v / %v", forward, inverse)
	}
}

func TestRootReplacementPatches(t *testing.T) {
	base := map[string]any{"a": 1}
	_, forward, inverse := producePatches(t, base, func(d *Draft) (any, error) {
		return map[string]any{"a": 3}, nil
	})
	assertPatches(t, forward, Patches{{Op: OpReplace, Path: []any{}, Value: map[string]any{"a": 3}}})
	assertPatches(t, inverse, Patches{{Op: OpReplace, Path: []any{}, Value: base}})
}

func TestPatchRoundTripRestoresValues(t *testing.T) {
	p := NewProducer()
	base := map[string]any{
		"profile": map[string]any{"name": "ada", "logins": 41},
		"tags":    []any{"admin"},
	}
	recipe := func(d *Draft) (any, error) {
		if err := childDraft(t, d, "profile").Set("logins", 42); err != nil {
			return nil, err
		}
		return nil, childDraft(t, d, "tags").Append("oncall")
	}
	next, forward, inverse, err := p.ProduceWithPatches(base, recipe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	replayed, err := p.Apply(base, forward)
	if err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if !reflect.DeepEqual(replayed, next) {
		t.Fatalf("forward replay mismatch: %v vs %v", replayed, next)
	}

	restored, err := p.Apply(next, inverse)
	if err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if !reflect.DeepEqual(restored, base) {
		t.Fatalf("inverse replay mismatch: %v vs %v", restored, base)
	}
}

func TestPatchWireFormat(t *testing.T) {
	patches := Patches{
		{Op: OpReplace, Path: []any{"a", 0}, Value: 9},
		{Op: OpRemove, Path: []any{"b"}},
	}
	payload, err := patches.ToJSON()
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	want := `[{"op":"replace","path":["a",0],"value":9},{"op":"remove","path":["b"]}]`
	if string(payload) != want {
		t.Fatalf("expected %s, got %s", want, payload)
	}

	decoded, err := ParsePatches(payload)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected two patches, got %d", len(decoded))
	}
	if segment, ok := decoded[0].Path[1].(int); !ok || segment != 0 {
		t.Fatalf("expected numeric path segment to decode as int 0, got %T %v", decoded[0].Path[1], decoded[0].Path[1])
	}
	if decoded[1].Value != nil {
		t.Fatalf("remove patch must carry no value, got %v", decoded[1].Value)
	}
}

func TestParsePatchesRejectsUnknownOps(t *testing.T) {
	if _, err := ParsePatches([]byte(`[{"op":"move","path":["a"]}]`)); err == nil {
		t.Fatalf("expected unknown op to fail")
	}
}
