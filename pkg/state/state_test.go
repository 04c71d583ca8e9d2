package state

import (
	"context"
	"errors"
	"reflect"
	"testing"

	drafts "github.com/goliatone/go-drafts"
)

func TestRefIdentifier(t *testing.T) {
	if _, err := (Ref{}).Identifier(); err == nil {
		t.Fatalf("expected missing domain to fail")
	}
	id, err := (Ref{Domain: "settings"}).Identifier()
	if err != nil || id != "settings" {
		t.Fatalf("expected domain-only identifier, got %q err=%v", id, err)
	}
	id, err = (Ref{Domain: "settings", Key: "user-1"}).Identifier()
	if err != nil || id != "settings/user-1" {
		t.Fatalf("expected composite identifier, got %q err=%v", id, err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ref := Ref{Domain: "settings", Key: "user-1"}

	if _, _, ok, err := store.Load(context.Background(), ref); err != nil || ok {
		t.Fatalf("expected empty store miss, got ok=%v err=%v", ok, err)
	}

	meta := Meta{SnapshotID: "snap-1", Extra: map[string]string{"by": "test"}}
	if _, err := store.Save(context.Background(), ref, map[string]any{"v": 1}, meta); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	snapshot, loaded, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if snapshot.(map[string]any)["v"] != 1 || loaded.SnapshotID != "snap-1" {
		t.Fatalf("unexpected load result: %v %+v", snapshot, loaded)
	}

	loaded.Extra["by"] = "mutated"
	_, reloaded, _, _ := store.Load(context.Background(), ref)
	if reloaded.Extra["by"] != "test" {
		t.Fatalf("expected metadata to be cloned, got %v", reloaded.Extra)
	}
}

func TestMutateRunsRecipeAndTracksPatches(t *testing.T) {
	store := NewMemoryStore()
	resolver := Resolver{Store: store}
	ref := Ref{Domain: "settings", Key: "user-1"}

	if _, err := store.Save(context.Background(), ref, map[string]any{"count": 1}, Meta{}); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	next, patches, meta, err := resolver.Mutate(context.Background(), ref, Meta{}, func(d *drafts.Draft) (any, error) {
		return nil, d.Set("count", 2)
	})
	if err != nil {
		t.Fatalf("unexpected mutate error: %v", err)
	}
	if next.(map[string]any)["count"] != 2 {
		t.Fatalf("expected mutated snapshot, got %v", next)
	}
	if len(patches) != 1 || patches[0].Op != drafts.OpReplace {
		t.Fatalf("expected one replace patch, got %v", patches)
	}
	if meta.SnapshotID == "" || meta.ETag == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected generated metadata, got %+v", meta)
	}

	stored, _, _, _ := store.Load(context.Background(), ref)
	if stored.(map[string]any)["count"] != 2 {
		t.Fatalf("expected mutation to persist, got %v", stored)
	}
}

func TestMutateStartsFromEmptyRecord(t *testing.T) {
	resolver := Resolver{Store: NewMemoryStore()}
	next, _, _, err := resolver.Mutate(context.Background(), Ref{Domain: "settings"}, Meta{}, func(d *drafts.Draft) (any, error) {
		return nil, d.Set("fresh", true)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.(map[string]any)["fresh"] != true {
		t.Fatalf("expected fresh record, got %v", next)
	}
}

func TestMutateETagConflict(t *testing.T) {
	store := NewMemoryStore()
	resolver := Resolver{Store: store}
	ref := Ref{Domain: "settings"}

	_, _, meta, err := resolver.Mutate(context.Background(), ref, Meta{}, func(d *drafts.Draft) (any, error) {
		return nil, d.Set("v", 1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, _, err := resolver.Mutate(context.Background(), ref, Meta{ETag: "stale"}, func(d *drafts.Draft) (any, error) {
		return nil, d.Set("v", 2)
	}); !errors.Is(err, ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}

	if _, _, _, err := resolver.Mutate(context.Background(), ref, Meta{ETag: meta.ETag}, func(d *drafts.Draft) (any, error) {
		return nil, d.Set("v", 2)
	}); err != nil {
		t.Fatalf("expected matching etag to pass, got %v", err)
	}
}

func TestResolveMergesStoredOverlays(t *testing.T) {
	store := NewMemoryStore()
	resolver := Resolver{Store: store}
	ctx := context.Background()

	if _, err := store.Save(ctx, Ref{Domain: "settings", Key: "team"}, map[string]any{"theme": "dark"}, Meta{}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if _, err := store.Save(ctx, Ref{Domain: "settings", Key: "user"}, map[string]any{"limit": 5}, Meta{}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	defaults := map[string]any{"theme": "light", "limit": 1, "beta": false}
	resolved, err := resolver.Resolve(ctx, "settings", defaults, "team", "user", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"theme": "dark", "limit": 5, "beta": false}
	if !reflect.DeepEqual(resolved, want) {
		t.Fatalf("expected %v, got %v", want, resolved)
	}
	if defaults["theme"] != "light" {
		t.Fatalf("defaults must remain unchanged")
	}
}

func TestResolveWithoutOverlaysReturnsDefaults(t *testing.T) {
	resolver := Resolver{Store: NewMemoryStore()}
	defaults := map[string]any{"v": 1}
	resolved, err := resolver.Resolve(context.Background(), "settings", defaults, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reflect.ValueOf(resolved).Pointer() != reflect.ValueOf(defaults).Pointer() {
		t.Fatalf("expected defaults to pass through untouched")
	}
}
