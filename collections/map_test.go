package collections

import (
	"errors"
	"testing"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	for _, key := range []string{"c", "a", "b"} {
		if err := m.Set(key, key); err != nil {
			t.Fatalf("unexpected error setting %q: %v", key, err)
		}
	}
	keys := m.Keys()
	want := []string{"c", "a", "b"}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("expected key %d to be %q, got %v", i, key, keys[i])
		}
	}

	if err := m.Set("a", "again"); err != nil {
		t.Fatalf("unexpected error overwriting: %v", err)
	}
	if got := m.Keys(); len(got) != 3 || got[1] != "a" {
		t.Fatalf("overwrite should not reorder keys, got %v", got)
	}
}

func TestMapDeleteCompactsOrder(t *testing.T) {
	m := MapOf(Entry{Key: "x", Value: 1}, Entry{Key: "y", Value: 2}, Entry{Key: "z", Value: 3})
	removed, err := m.Delete("y")
	if err != nil || !removed {
		t.Fatalf("expected delete to remove y, got removed=%v err=%v", removed, err)
	}
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "x" || keys[1] != "z" {
		t.Fatalf("expected keys [x z], got %v", keys)
	}
	if removed, _ := m.Delete("y"); removed {
		t.Fatalf("expected second delete to report absence")
	}
}

func TestMapRejectsUncomparableKeys(t *testing.T) {
	m := NewMap()
	if err := m.Set(map[string]any{}, 1); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMapFreezeRejectsMutation(t *testing.T) {
	m := MapOf(Entry{Key: "k", Value: 1})
	m.Freeze()
	if !m.Frozen() {
		t.Fatalf("expected map to report frozen")
	}
	if err := m.Set("k", 2); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen from Set, got %v", err)
	}
	if _, err := m.Delete("k"); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen from Delete, got %v", err)
	}
	if err := m.Clear(); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen from Clear, got %v", err)
	}
	if value, ok := m.Get("k"); !ok || value != 1 {
		t.Fatalf("reads should still work on frozen map, got %v %v", value, ok)
	}
}

func TestMapCloneIsDetachedAndUnfrozen(t *testing.T) {
	m := MapOf(Entry{Key: "k", Value: 1})
	m.Freeze()
	clone := m.Clone()
	if clone.Frozen() {
		t.Fatalf("clone should not inherit frozen state")
	}
	if err := clone.Set("k", 2); err != nil {
		t.Fatalf("unexpected error mutating clone: %v", err)
	}
	if value, _ := m.Get("k"); value != 1 {
		t.Fatalf("mutating clone should not affect original, got %v", value)
	}
}
