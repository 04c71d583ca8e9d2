package drafts

import (
	"reflect"

	"github.com/goliatone/go-drafts/collections"
)

type frozenKey struct {
	ptr uintptr
	typ reflect.Type
}

// maybeFreeze applies the freeze hook when policy allows: only the root
// scope freezes, only when auto-freeze is configured, and only while no
// cross-scope draft disabled it.
func (p *Producer) maybeFreeze(sc *scope, value any, deep bool) {
	if p.cfg.autoFreeze && sc.canAutoFreeze && sc.parent == nil {
		p.freeze(value, deep)
	}
}

// freeze marks value read-only. Collection containers reject further
// mutation with ErrFrozenMutation; native maps and slices are recorded in
// the producer's identity set so finalization short-circuits them.
func (p *Producer) freeze(value any, deep bool) {
	if !IsDraftable(value) || IsDraft(value) || p.isFrozen(value) {
		return
	}
	p.markFrozen(value)
	switch v := value.(type) {
	case *collections.Map:
		v.Freeze()
	case *collections.Set:
		v.Freeze()
	}
	if !deep {
		return
	}
	_ = p.eachChild(value, func(_ any, child any) error {
		p.freeze(child, true)
		return nil
	})
}

// IsFrozen reports whether the producer has finalized and frozen value.
func (p *Producer) IsFrozen(value any) bool {
	return p.isFrozen(value)
}

func (p *Producer) isFrozen(value any) bool {
	switch v := value.(type) {
	case *collections.Map:
		return v.Frozen()
	case *collections.Set:
		return v.Frozen()
	}
	key, ok := identityOf(value)
	if !ok {
		return false
	}
	_, frozen := p.frozen[key]
	return frozen
}

func (p *Producer) markFrozen(value any) {
	key, ok := identityOf(value)
	if !ok {
		return
	}
	if p.frozen == nil {
		p.frozen = make(map[frozenKey]struct{})
	}
	p.frozen[key] = struct{}{}
}

func identityOf(value any) (frozenKey, bool) {
	if value == nil {
		return frozenKey{}, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return frozenKey{}, false
		}
		return frozenKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Cap() == 0 {
			return frozenKey{}, false
		}
		return frozenKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	default:
		return frozenKey{}, false
	}
}
