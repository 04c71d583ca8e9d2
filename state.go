package drafts

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-drafts/collections"
)

// state is the per-draft bookkeeping record.
type state struct {
	kind     Kind
	producer *Producer
	scope    *scope
	parent   *state
	self     *Draft

	base any
	copy any

	modified  bool
	finalized bool
	manual    bool
	revoked   bool

	// assigned records which keys were explicitly set (true) or deleted
	// (false) in this draft; assignedOrder keeps first-touch order so patch
	// output is deterministic.
	assigned      map[any]bool
	assignedOrder []any

	// children holds drafts issued for struct-record fields; typed fields
	// cannot store a *Draft directly, so the overlay lives here until
	// finalization writes the resolved values back.
	children map[string]*Draft

	// setDrafts maps original set elements to the drafts issued for them.
	setDrafts []setDraftEntry
}

type setDraftEntry struct {
	base  any
	draft *Draft
}

// Draft is a transparent wrapper around a base value. Reads resolve against
// the base until the first write allocates a shallow copy; nested draftable
// values are wrapped lazily on first read.
type Draft struct {
	s *state
}

func newDraftIn(p *Producer, sc *scope, parent *state, base any) *Draft {
	st := &state{
		kind:     KindOf(base),
		producer: p,
		scope:    sc,
		parent:   parent,
		base:     base,
	}
	d := &Draft{s: st}
	st.self = d
	if sc != nil {
		sc.drafts = append(sc.drafts, d)
	}
	return d
}

// Kind returns the draft's container kind.
func (d *Draft) Kind() Kind {
	if d == nil || d.s == nil {
		return KindOpaque
	}
	return d.s.kind
}

// Base returns the original value the draft wraps. The base is never mutated
// by the engine.
func (d *Draft) Base() any {
	if d == nil || d.s == nil {
		return nil
	}
	return d.s.base
}

func (d *Draft) check(op string) error {
	if d == nil || d.s == nil {
		return fmt.Errorf("%w: nil draft", ErrBadArgument)
	}
	if d.s.revoked {
		return opError(op, d.s.kind, nil, ErrDraftRevoked)
	}
	if d.s.kind == KindOpaque {
		return opError(op, KindOpaque, nil, ErrUnsupportedOperation)
	}
	return nil
}

// IsDraft reports whether v is a live or revoked draft handle.
func IsDraft(v any) bool {
	d, ok := v.(*Draft)
	return ok && d != nil && d.s != nil
}

// Original returns the base value behind a draft, unwrapping nothing else.
func Original(v any) (any, bool) {
	d, ok := v.(*Draft)
	if !ok || d == nil || d.s == nil {
		return nil, false
	}
	return d.s.base, true
}

func (st *state) effective() any {
	if st.copy != nil {
		return st.copy
	}
	return st.base
}

func (st *state) prepareCopy() {
	if st.copy != nil {
		return
	}
	if st.kind == KindSet {
		st.prepareSetCopy()
		return
	}
	st.copy = shallowCopy(st.base, st.producer.copyModeFor(st.base))
}

// prepareSetCopy materializes the set copy by walking the base in order and
// drafting every draftable element, so the draft tree is addressable before
// iteration or mutation starts.
func (st *state) prepareSetCopy() {
	if st.copy != nil {
		return
	}
	base := st.base.(*collections.Set)
	cp := collections.NewSet()
	base.Range(func(value any) bool {
		if IsDraftable(value) {
			child := newDraftIn(st.producer, st.scope, st, value)
			st.setDrafts = append(st.setDrafts, setDraftEntry{base: value, draft: child})
			_ = cp.Add(child)
		} else {
			_ = cp.Add(value)
		}
		return true
	})
	st.copy = cp
}

func (st *state) setDraftFor(value any) *Draft {
	for _, entry := range st.setDrafts {
		if collections.Identical(entry.base, value) {
			return entry.draft
		}
	}
	return nil
}

// markChanged flips the sticky modified flag and propagates it eagerly to
// the root.
func (st *state) markChanged() {
	if st.modified {
		return
	}
	st.modified = true
	st.prepareCopy()
	if st.parent != nil {
		st.parent.markChanged()
	}
}

func (st *state) recordAssigned(key any, set bool) {
	if st.assigned == nil {
		st.assigned = make(map[any]bool)
	}
	if _, seen := st.assigned[key]; !seen {
		st.assignedOrder = append(st.assignedOrder, key)
	}
	st.assigned[key] = set
}

func (st *state) unrecordAssigned(key any) {
	if st.assigned == nil {
		return
	}
	if _, seen := st.assigned[key]; !seen {
		return
	}
	delete(st.assigned, key)
	for i, k := range st.assignedOrder {
		if k == key {
			st.assignedOrder = append(st.assignedOrder[:i], st.assignedOrder[i+1:]...)
			break
		}
	}
}

func (st *state) hasAssignedKey(key any) bool {
	if st.assigned == nil {
		return false
	}
	_, ok := st.assigned[key]
	return ok
}

// peekIn resolves key against an arbitrary container without drafting.
// Struct records consult the children overlay first.
func (st *state) peekIn(container any, key any) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		name, ok := key.(string)
		if !ok {
			return nil, false
		}
		value, present := c[name]
		return value, present
	case []any:
		i, ok := key.(int)
		if !ok || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	case *collections.Map:
		return c.Get(key)
	default:
		name, ok := key.(string)
		if !ok {
			return nil, false
		}
		if container == st.copy && st.children != nil {
			if child, present := st.children[name]; present {
				return child, true
			}
		}
		return structField(container, name)
	}
}

func (st *state) hasIn(container any, key any) bool {
	_, present := st.peekIn(container, key)
	return present
}

// storeIn writes value under key into an arbitrary container. Struct records
// divert draft values into the children overlay.
func (st *state) storeIn(container any, key any, value any) error {
	switch c := container.(type) {
	case map[string]any:
		name, ok := key.(string)
		if !ok {
			return fmt.Errorf("%w: record key must be a string", ErrBadArgument)
		}
		c[name] = value
		return nil
	case []any:
		i, ok := key.(int)
		if !ok || i < 0 || i >= len(c) {
			return fmt.Errorf("%w: index %v out of range", ErrBadArgument, key)
		}
		c[i] = value
		return nil
	case *collections.Map:
		return c.Set(key, value)
	case *collections.Set:
		return c.Add(value)
	default:
		name, ok := key.(string)
		if !ok {
			return fmt.Errorf("%w: record key must be a string", ErrBadArgument)
		}
		if child, isDraft := value.(*Draft); isDraft {
			if st.children == nil {
				st.children = make(map[string]*Draft)
			}
			st.children[name] = child
			return nil
		}
		if st.children != nil {
			delete(st.children, name)
		}
		return setStructField(container, name, value)
	}
}

func (st *state) removeIn(container any, key any) {
	switch c := container.(type) {
	case map[string]any:
		if name, ok := key.(string); ok {
			delete(c, name)
		}
	case *collections.Map:
		_, _ = c.Delete(key)
	}
}

func structField(container any, name string) (any, bool) {
	rv := reflect.ValueOf(container)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	elem := rv.Elem()
	sf, ok := elem.Type().FieldByName(name)
	if !ok || sf.PkgPath != "" {
		return nil, false
	}
	return elem.FieldByIndex(sf.Index).Interface(), true
}

func setStructField(container any, name string, value any) error {
	rv := reflect.ValueOf(container)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: not a struct record", ErrBadArgument)
	}
	elem := rv.Elem()
	sf, ok := elem.Type().FieldByName(name)
	if !ok || sf.PkgPath != "" {
		return fmt.Errorf("%w: unknown field %q", ErrBadArgument, name)
	}
	field := elem.FieldByIndex(sf.Index)
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("%w: %T is not assignable to field %q", ErrBadArgument, value, name)
	}
	field.Set(vv)
	return nil
}

func structKeys(container any) []string {
	rv := reflect.ValueOf(container)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	t := rv.Elem().Type()
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		keys = append(keys, t.Field(i).Name)
	}
	return keys
}
