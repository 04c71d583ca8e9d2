package drafts

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-drafts/collections"
)

// Get returns the value stored under key, wrapping draftable children in
// child drafts on first read. Missing keys resolve to nil.
func (d *Draft) Get(key any) (any, error) {
	if err := d.check("get"); err != nil {
		return nil, err
	}
	st := d.s
	switch st.kind {
	case KindRecord:
		name, err := recordKey(key)
		if err != nil {
			return nil, opError("get", st.kind, key, err)
		}
		return st.getValue(name)
	case KindSequence:
		index, err := sequenceIndex(key)
		if err != nil {
			return nil, opError("get", st.kind, key, err)
		}
		return st.sequenceGet(index)
	case KindMap:
		return st.getValue(key)
	default:
		return nil, opError("get", st.kind, key, ErrUnsupportedOperation)
	}
}

// Set stores value under key. Writing a value identical to the current one
// is a no-op and does not mark the draft modified.
func (d *Draft) Set(key any, value any) error {
	if err := d.check("set"); err != nil {
		return err
	}
	st := d.s
	switch st.kind {
	case KindRecord:
		name, err := recordKey(key)
		if err != nil {
			return opError("set", st.kind, key, err)
		}
		return opError("set", st.kind, key, st.setValue(name, value))
	case KindSequence:
		return opError("set", st.kind, key, st.sequenceSet(key, value))
	case KindMap:
		return opError("set", st.kind, key, st.mapSet(key, value))
	default:
		return opError("set", st.kind, key, ErrUnsupportedOperation)
	}
}

// Delete removes key (or, for sets, the element), reporting whether it was
// present. Deleting a sequence index stores nil at that index.
func (d *Draft) Delete(key any) (bool, error) {
	if err := d.check("delete"); err != nil {
		return false, err
	}
	st := d.s
	switch st.kind {
	case KindRecord:
		name, err := recordKey(key)
		if err != nil {
			return false, opError("delete", st.kind, key, err)
		}
		present := st.hasIn(st.effective(), name)
		return present, opError("delete", st.kind, key, st.deleteValue(name))
	case KindSequence:
		index, err := sequenceIndex(key)
		if err != nil {
			return false, opError("delete", st.kind, key, err)
		}
		if index >= len(st.effective().([]any)) {
			return false, nil
		}
		return true, opError("delete", st.kind, key, st.sequenceSet(index, nil))
	case KindMap:
		return st.mapDelete(key)
	case KindSet:
		return st.setRemove(key)
	default:
		return false, opError("delete", st.kind, key, ErrUnsupportedOperation)
	}
}

// Has reports whether key (or, for sets, the element) is present.
func (d *Draft) Has(key any) (bool, error) {
	if err := d.check("has"); err != nil {
		return false, err
	}
	st := d.s
	switch st.kind {
	case KindRecord:
		name, err := recordKey(key)
		if err != nil {
			return false, opError("has", st.kind, key, err)
		}
		return st.hasIn(st.effective(), name), nil
	case KindSequence:
		index, err := sequenceIndex(key)
		if err != nil {
			return false, opError("has", st.kind, key, err)
		}
		return st.hasIn(st.effective(), index), nil
	case KindMap:
		return st.hasIn(st.effective(), key), nil
	case KindSet:
		return st.setHas(key), nil
	default:
		return false, opError("has", st.kind, key, ErrUnsupportedOperation)
	}
}

// Len returns the number of entries or elements.
func (d *Draft) Len() (int, error) {
	if err := d.check("len"); err != nil {
		return 0, err
	}
	st := d.s
	switch eff := st.effective().(type) {
	case map[string]any:
		return len(eff), nil
	case []any:
		return len(eff), nil
	case *collections.Map:
		return eff.Len(), nil
	case *collections.Set:
		return eff.Len(), nil
	default:
		return len(structKeys(eff)), nil
	}
}

// Keys returns the draft's own keys: sorted keys for map records, exported
// field names in declaration order for struct records, indices for
// sequences, insertion-ordered keys for maps.
func (d *Draft) Keys() ([]any, error) {
	if err := d.check("keys"); err != nil {
		return nil, err
	}
	st := d.s
	switch eff := st.effective().(type) {
	case map[string]any:
		return sortedRecordKeys(eff), nil
	case []any:
		keys := make([]any, len(eff))
		for i := range eff {
			keys[i] = i
		}
		return keys, nil
	case *collections.Map:
		return eff.Keys(), nil
	default:
		names := structKeys(eff)
		keys := make([]any, len(names))
		for i, name := range names {
			keys[i] = name
		}
		return keys, nil
	}
}

// Clear empties a map or set draft.
func (d *Draft) Clear() error {
	if err := d.check("clear"); err != nil {
		return err
	}
	st := d.s
	switch st.kind {
	case KindMap:
		return opError("clear", st.kind, nil, st.mapClear())
	case KindSet:
		return opError("clear", st.kind, nil, st.setClear())
	default:
		return opError("clear", st.kind, nil, ErrUnsupportedOperation)
	}
}

// getValue implements the shared read path for record and map drafts.
func (st *state) getValue(key any) (any, error) {
	value, present := st.peekIn(st.effective(), key)
	if !present {
		return nil, nil
	}
	return st.draftChild(key, value)
}

// draftChild wraps value in a child draft when it is draftable and still the
// reference the base holds. Later reads return the stored child.
func (st *state) draftChild(key any, value any) (any, error) {
	if st.finalized || !IsDraftable(value) || IsDraft(value) {
		return value, nil
	}
	baseValue, inBase := st.peekIn(st.base, key)
	if !inBase || !collections.Identical(value, baseValue) {
		return value, nil
	}
	st.prepareCopy()
	child := newDraftIn(st.producer, st.scope, st, value)
	if err := st.storeIn(st.copy, key, child); err != nil {
		return nil, err
	}
	return child, nil
}

// setValue implements the shared write path for record and sequence drafts.
func (st *state) setValue(key any, value any) error {
	if !st.modified {
		current, _ := st.peekIn(st.effective(), key)
		if child, ok := current.(*Draft); ok && child.s != nil && collections.Identical(child.s.base, value) {
			// Writing a child draft's own base back over it only records the
			// mapping; the key stays untouched for patch purposes.
			st.prepareCopy()
			if err := st.storeIn(st.copy, key, value); err != nil {
				return err
			}
			st.unrecordAssigned(key)
			return nil
		}
		if collections.Identical(value, current) && (value != nil || st.hasIn(st.base, key)) {
			return nil
		}
		st.prepareCopy()
		st.markChanged()
	}
	stored, present := st.peekIn(st.copy, key)
	if collections.Identical(stored, value) && (value != nil || present) {
		return nil
	}
	if err := st.storeIn(st.copy, key, value); err != nil {
		return err
	}
	st.recordAssigned(key, true)
	return nil
}

// deleteValue implements the shared delete path for record drafts.
func (st *state) deleteValue(key any) error {
	if _, mapRecord := st.base.(map[string]any); !mapRecord {
		return fmt.Errorf("%w: struct fields cannot be deleted", ErrUnsupportedOperation)
	}
	if st.hasIn(st.base, key) {
		st.recordAssigned(key, false)
		st.prepareCopy()
		st.markChanged()
	} else {
		st.unrecordAssigned(key)
	}
	if st.copy != nil {
		st.removeIn(st.copy, key)
	}
	return nil
}

func recordKey(key any) (string, error) {
	name, ok := key.(string)
	if !ok {
		return "", fmt.Errorf("%w: record keys must be strings, got %T", ErrBadArgument, key)
	}
	return name, nil
}

func sequenceIndex(key any) (int, error) {
	index, ok := normalizeIndex(key)
	if !ok {
		return 0, fmt.Errorf("%w: sequence keys must be non-negative integers, got %v", ErrUnsupportedOperation, key)
	}
	return index, nil
}

func sortedRecordKeys(record map[string]any) []any {
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)
	keys := make([]any, len(names))
	for i, name := range names {
		keys[i] = name
	}
	return keys
}
