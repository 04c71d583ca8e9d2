package drafts

import "github.com/goliatone/go-drafts/collections"

// mapSet stores value under key, skipping writes that would not change the
// effective entry.
func (st *state) mapSet(key any, value any) error {
	eff := st.effective().(*collections.Map)
	if current, ok := eff.Get(key); ok && collections.Identical(current, value) {
		return nil
	}
	st.prepareCopy()
	st.markChanged()
	if err := st.copy.(*collections.Map).Set(key, value); err != nil {
		return err
	}
	st.recordAssigned(key, true)
	return nil
}

func (st *state) mapDelete(key any) (bool, error) {
	if !st.hasIn(st.effective(), key) {
		return false, nil
	}
	st.prepareCopy()
	st.markChanged()
	if st.base.(*collections.Map).Has(key) {
		st.recordAssigned(key, false)
	} else {
		st.unrecordAssigned(key)
	}
	return st.copy.(*collections.Map).Delete(key)
}

// mapClear empties the map, marking every base key as deleted so patch
// generation sees the removals.
func (st *state) mapClear() error {
	if st.effective().(*collections.Map).Len() == 0 {
		return nil
	}
	st.prepareCopy()
	st.markChanged()
	st.assigned = nil
	st.assignedOrder = nil
	for _, key := range st.base.(*collections.Map).Keys() {
		st.recordAssigned(key, false)
	}
	return st.copy.(*collections.Map).Clear()
}

// Values returns the draft's values, routing each through Get so draftable
// entries come back as drafts.
func (d *Draft) Values() ([]any, error) {
	if err := d.check("values"); err != nil {
		return nil, err
	}
	st := d.s
	switch st.kind {
	case KindMap, KindRecord, KindSequence:
		keys, err := d.Keys()
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, len(keys))
		for _, key := range keys {
			value, err := d.Get(key)
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		return values, nil
	case KindSet:
		return st.setValues(), nil
	default:
		return nil, opError("values", st.kind, nil, ErrUnsupportedOperation)
	}
}

// Entries returns ordered key/value pairs with values routed through Get.
func (d *Draft) Entries() ([]collections.Entry, error) {
	if err := d.check("entries"); err != nil {
		return nil, err
	}
	st := d.s
	switch st.kind {
	case KindMap, KindRecord, KindSequence:
		keys, err := d.Keys()
		if err != nil {
			return nil, err
		}
		entries := make([]collections.Entry, 0, len(keys))
		for _, key := range keys {
			value, err := d.Get(key)
			if err != nil {
				return nil, err
			}
			entries = append(entries, collections.Entry{Key: key, Value: value})
		}
		return entries, nil
	default:
		return nil, opError("entries", st.kind, nil, ErrUnsupportedOperation)
	}
}
