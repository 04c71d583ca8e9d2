package drafts

import "github.com/goliatone/go-drafts/collections"

// setHas matches the element itself or the draft previously issued for it.
func (st *state) setHas(value any) bool {
	if st.copy == nil {
		return st.base.(*collections.Set).Has(value)
	}
	cp := st.copy.(*collections.Set)
	if cp.Has(value) {
		return true
	}
	if child := st.setDraftFor(value); child != nil && cp.Has(child) {
		return true
	}
	return false
}

func (st *state) setAdd(value any) error {
	if st.setHas(value) {
		return nil
	}
	st.prepareSetCopy()
	st.markChanged()
	return st.copy.(*collections.Set).Add(value)
}

func (st *state) setRemove(value any) (bool, error) {
	if !st.setHas(value) {
		return false, nil
	}
	st.prepareSetCopy()
	st.markChanged()
	cp := st.copy.(*collections.Set)
	removed, err := cp.Delete(value)
	if err != nil {
		return false, err
	}
	if !removed {
		if child := st.setDraftFor(value); child != nil {
			return cp.Delete(child)
		}
	}
	return removed, nil
}

func (st *state) setClear() error {
	st.prepareSetCopy()
	st.markChanged()
	return st.copy.(*collections.Set).Clear()
}

// setValues materializes the copy so every draftable element is addressable
// as a draft before iteration starts.
func (st *state) setValues() []any {
	st.prepareSetCopy()
	return st.copy.(*collections.Set).Values()
}

// Add inserts value into a set draft unless an identical element (or its
// draft) is already present.
func (d *Draft) Add(value any) error {
	if err := d.check("add"); err != nil {
		return err
	}
	st := d.s
	if st.kind != KindSet {
		return opError("add", st.kind, nil, ErrUnsupportedOperation)
	}
	return opError("add", st.kind, nil, st.setAdd(value))
}
