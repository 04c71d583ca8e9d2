package drafts

import (
	"fmt"
	"math"
)

// sequenceGet reads index, drafting draftable elements on first read.
func (st *state) sequenceGet(index int) (any, error) {
	eff := st.effective().([]any)
	if index >= len(eff) {
		return nil, nil
	}
	return st.draftChild(index, eff[index])
}

// sequenceSet accepts integer indices plus the key "length". Writes past the
// current length grow the sequence with nil holes.
func (st *state) sequenceSet(key any, value any) error {
	if name, ok := key.(string); ok && name == "length" {
		n, ok := normalizeIndex(value)
		if !ok {
			return fmt.Errorf("%w: length must be a non-negative integer", ErrBadArgument)
		}
		return st.sequenceSetLength(n)
	}
	index, err := sequenceIndex(key)
	if err != nil {
		return err
	}
	if index < len(st.effective().([]any)) {
		return st.setValue(index, value)
	}
	st.prepareCopy()
	st.markChanged()
	cp := st.copy.([]any)
	for len(cp) < index {
		cp = append(cp, nil)
	}
	cp = append(cp, value)
	st.copy = cp
	st.recordAssigned(index, true)
	return nil
}

func (st *state) sequenceSetLength(n int) error {
	eff := st.effective().([]any)
	if n == len(eff) {
		return nil
	}
	st.prepareCopy()
	st.markChanged()
	cp := st.copy.([]any)
	if n < len(cp) {
		cp = cp[:n]
	} else {
		for len(cp) < n {
			cp = append(cp, nil)
		}
	}
	st.copy = cp
	return nil
}

// Append adds values to the end of a sequence draft.
func (d *Draft) Append(values ...any) error {
	if err := d.check("append"); err != nil {
		return err
	}
	st := d.s
	if st.kind != KindSequence {
		return opError("append", st.kind, nil, ErrUnsupportedOperation)
	}
	for _, value := range values {
		if err := st.sequenceSet(len(st.effective().([]any)), value); err != nil {
			return opError("append", st.kind, nil, err)
		}
	}
	return nil
}

// SetLength truncates or extends a sequence draft; extension fills with nil.
func (d *Draft) SetLength(n int) error {
	if err := d.check("setLength"); err != nil {
		return err
	}
	st := d.s
	if st.kind != KindSequence {
		return opError("setLength", st.kind, nil, ErrUnsupportedOperation)
	}
	if n < 0 {
		return opError("setLength", st.kind, n, fmt.Errorf("%w: negative length", ErrBadArgument))
	}
	return opError("setLength", st.kind, n, st.sequenceSetLength(n))
}

// Insert splices value into the sequence at index, shifting later elements.
func (d *Draft) Insert(index int, value any) error {
	if err := d.check("insert"); err != nil {
		return err
	}
	st := d.s
	if st.kind != KindSequence {
		return opError("insert", st.kind, index, ErrUnsupportedOperation)
	}
	eff := st.effective().([]any)
	if index < 0 || index > len(eff) {
		return opError("insert", st.kind, index, fmt.Errorf("%w: index out of range", ErrBadArgument))
	}
	st.prepareCopy()
	st.markChanged()
	cp := st.copy.([]any)
	cp = append(cp, nil)
	copy(cp[index+1:], cp[index:])
	cp[index] = value
	st.copy = cp
	for i := index; i < len(cp); i++ {
		st.recordAssigned(i, true)
	}
	return nil
}

// RemoveAt splices one element out of the sequence at index.
func (d *Draft) RemoveAt(index int) error {
	if err := d.check("removeAt"); err != nil {
		return err
	}
	st := d.s
	if st.kind != KindSequence {
		return opError("removeAt", st.kind, index, ErrUnsupportedOperation)
	}
	eff := st.effective().([]any)
	if index < 0 || index >= len(eff) {
		return opError("removeAt", st.kind, index, fmt.Errorf("%w: index out of range", ErrBadArgument))
	}
	st.prepareCopy()
	st.markChanged()
	cp := st.copy.([]any)
	cp = append(cp[:index], cp[index+1:]...)
	st.copy = cp
	for i := index; i < len(cp); i++ {
		st.recordAssigned(i, true)
	}
	return nil
}

// normalizeIndex coerces integer-valued keys (including the float64 values
// JSON decoding yields) into a non-negative int.
func normalizeIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, k >= 0
	case int32:
		return int(k), k >= 0
	case int64:
		return int(k), k >= 0
	case uint:
		return int(k), true
	case float64:
		if k < 0 || k != math.Trunc(k) {
			return 0, false
		}
		return int(k), true
	default:
		return 0, false
	}
}
