package drafts

import (
	"fmt"

	"github.com/goliatone/go-drafts/collections"
)

// Snapshot returns a fully substituted, draft-free view of a live draft
// without finalizing it. Unmodified drafts resolve to their base; modified
// drafts produce independent shallow copies with children snapshotted
// recursively.
func Snapshot(d *Draft) (any, error) {
	if d == nil || d.s == nil {
		return nil, fmt.Errorf("%w: nil draft", ErrBadArgument)
	}
	if d.s.revoked {
		return nil, fmt.Errorf("snapshot: %w", ErrDraftRevoked)
	}
	return currentValue(d), nil
}

func currentValue(d *Draft) any {
	st := d.s
	if st.kind == KindOpaque {
		return st.base
	}
	if !st.modified {
		return st.base
	}

	// Guard against side-effectful reads creating new child drafts while
	// the tree is being walked.
	wasFinalized := st.finalized
	st.finalized = true
	cp := shallowCopy(st.copy, st.producer.copyModeFor(st.base))
	st.finalized = wasFinalized

	switch c := cp.(type) {
	case map[string]any:
		for key, value := range c {
			c[key] = snapshotChild(value)
		}
	case []any:
		for i, value := range c {
			c[i] = snapshotChild(value)
		}
	case *collections.Map:
		for _, entry := range c.Entries() {
			_ = c.Set(entry.Key, snapshotChild(entry.Value))
		}
	case *collections.Set:
		values := c.Values()
		_ = c.Clear()
		for _, value := range values {
			_ = c.Add(snapshotChild(value))
		}
	default:
		for name, child := range st.children {
			_ = setStructField(cp, name, snapshotChild(child))
		}
	}
	return cp
}

func snapshotChild(value any) any {
	if d, ok := value.(*Draft); ok {
		return currentValue(d)
	}
	return value
}
