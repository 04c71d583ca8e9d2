package drafts

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-drafts/collections"
)

// finishRun turns the scope's root draft (or the recipe's replacement value)
// into the final immutable result, revokes the scope, and flushes patches.
func (p *Producer) finishRun(sc *scope, result any) (any, error) {
	sc.unfinalized = len(sc.drafts)
	root := sc.drafts[0]

	replacement := result != nil
	if d, ok := result.(*Draft); ok && d == root {
		replacement = false
	}

	var out any
	var err error
	if replacement {
		if root.s.modified {
			p.revokeScope(sc)
			return nil, ErrModifiedAndReturned
		}
		out = result
		if IsDraftable(out) {
			out, err = p.finalizeValue(sc, out, nil)
			if err != nil {
				p.revokeScope(sc)
				return nil, err
			}
			p.maybeFreeze(sc, out, true)
		}
		if sc.trackingPatches() {
			replaceValue := out
			if replaceValue == Nothing {
				replaceValue = nil
			}
			sc.patches = append(sc.patches, Patch{Op: OpReplace, Path: []any{}, Value: clonePatchValueIfNeeded(replaceValue)})
			sc.inverse = append(sc.inverse, Patch{Op: OpReplace, Path: []any{}, Value: root.s.base})
		}
	} else {
		var path []any
		if sc.trackingPatches() {
			path = []any{}
		}
		out, err = p.finalizeValue(sc, root, path)
		if err != nil {
			p.revokeScope(sc)
			return nil, err
		}
	}

	p.revokeScope(sc)
	if sc.trackingPatches() {
		sc.listener(sc.patches, sc.inverse)
	}
	if out == Nothing {
		out = nil
	}
	return out, nil
}

// finalizeValue resolves value into its final form: the base for unmodified
// drafts, the reconciled copy for modified ones, the value itself otherwise.
// A non-nil path enables patch emission for the subtree.
func (p *Producer) finalizeValue(sc *scope, value any, path []any) (any, error) {
	if p.isFrozen(value) {
		return value, nil
	}
	d, isDraftValue := value.(*Draft)
	if !isDraftValue {
		if !IsDraftable(value) {
			return value, nil
		}
		// A plain draftable handed back by the recipe may still hold drafts
		// inside fresh substructure.
		err := p.eachChild(value, func(key any, child any) error {
			return p.finalizeProperty(sc, nil, value, key, child, path, false)
		})
		return value, err
	}

	st := d.s
	if st.scope != sc {
		return value, nil
	}
	if !st.modified {
		p.maybeFreeze(sc, st.base, true)
		return st.base, nil
	}
	if !st.finalized {
		st.finalized = true
		st.scope.unfinalized--
		result := st.copy

		if st.kind == KindSet {
			// Snapshot and clear so re-insertion rewrites membership in
			// order, resolving drafted elements.
			set := result.(*collections.Set)
			elems := set.Values()
			if err := set.Clear(); err != nil {
				return nil, err
			}
			for _, elem := range elems {
				if err := p.finalizeProperty(sc, st, set, nil, elem, path, true); err != nil {
					return nil, err
				}
			}
		} else {
			if err := p.eachCopyEntry(st, func(key any, child any) error {
				return p.finalizeProperty(sc, st, result, key, child, path, false)
			}); err != nil {
				return nil, err
			}
		}

		p.maybeFreeze(sc, result, false)
		if path != nil && sc.trackingPatches() {
			p.generatePatches(st, path, &sc.patches, &sc.inverse)
		}
	}
	return st.copy, nil
}

// finalizeProperty reconciles one child slot of a finalizing container.
func (p *Producer) finalizeProperty(sc *scope, parent *state, target any, key any, childValue any, rootPath []any, targetIsSet bool) error {
	if childValue != nil && collections.Identical(childValue, target) {
		return fmt.Errorf("%w: value contains itself", ErrCircularReference)
	}
	if IsDraft(childValue) {
		// Extend the path only for children reached by read-through; keys
		// recorded in assigned emit their own patches, and set members are
		// patched as whole elements at the set level.
		var childPath []any
		if rootPath != nil && parent != nil && parent.kind != KindSet && !parent.hasAssignedKey(key) {
			childPath = appendPath(rootPath, key)
		}
		res, err := p.finalizeValue(sc, childValue, childPath)
		if err != nil {
			return err
		}
		if err := storeFinalized(parent, target, key, res); err != nil {
			return err
		}
		if IsDraft(res) {
			sc.canAutoFreeze = false
		}
		return nil
	}
	if targetIsSet {
		if err := target.(*collections.Set).Add(childValue); err != nil {
			return err
		}
	}
	if IsDraftable(childValue) && !p.isFrozen(childValue) {
		if !p.cfg.autoFreeze && sc.unfinalized < 1 {
			// Bulk-paste escape: nothing left to finalize and no freezing
			// to do, so skip the deep scan.
			return nil
		}
		if _, err := p.finalizeValue(sc, childValue, nil); err != nil {
			return err
		}
		if parent == nil || parent.scope == nil || parent.scope.parent == nil {
			p.maybeFreeze(sc, childValue, false)
		}
	}
	return nil
}

func storeFinalized(parent *state, target any, key any, value any) error {
	switch c := target.(type) {
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
		if parent != nil && parent.children != nil {
			delete(parent.children, name)
		}
		return setStructField(target, name, value)
	}
}

// eachCopyEntry walks the allocated copy of a modified draft, including the
// struct-record children overlay.
func (p *Producer) eachCopyEntry(st *state, fn func(key any, value any) error) error {
	switch c := st.copy.(type) {
	case map[string]any:
		for _, key := range sortedRecordKeys(c) {
			if err := fn(key, c[key.(string)]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, value := range c {
			if err := fn(i, value); err != nil {
				return err
			}
		}
		return nil
	case *collections.Map:
		for _, entry := range c.Entries() {
			if err := fn(entry.Key, entry.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, name := range structKeys(c) {
			if child, ok := st.children[name]; ok {
				if err := fn(name, child); err != nil {
					return err
				}
				continue
			}
			value, _ := structField(c, name)
			if err := fn(name, value); err != nil {
				return err
			}
		}
		return nil
	}
}

// eachChild walks the entries of a plain (non-draft) container.
func (p *Producer) eachChild(container any, fn func(key any, value any) error) error {
	switch c := container.(type) {
	case map[string]any:
		keys := make([]string, 0, len(c))
		for key := range c {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := fn(key, c[key]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, value := range c {
			if err := fn(i, value); err != nil {
				return err
			}
		}
		return nil
	case *collections.Map:
		for _, entry := range c.Entries() {
			if err := fn(entry.Key, entry.Value); err != nil {
				return err
			}
		}
		return nil
	case *collections.Set:
		for _, value := range c.Values() {
			if err := fn(nil, value); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, name := range structKeys(c) {
			value, _ := structField(c, name)
			if err := fn(name, value); err != nil {
				return err
			}
		}
		return nil
	}
}

func appendPath(path []any, key any) []any {
	out := make([]any, len(path)+1)
	copy(out, path)
	out[len(path)] = key
	return out
}
