package drafts

import "github.com/goliatone/go-drafts/collections"

// generatePatches derives the forward and inverse patches for one finalized
// draft, appending to the scope buffers.
func (p *Producer) generatePatches(st *state, basePath []any, patches, inverse *Patches) {
	switch st.kind {
	case KindRecord, KindMap:
		p.generateAssignedPatches(st, basePath, patches, inverse)
	case KindSequence:
		p.generateSequencePatches(st, basePath, patches, inverse)
	case KindSet:
		p.generateSetPatches(st, basePath, patches, inverse)
	}
}

// generateAssignedPatches resolves the per-key assignment log into patches:
// deleted keys become removes, keys absent from the base become adds, the
// rest become replaces unless old and new are identical.
func (p *Producer) generateAssignedPatches(st *state, basePath []any, patches, inverse *Patches) {
	for _, key := range st.assignedOrder {
		origValue, inBase := st.peekIn(st.base, key)
		value, _ := st.peekIn(st.copy, key)

		var op Op
		switch {
		case !st.assigned[key]:
			op = OpRemove
		case inBase:
			op = OpReplace
		default:
			op = OpAdd
		}
		if op == OpReplace && collections.Identical(origValue, value) {
			continue
		}

		path := appendPath(basePath, key)
		switch op {
		case OpRemove:
			*patches = append(*patches, Patch{Op: OpRemove, Path: path})
			*inverse = append(*inverse, Patch{Op: OpAdd, Path: path, Value: clonePatchValueIfNeeded(origValue)})
		case OpAdd:
			*patches = append(*patches, Patch{Op: OpAdd, Path: path, Value: clonePatchValueIfNeeded(value)})
			*inverse = append(*inverse, Patch{Op: OpRemove, Path: path})
		default:
			*patches = append(*patches, Patch{Op: OpReplace, Path: path, Value: clonePatchValueIfNeeded(value)})
			*inverse = append(*inverse, Patch{Op: OpReplace, Path: path, Value: clonePatchValueIfNeeded(origValue)})
		}
	}
}

// generateSequencePatches emits index-stable replaces plus append/truncate
// pairs. When the copy is shorter than the base the roles of (base, copy)
// and (patches, inverse) swap, halving the case analysis.
func (p *Producer) generateSequencePatches(st *state, basePath []any, patches, inverse *Patches) {
	base := st.base.([]any)
	cp := st.copy.([]any)

	fwd, inv := patches, inverse
	if len(cp) < len(base) {
		base, cp = cp, base
		fwd, inv = inverse, patches
	}

	for i := 0; i < len(base); i++ {
		if st.assigned[i] && !collections.Identical(base[i], cp[i]) {
			path := appendPath(basePath, i)
			*fwd = append(*fwd, Patch{Op: OpReplace, Path: path, Value: clonePatchValueIfNeeded(cp[i])})
			*inv = append(*inv, Patch{Op: OpReplace, Path: path, Value: clonePatchValueIfNeeded(base[i])})
		}
	}
	for i := len(base); i < len(cp); i++ {
		path := appendPath(basePath, i)
		*fwd = append(*fwd, Patch{Op: OpAdd, Path: path, Value: clonePatchValueIfNeeded(cp[i])})
	}
	for i := len(cp) - 1; i >= len(base); i-- {
		path := appendPath(basePath, i)
		*inv = append(*inv, Patch{Op: OpRemove, Path: path})
	}
}

// generateSetPatches derives whole-element set differences. Inverse entries
// are assembled re-insertions first so replaying the inverse list restores
// removed members before undoing additions.
func (p *Producer) generateSetPatches(st *state, basePath []any, patches, inverse *Patches) {
	baseSet := st.base.(*collections.Set)
	copySet := st.copy.(*collections.Set)

	var inverseAdds, inverseRemoves Patches
	i := 0
	baseSet.Range(func(value any) bool {
		if !copySet.Has(value) {
			path := appendPath(basePath, i)
			*patches = append(*patches, Patch{Op: OpRemove, Path: path, Value: clonePatchValueIfNeeded(value)})
			inverseAdds = append(Patches{{Op: OpAdd, Path: path, Value: clonePatchValueIfNeeded(value)}}, inverseAdds...)
		}
		i++
		return true
	})
	i = 0
	copySet.Range(func(value any) bool {
		if !baseSet.Has(value) {
			path := appendPath(basePath, i)
			*patches = append(*patches, Patch{Op: OpAdd, Path: path, Value: clonePatchValueIfNeeded(value)})
			inverseRemoves = append(Patches{{Op: OpRemove, Path: path, Value: clonePatchValueIfNeeded(value)}}, inverseRemoves...)
		}
		i++
		return true
	})
	*inverse = append(*inverse, inverseAdds...)
	*inverse = append(*inverse, inverseRemoves...)
}

// clonePatchValueIfNeeded deep-clones values that are still drafts so later
// mutation of an emitted patch cannot feed back into the draft tree.
func clonePatchValueIfNeeded(v any) any {
	if d, ok := v.(*Draft); ok {
		return deepClone(currentValue(d))
	}
	return v
}
