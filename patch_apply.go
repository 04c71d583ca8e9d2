package drafts

import "fmt"

// Apply replays patches against base and returns the resulting value. When
// base is not already a draft the applier runs inside its own produce call,
// so the usual copy-on-write guarantees hold.
func (p *Producer) Apply(base any, patches Patches) (any, error) {
	// A root replacement supersedes everything before it, so scan tail-first.
	for i := len(patches) - 1; i >= 0; i-- {
		if len(patches[i].Path) == 0 && patches[i].Op == OpReplace {
			base = deepClone(patches[i].Value)
			patches = patches[i+1:]
			break
		}
	}

	if d, ok := base.(*Draft); ok {
		if err := p.applyPatchesTo(d, patches); err != nil {
			return nil, err
		}
		return d, nil
	}
	if !IsDraftable(base) {
		if len(patches) == 0 {
			return base, nil
		}
		return nil, fmt.Errorf("%w: cannot apply patches to %T", ErrNotDraftable, base)
	}
	out, err := p.Produce(base, func(d *Draft) (any, error) {
		return nil, p.applyPatchesTo(d, patches)
	})
	if err != nil {
		return nil, err
	}
	p.emitRunEvent("patches.applied", nil, len(patches), 0)
	return out, nil
}

func (p *Producer) applyPatchesTo(root *Draft, patches Patches) error {
	for _, patch := range patches {
		if len(patch.Path) == 0 {
			return fmt.Errorf("%w: root %s must be the final patch", ErrUnsupportedOperation, patch.Op)
		}
		target := root
		for i := 0; i < len(patch.Path)-1; i++ {
			segment := normalizeSegment(patch.Path[i])
			if err := guardSegment(target.Kind(), segment); err != nil {
				return err
			}
			next, err := target.Get(segment)
			if err != nil {
				return err
			}
			child, ok := next.(*Draft)
			if !ok {
				return fmt.Errorf("%w: segment %v of %v does not resolve to a container", ErrPathUnresolved, segment, patch.Path)
			}
			target = child
		}

		key := normalizeSegment(patch.Path[len(patch.Path)-1])
		if err := guardSegment(target.Kind(), key); err != nil {
			return err
		}

		switch patch.Op {
		case OpReplace:
			if target.Kind() == KindSet {
				return fmt.Errorf("%w: sets cannot be replaced element-wise", ErrUnsupportedOperation)
			}
			if err := target.Set(key, deepClone(patch.Value)); err != nil {
				return err
			}
		case OpAdd:
			switch target.Kind() {
			case KindSequence:
				if name, ok := key.(string); ok && name == "-" {
					if err := target.Append(deepClone(patch.Value)); err != nil {
						return err
					}
					continue
				}
				index, ok := normalizeIndex(key)
				if !ok {
					return fmt.Errorf("%w: sequence add needs an index, got %v", ErrUnsupportedOperation, key)
				}
				if err := target.Insert(index, deepClone(patch.Value)); err != nil {
					return err
				}
			case KindSet:
				if err := target.Add(deepClone(patch.Value)); err != nil {
					return err
				}
			default:
				if err := target.Set(key, deepClone(patch.Value)); err != nil {
					return err
				}
			}
		case OpRemove:
			switch target.Kind() {
			case KindSequence:
				index, ok := normalizeIndex(key)
				if !ok {
					return fmt.Errorf("%w: sequence remove needs an index, got %v", ErrUnsupportedOperation, key)
				}
				if err := target.RemoveAt(index); err != nil {
					return err
				}
			case KindSet:
				if _, err := target.Delete(patch.Value); err != nil {
					return err
				}
			default:
				if _, err := target.Delete(key); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%w: unknown patch op %q", ErrUnsupportedOperation, patch.Op)
		}
	}
	return nil
}

// normalizeSegment coerces a path segment to an int or string.
func normalizeSegment(segment any) any {
	if _, isString := segment.(string); isString {
		return segment
	}
	if index, ok := normalizeIndex(segment); ok {
		return index
	}
	return fmt.Sprintf("%v", segment)
}

// guardSegment rejects path segments that could graft onto shared structure
// in payloads originating from prototype-based runtimes.
func guardSegment(kind Kind, segment any) error {
	name, ok := segment.(string)
	if !ok {
		return nil
	}
	if kind == KindRecord || kind == KindSequence {
		if name == "__proto__" || name == "constructor" || name == "prototype" {
			return fmt.Errorf("%w: forbidden path segment %q", ErrPathUnresolved, name)
		}
	}
	return nil
}
