package document

// KeyHook intercepts overlay keys during MergeWith. Returning true marks the
// key as handled; the default merge rule is then skipped for it.
type KeyHook func(dst *Map, key string, value any) bool

// Merge deep-merges overlay into a copy of base and returns the result.
// Overlay wins: when both sides hold a map under the same key the maps are
// merged key-wise, anything else (scalars, sequences, a map against a scalar)
// is replaced wholesale. Sequences are never merged element-wise.
//
// The walk uses an explicit work-list so nesting depth is not bounded by the
// call stack. Neither input is modified.
func Merge(base, overlay *Map) *Map {
	return MergeWith(base, overlay, nil)
}

// MergeWith is Merge with a KeyHook consulted for every overlay key at every
// level before the default rule applies.
func MergeWith(base, overlay *Map, hook KeyHook) *Map {
	var out *Map
	if base == nil {
		out = New()
	} else {
		out = base.Clone()
	}
	if overlay == nil {
		return out
	}
	type pair struct{ dst, src *Map }
	work := []pair{{dst: out, src: overlay}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		for _, k := range p.src.keys {
			sv := p.src.vals[k]
			if hook != nil && hook(p.dst, k, sv) {
				continue
			}
			if sm, ok := sv.(*Map); ok {
				if dm, ok := p.dst.vals[k].(*Map); ok {
					work = append(work, pair{dst: dm, src: sm})
					continue
				}
			}
			p.dst.Set(k, CloneValue(sv))
		}
	}
	return out
}

// MergeScoped merges overlay into a copy of base where base wins on conflicts:
// overlay only contributes keys base does not already hold, at any depth.
// New keys are appended after the existing ones.
func MergeScoped(base, overlay *Map) *Map {
	var out *Map
	if base == nil {
		out = New()
	} else {
		out = base.Clone()
	}
	if overlay == nil {
		return out
	}
	type pair struct{ dst, src *Map }
	work := []pair{{dst: out, src: overlay}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		for _, k := range p.src.keys {
			sv := p.src.vals[k]
			dv, exists := p.dst.vals[k]
			if !exists {
				p.dst.Set(k, CloneValue(sv))
				continue
			}
			sm, sok := sv.(*Map)
			dm, dok := dv.(*Map)
			if sok && dok {
				work = append(work, pair{dst: dm, src: sm})
			}
		}
	}
	return out
}
