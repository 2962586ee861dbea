package delta

// Delta is an ordered sequence of Ops. The zero value is an empty delta.
//
// A "document delta" holds only Insert ops; a
// "change delta" may mix all three kinds. Canonical form is maintained by
// push as ops are appended: adjacent ops of the same kind with equal
// attribute maps are merged, and a delete emitted after an insert at the
// same position is reordered before it (delete-before-insert), matching
// the normalization rule documents rely on for stable equality.
type Delta struct {
	Ops []Op
}

// New returns an empty Delta.
func New() *Delta {
	return &Delta{}
}

// FromOps wraps a raw op slice, applying no canonicalization, for callers
// that already trust the ordering. JSON decoding does not use it:
// UnmarshalJSON appends each op through push.
func FromOps(ops []Op) *Delta {
	return &Delta{Ops: ops}
}

// InsertText appends a text insertion.
func (d *Delta) InsertText(s string, attrs Attrs) *Delta {
	if s == "" {
		return d
	}
	return d.push(newInsertText(s, attrs))
}

// InsertEmbed appends an embed insertion.
func (d *Delta) InsertEmbed(embed map[string]any, attrs Attrs) *Delta {
	return d.push(newInsertEmbed(embed, attrs))
}

// Retain appends a retain of n characters.
func (d *Delta) Retain(n int, attrs Attrs) *Delta {
	if n <= 0 {
		return d
	}
	return d.push(newRetain(n, attrs))
}

// DeleteN appends a deletion of n characters.
func (d *Delta) DeleteN(n int) *Delta {
	if n <= 0 {
		return d
	}
	return d.push(newDelete(n))
}

// Push appends a pre-built Op through the same canonicalization path as
// the InsertText/Retain/DeleteN helpers.
func (d *Delta) Push(op Op) *Delta {
	switch op.Kind {
	case Insert:
		if !op.IsEmbed && op.Text == "" {
			return d
		}
	case Retain, Delete:
		if op.Count <= 0 {
			return d
		}
	}
	return d.push(op)
}

// push implements the canonical insertion algorithm: merge with the
// previous op when possible, otherwise move a delete that follows inserts
// at the same position ahead of them (their relative order does not affect
// the result but a stable order keeps equality checks meaningful),
// otherwise append.
func (d *Delta) push(op Op) *Delta {
	n := len(d.Ops)
	if n == 0 {
		d.Ops = append(d.Ops, op)
		return d
	}
	last := &d.Ops[n-1]

	if op.Kind == Delete && last.Kind == Delete {
		last.Count += op.Count
		return d
	}

	// Delete following inserts: move it ahead of the trailing inserts,
	// merging into a delete that precedes them if there is one.
	if op.Kind == Delete && last.Kind == Insert {
		i := n - 1
		for i > 0 && d.Ops[i-1].Kind == Insert {
			i--
		}
		if i > 0 && d.Ops[i-1].Kind == Delete {
			d.Ops[i-1].Count += op.Count
			return d
		}
		d.Ops = append(d.Ops[:i], append([]Op{op}, d.Ops[i:]...)...)
		return d
	}

	if merged, ok := tryMerge(*last, op); ok {
		*last = merged
		return d
	}

	d.Ops = append(d.Ops, op)
	return d
}

// tryMerge merges b into a when they are compatible (same kind, same
// attributes, and — for inserts — both plain text), returning the merged
// op and true, or the zero Op and false.
func tryMerge(a, b Op) (Op, bool) {
	if a.Kind != b.Kind || !attrsEqual(a.Attrs, b.Attrs) {
		return Op{}, false
	}
	switch a.Kind {
	case Insert:
		if a.IsEmbed || b.IsEmbed {
			return Op{}, false
		}
		merged := a
		merged.Text = a.Text + b.Text
		if b.Attrs != nil {
			merged.Attrs = b.Attrs
		}
		return merged, true
	case Retain:
		merged := a
		merged.Count = a.Count + b.Count
		if b.Attrs != nil {
			merged.Attrs = b.Attrs
		}
		return merged, true
	case Delete:
		return Op{Kind: Delete, Count: a.Count + b.Count}, true
	}
	return Op{}, false
}

// Chop removes a single trailing bare retain (no attributes), the
// canonical form for a finished change delta.
func (d *Delta) Chop() *Delta {
	n := len(d.Ops)
	if n == 0 {
		return d
	}
	last := d.Ops[n-1]
	if last.Kind == Retain && len(last.Attrs) == 0 {
		d.Ops = d.Ops[:n-1]
	}
	return d
}

// Len returns the number of ops.
func (d *Delta) Len() int { return len(d.Ops) }

// IsEmpty reports whether d has no ops (after Chop, this means "no-op").
func (d *Delta) IsEmpty() bool { return len(d.Ops) == 0 }

// BaseLen returns the length of the document d expects as input: the sum
// of retain and delete lengths.
func (d *Delta) BaseLen() int {
	n := 0
	for _, op := range d.Ops {
		switch op.Kind {
		case Retain, Delete:
			n += op.Len()
		}
	}
	return n
}

// TargetLen returns the length of the document produced by applying d:
// the sum of retain and insert lengths.
func (d *Delta) TargetLen() int {
	n := 0
	for _, op := range d.Ops {
		switch op.Kind {
		case Retain, Insert:
			n += op.Len()
		}
	}
	return n
}

// IsDocument reports whether d contains only inserts, i.e. is a valid
// document delta.
func (d *Delta) IsDocument() bool {
	for _, op := range d.Ops {
		if op.Kind != Insert {
			return false
		}
	}
	return true
}

// Clone returns a deep-enough copy of d (ops and their attribute maps are
// copied; embed payloads are shared).
func (d *Delta) Clone() *Delta {
	cp := &Delta{Ops: make([]Op, len(d.Ops))}
	for i, op := range d.Ops {
		op.Attrs = op.Attrs.Clone()
		cp.Ops[i] = op
	}
	return cp
}

// Equal reports whether a and b hold the same canonical op sequence.
func Equal(a, b *Delta) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Ops {
		oa, ob := a.Ops[i], b.Ops[i]
		if oa.Kind != ob.Kind || oa.Count != ob.Count || oa.Text != ob.Text || oa.IsEmbed != ob.IsEmbed {
			return false
		}
		if oa.IsEmbed && embedKey(oa.Embed) != embedKey(ob.Embed) {
			return false
		}
		if !attrsEqual(oa.Attrs, ob.Attrs) {
			return false
		}
	}
	return true
}

// Concat appends other's ops onto a copy of d and returns the result,
// merging the boundary op if possible.
func (d *Delta) Concat(other *Delta) *Delta {
	result := d.Clone()
	if len(other.Ops) == 0 {
		return result
	}
	first := other.Ops[0]
	result.push(first)
	if len(other.Ops) > 1 {
		result.Ops = append(result.Ops, other.Ops[1:]...)
	}
	return result
}
