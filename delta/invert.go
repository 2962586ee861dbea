package delta

// Invert returns the inverse of change, given the document base it was
// applied to (base must be a document delta — inserts only). Composing
// change with the result is a no-op on base:
//
//	Compose(base, Compose(change, Invert(change, base))) == base
//
// insert(x) inverts to delete(len(x)); delete(n) inverts to insert of the
// text/embeds removed from base, with base's attributes; retain(n, attrs)
// inverts to retain(n, attrs restoring base's prior values — nil for keys
// change added, base's previous value for keys change altered).
//
// Invert panics if change reaches further into base than base actually
// extends: that is a caller precondition violation (change was not
// produced against this base), not a recoverable protocol error.
func Invert(change, base *Delta) *Delta {
	inverted := New()
	baseIter := newOpIterator(base.Ops)

	for _, op := range change.Ops {
		switch {
		case op.Kind == Insert:
			inverted.DeleteN(op.Len())
		case op.Kind == Retain && len(op.Attrs) == 0:
			consumeBase(baseIter, op.Count)
			inverted.Retain(op.Count, nil)
		case op.Kind == Delete || (op.Kind == Retain && len(op.Attrs) > 0):
			length := op.Count
			for length > 0 {
				if !baseIter.hasNext() {
					panic("delta: invert against a document shorter than the change requires")
				}
				n := minInt(length, baseIter.peekLen())
				baseOp := baseIter.next(n)
				if op.Kind == Delete {
					inverted.push(baseOp)
				} else {
					inverted.Retain(n, invertAttrs(op.Attrs, baseOp.Attrs))
				}
				length -= n
			}
		}
	}

	return inverted.Chop()
}

// consumeBase advances baseIter by n units, tolerating an implicit
// trailing retain when the change's own bare retain runs past base's
// explicit ops (both sides agree there is nothing more to say there).
func consumeBase(it *opIterator, n int) {
	for n > 0 {
		step := minInt(n, it.peekLen())
		it.next(step)
		n -= step
	}
}
