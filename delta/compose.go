package delta

// Compose returns a delta c such that applying c to a document yields the
// same result as applying a then b. See spec §4.1: b's delete drops
// whatever a produced there, a's insert paired with b's retain becomes an
// insert carrying merged attributes, a's insert paired with b's delete
// cancels, and so on. Either delta may omit its trailing retain; the
// missing tail is treated as an implicit bare retain over whatever the
// other side still has.
func Compose(a, b *Delta) *Delta {
	result := New()
	ai := newOpIterator(a.Ops)
	bi := newOpIterator(b.Ops)

	for ai.hasNext() || bi.hasNext() {
		if bi.peekKind() == Insert {
			result.push(bi.next(0))
			continue
		}
		if ai.peekKind() == Delete {
			result.push(ai.next(0))
			continue
		}

		length := minInt(ai.peekLen(), bi.peekLen())
		if length == infiniteRetain {
			break
		}
		thisOp := ai.next(length)
		otherOp := bi.next(length)

		switch {
		case otherOp.Kind == Retain:
			var newOp Op
			if thisOp.Kind == Retain {
				newOp = Op{Kind: Retain, Count: length}
			} else {
				newOp = thisOp
			}
			newOp.Attrs = composeAttrs(thisOp.Attrs, otherOp.Attrs, thisOp.Kind == Retain)
			result.push(newOp)
		case otherOp.Kind == Delete && thisOp.Kind == Retain:
			result.push(otherOp)
		default:
			// thisOp.Kind == Insert && otherOp.Kind == Delete: cancel, emit
			// nothing. thisOp.Kind == Delete is unreachable here since it is
			// drained eagerly above.
		}
	}

	return result.Chop()
}
