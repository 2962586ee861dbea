package delta

// Transform returns a change b' that carries b's intent but applies to the
// document that results after a has already been applied to their common
// base. priority=true means a is considered to have happened first when
// both sides insert at the same position (server-wins tie-break). Either
// side may omit its trailing retain; a missing tail is treated as an
// implicit bare retain covering whatever the other side still has.
//
// Transform satisfies the OT convergence property (TP1):
//
//	Compose(Compose(base, a), Transform(a, b, false)) ==
//	Compose(Compose(base, b), Transform(b, a, true))
func Transform(a, b *Delta, priority bool) *Delta {
	result := New()
	ai := newOpIterator(a.Ops)
	bi := newOpIterator(b.Ops)

	for ai.hasNext() || bi.hasNext() {
		aKind := ai.peekKind()
		bKind := bi.peekKind()

		if aKind == Insert && (priority || bKind != Insert) {
			result.Retain(ai.next(0).Len(), nil)
			continue
		}
		if bKind == Insert {
			result.push(bi.next(0))
			continue
		}

		length := minInt(ai.peekLen(), bi.peekLen())
		if length == infiniteRetain {
			break
		}
		thisOp := ai.next(length)
		otherOp := bi.next(length)

		switch {
		case thisOp.Kind == Delete:
			// a's delete either makes b's delete redundant or removes b's
			// retain outright; consumed from both, emits nothing.
		case otherOp.Kind == Delete:
			result.push(otherOp)
		default:
			result.Retain(length, transformAttrs(thisOp.Attrs, otherOp.Attrs, priority))
		}
	}

	return result.Chop()
}
