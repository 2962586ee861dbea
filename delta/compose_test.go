package delta

import "testing"

func mustApply(t *testing.T, doc, change *Delta) *Delta {
	t.Helper()
	return Apply(doc, change)
}

func TestComposeInsertRetain(t *testing.T) {
	doc := New().InsertText("hello", nil)
	change := New().Retain(5, nil).InsertText(" world", nil)
	got := mustApply(t, doc, change)
	want := New().InsertText("hello world", nil)
	if !Equal(got, want) {
		t.Errorf("got %+v, want %+v", got.Ops, want.Ops)
	}
}

func TestComposeDeleteInsideDocument(t *testing.T) {
	doc := New().InsertText("hello world", nil)
	change := New().Retain(5, nil).DeleteN(6)
	got := mustApply(t, doc, change)
	want := New().InsertText("hello", nil)
	if !Equal(got, want) {
		t.Errorf("got %+v, want %+v", got.Ops, want.Ops)
	}
}

func TestComposeInsertThenDeleteCancels(t *testing.T) {
	a := New().InsertText("abc", nil)
	b := New().DeleteN(3)
	got := Compose(a, b)
	if !got.IsEmpty() {
		t.Errorf("expected empty compose, got %+v", got.Ops)
	}
}

func TestComposeAttributeMerge(t *testing.T) {
	a := New().InsertText("hi", Attrs{"bold": true})
	b := New().Retain(2, Attrs{"italic": true})
	got := Compose(a, b)
	want := New().InsertText("hi", Attrs{"bold": true, "italic": true})
	if !Equal(got, want) {
		t.Errorf("got %+v, want %+v", got.Ops, want.Ops)
	}
}

func TestComposeRetainNullRemovesAttribute(t *testing.T) {
	a := New().InsertText("hi", Attrs{"bold": true})
	b := New().Retain(2, Attrs{"bold": nil})
	got := Compose(a, b)
	want := New().InsertText("hi", nil)
	if !Equal(got, want) {
		t.Errorf("got %+v, want %+v", got.Ops, want.Ops)
	}
}

func TestComposeAssociativity(t *testing.T) {
	a := New().InsertText("hello", nil)
	b := New().Retain(5, nil).InsertText(" world", nil)
	c := New().Retain(2, nil).DeleteN(3).InsertText("XYZ", nil)

	left := Compose(Compose(a, b), c)
	right := Compose(a, Compose(b, c))
	if !Equal(left, right) {
		t.Errorf("compose not associative:\nleft=%+v\nright=%+v", left.Ops, right.Ops)
	}
}

func TestComposeWithInvertIsIdentity(t *testing.T) {
	base := New().InsertText("hello world", nil)
	change := New().Retain(6, nil).DeleteN(5).InsertText("there", nil)
	inv := Invert(change, base)

	roundTrip := Compose(change, inv)
	after := mustApply(t, base, change)
	final := mustApply(t, after, inv)
	if !Equal(final, base) {
		t.Errorf("invert did not undo change: got %+v, want %+v", final.Ops, base.Ops)
	}
	_ = roundTrip
}
