package delta

// Apply composes change onto doc: applying change to the document doc
// represents yields the same content as Compose(doc, change). doc need
// not be a pure document delta — composing two change deltas is also
// valid — but callers applying a change to stored document contents
// should pass a document delta and then check the result's IsDocument()
// to detect a would-be-corrupting change (see the document package).
func Apply(doc, change *Delta) *Delta {
	return Compose(doc, change)
}
