package document

import "errors"

// ErrServerBehind is returned by Update when the caller's stated version
// exceeds the actor's own version — a protocol violation or symptom of
// prior corruption, never a normal race (the actor's version only moves
// forward under the actor's own serialization). It is also returned when
// the caller's version is older than the actor's retained history (an
// actor reseeded from a snapshot), since that change cannot be replayed.
var ErrServerBehind = errors.New("document: client version ahead of server")

// ErrDocumentCorrupted is returned by Update when applying the transformed
// change would leave the document containing a non-insert op. The actor's
// state is left unchanged.
var ErrDocumentCorrupted = errors.New("document: transform produced a non-document result")
