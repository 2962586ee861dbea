package syncclient

import "errors"

// ErrOrphanedOperations is raised when a document delta being validated
// ends in inserts with no terminal node_id-bearing newline — a tail with
// no addressable block, fatal to that conversion (client-side only).
var ErrOrphanedOperations = errors.New("syncclient: document ends without a node_id newline")

// ErrNotDocument is returned when onLocalDocumentChanged is given a delta
// containing a non-insert op.
var ErrNotDocument = errors.New("syncclient: local document must contain only inserts")

// ErrDocumentCorrupted mirrors document.ErrDocumentCorrupted on the wire:
// raised as a fatal error to the caller per §7 ("on the client, this is
// raised as a fatal exception").
var ErrDocumentCorrupted = errors.New("syncclient: server reported document_corrupted")
