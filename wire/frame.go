// Package wire defines the JSON frame shapes carried over the transport
// channel (§6.1/§6.2), generalizing the teacher's flat
// struct-with-omitempty ClientMessage/ServerMessage to the delta-JSON
// protocol: frames are multiplexed by a topic string ("document:<id>")
// instead of a bare docId field, and carry a *delta.Delta payload instead
// of a plain-string op.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/quilldoc/collabcore/delta"
)

// Client → server frame types.
const (
	TypeJoin   = "join"
	TypeUpdate = "update"
	TypeLeave  = "leave"
)

// Server → client frame types.
const (
	TypeOpen  = "open"
	TypeReply = "reply"
)

// Reply statuses (payload of a TypeReply frame).
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error reasons (§7). Anything else is a debug string, per §4.3.
const (
	ReasonServerBehind      = "server_behind"
	ReasonDocumentCorrupted = "document_corrupted"
)

// Topic returns the multiplexing topic string for a document id.
func Topic(docID string) string {
	return "document:" + docID
}

// DocID extracts the document id from a topic string produced by Topic.
func DocID(topic string) (string, error) {
	const prefix = "document:"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", fmt.Errorf("wire: malformed topic %q", topic)
	}
	return topic[len(prefix):], nil
}

// ClientFrame is a frame sent by a client. Exactly the fields relevant to
// Type are populated; the rest are the JSON zero value and omitted on the
// wire.
type ClientFrame struct {
	Type    string       `json:"type"`
	Topic   string       `json:"topic"`
	UserID  string       `json:"user_id,omitempty"`
	Version int          `json:"version,omitempty"`
	Change  *delta.Delta `json:"change,omitempty"`
}

// ErrorResponse is the nested payload of an error reply (§6.1): the reason
// lives under "response" rather than flattened onto the frame, so a reply
// frame's shape stays uniform whether it carries a reason or not.
type ErrorResponse struct {
	Reason string `json:"reason,omitempty"`
}

// ServerFrame is a frame sent to a client.
type ServerFrame struct {
	Type     string         `json:"type"`
	Topic    string         `json:"topic,omitempty"`
	Version  int            `json:"version,omitempty"`
	Contents *delta.Delta   `json:"contents,omitempty"`
	Change   *delta.Delta   `json:"change,omitempty"`
	Status   string         `json:"status,omitempty"`
	Response *ErrorResponse `json:"response,omitempty"`
}

// Encode serializes a ServerFrame to JSON bytes. Marshal of these types
// cannot fail (delta.Delta's MarshalJSON never errors on a
// library-produced Delta), so a marshal error here indicates a bug and is
// reported via a best-effort fallback frame rather than a panic.
func (f ServerFrame) Encode() []byte {
	b, err := json.Marshal(f)
	if err != nil {
		b, _ = json.Marshal(ServerFrame{Type: TypeReply, Status: StatusError, Response: &ErrorResponse{Reason: "internal encode error"}})
	}
	return b
}

// Open builds the frame sent once after a successful join.
func Open(docID string, version int, contents *delta.Delta) ServerFrame {
	return ServerFrame{Type: TypeOpen, Topic: Topic(docID), Version: version, Contents: contents}
}

// Update builds the broadcast frame for a committed change.
func Update(docID string, version int, change *delta.Delta) ServerFrame {
	return ServerFrame{Type: TypeUpdate, Topic: Topic(docID), Version: version, Change: change}
}

// ReplyOK builds the acknowledgment sent to the client whose update was
// committed.
func ReplyOK(docID string) ServerFrame {
	return ServerFrame{Type: TypeReply, Topic: Topic(docID), Status: StatusOK}
}

// ReplyError builds an error reply carrying the given reason (a semantic
// error kind such as ReasonServerBehind, or a debug string for anything
// else per §4.3) nested under the reply's response object.
func ReplyError(docID, reason string) ServerFrame {
	return ServerFrame{Type: TypeReply, Topic: Topic(docID), Status: StatusError, Response: &ErrorResponse{Reason: reason}}
}
