package snapshot

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore persists snapshots as one document per id in a Firestore
// collection, generalizing the teacher's document-per-id layout in
// store.FirestoreStore to a single opaque contents blob rather than a
// per-operation subcollection — a snapshot store only ever needs the
// latest state, never the history that produced it.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore returns a FirestoreStore writing to the "snapshots"
// collection of client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, collection: "snapshots"}
}

func (s *FirestoreStore) docRef(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

func (s *FirestoreStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := s.docRef(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data := snap.Data()
	version, _ := data["version"].(int64)
	contents, _ := data["contents"].(string)
	return &Snapshot{ID: id, Version: int(version), Contents: []byte(contents)}, nil
}

func (s *FirestoreStore) Save(ctx context.Context, id string, snap *Snapshot) error {
	_, err := s.docRef(id).Set(ctx, map[string]interface{}{
		"version":  snap.Version,
		"contents": string(snap.Contents),
	})
	if err != nil {
		return fmt.Errorf("snapshot: save %q: %w", id, err)
	}
	return nil
}
