// Package firestore stores active session snapshots in Cloud Firestore,
// one document per user.
package firestore

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection holds the snapshots.
const DefaultCollection = "active_sessions"

// document is the stored shape. The session is kept as JSON because
// ExecutionData is keyed by struct, which Firestore maps cannot express.
type document struct {
	UserID    string    `firestore:"user_id"`
	Payload   string    `firestore:"payload"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// Store implements ports.SessionStore on a Firestore collection.
type Store struct {
	client     *firestore.Client
	collection string
}

var _ ports.SessionStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(s *Store) {
		s.collection = name
	}
}

// New creates a Store on client.
func New(client *firestore.Client, opts ...Option) *Store {
	s := &Store{client: client, collection: DefaultCollection}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a client for projectID. The emulator is used when
// FIRESTORE_EMULATOR_HOST is set.
func Connect(ctx context.Context, projectID string, opts ...Option) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "creating firestore client")
	}
	return New(client, opts...), nil
}

func (s *Store) doc(userID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(userID)
}

func (s *Store) Save(ctx context.Context, userID string, session *domain.ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	_, err = s.doc(userID).Set(ctx, document{
		UserID:    userID,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrapf(err, "saving session of %s", userID)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, userID string) (*domain.ActiveSession, error) {
	snap, err := s.doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.Wrapf(domain.ErrSessionNotFound, "user %s", userID)
		}
		return nil, errors.Wrapf(err, "getting session of %s", userID)
	}

	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding session document")
	}
	var session domain.ActiveSession
	if err := json.Unmarshal([]byte(doc.Payload), &session); err != nil {
		return nil, errors.Wrap(err, "decoding session payload")
	}
	return &session, nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	// Deleting a missing document succeeds.
	if _, err := s.doc(userID).Delete(ctx); err != nil {
		return errors.Wrapf(err, "deleting session of %s", userID)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(s.collection).DocumentRefs(ctx)
	users := []string{}
	for {
		ref, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "listing sessions")
		}
		users = append(users, ref.ID)
	}
	return users, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
