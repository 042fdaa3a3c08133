// Package mongodb implements the repository interfaces on MongoDB.
//
// Notes and users are stored as documents in two collections. Field names are
// taken from the bson tags on model.Note and model.User, and ids are the same
// xid strings the SQLite store uses, so both backends behave identically from
// the service layer's point of view.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	notesCollection = "notes"
	connectTimeout  = 10 * time.Second
)

// Store holds the client connection pool and the two collections.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	notes  *mongo.Collection
}

// New connects to uri, verifies the server is reachable and ensures indexes.
func New(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		users:  db.Collection(usersCollection),
		notes:  db.Collection(notesCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

// ensureIndexes creates the unique email index and the owner/date index used
// by every note listing. CreateMany is a no-op for indexes that already exist.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: creating users email index: %w", err)
	}

	_, err = s.notes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "tags", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo: creating notes indexes: %w", err)
	}

	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
