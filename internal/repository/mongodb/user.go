package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/repository"
)

var _ repository.UserRepository = (*Store)(nil)

// CreateUser inserts user. The unique index on email turns a concurrent
// duplicate registration into a duplicate-key error, reported as DuplicateUser.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.DuplicateUser()
		}
		return fmt.Errorf("mongo: inserting user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}}, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}}, email)
}

func (s *Store) findUser(ctx context.Context, filter bson.D, key string) (*model.User, error) {
	var u model.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("mongo: getting user: %w", err)
	}
	return &u, nil
}
