package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
	"github.com/sakif/notekeep/internal/repository"
)

var _ repository.NoteRepository = (*Store)(nil)

func (s *Store) CreateNote(ctx context.Context, note *model.Note) error {
	if note.ID == "" {
		note.ID = xid.New().String()
	}
	// A nil slice would be stored as null; keep the field an array.
	if note.Tags == nil {
		note.Tags = []string{}
	}

	if _, err := s.notes.InsertOne(ctx, note); err != nil {
		return fmt.Errorf("mongo: creating note: %w", err)
	}
	return nil
}

func (s *Store) GetNote(ctx context.Context, ownerID, id string) (*model.Note, error) {
	var note model.Note
	err := s.notes.FindOne(ctx, ownedBy(ownerID, id)).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("mongo: getting note %s: %w", id, err)
	}
	normalize(&note)
	return &note, nil
}

func (s *Store) ListNotes(ctx context.Context, ownerID string, q repository.NoteQuery) ([]model.Note, error) {
	cur, err := s.notes.Find(ctx, noteFilter(ownerID, q), options.Find().SetSort(noteSort(q.Order)))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing notes: %w", err)
	}

	notes := make([]model.Note, 0)
	if err := cur.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("mongo: decoding notes: %w", err)
	}
	for i := range notes {
		normalize(&notes[i])
	}
	return notes, nil
}

// UpdateNote $sets the mutable fields on the document matching id AND owner.
func (s *Store) UpdateNote(ctx context.Context, note *model.Note) error {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}

	res, err := s.notes.UpdateOne(ctx, ownedBy(note.UserID, note.ID), bson.M{
		"$set": bson.M{
			"title":      note.Title,
			"content":    note.Content,
			"tags":       tags,
			"pinned":     note.Pinned,
			"color":      note.Color,
			"updated_at": note.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: updating note %s: %w", note.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("note", note.ID)
	}
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, ownerID, id string) error {
	res, err := s.notes.DeleteOne(ctx, ownedBy(ownerID, id))
	if err != nil {
		return fmt.Errorf("mongo: deleting note %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("note", id)
	}
	return nil
}

func ownedBy(ownerID, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: ownerID}}
}

// noteFilter translates a NoteQuery into a find filter. The owner clause is
// always first and always present.
//
// The keyword is quoted with regexp.QuoteMeta, so it is matched as a literal
// substring; the "i" option makes it case-insensitive. A regex against an
// array field matches if any element matches, which covers tags.
func noteFilter(ownerID string, q repository.NoteQuery) bson.D {
	filter := bson.D{{Key: "user_id", Value: ownerID}}

	if q.Color != "" {
		filter = append(filter, bson.E{Key: "color", Value: q.Color})
	}
	if q.Pinned != nil {
		filter = append(filter, bson.E{Key: "pinned", Value: *q.Pinned})
	}
	if q.Tag != "" {
		filter = append(filter, bson.E{Key: "tags", Value: q.Tag})
	}
	if q.Keyword != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Keyword), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "content", Value: re}},
			bson.D{{Key: "tags", Value: re}},
		}})
	}

	return filter
}

func noteSort(o repository.NoteOrder) bson.D {
	newest := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	if o == repository.NewestFirst {
		return newest
	}
	return append(bson.D{{Key: "pinned", Value: -1}}, newest...)
}

func normalize(n *model.Note) {
	if n.Tags == nil {
		n.Tags = []string{}
	}
}
