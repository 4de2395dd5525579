package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jeeforces/internal/dbs"
	"jeeforces/internal/models"
	"jeeforces/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DiscussionRepository interface {
	CreateDiscussion(ctx context.Context, discussion *models.Discussion) error
	GetDiscussionByID(ctx context.Context, id primitive.ObjectID) (*models.Discussion, error)
	GetDiscussions(ctx context.Context, limit int64) ([]models.Discussion, error)
	AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) (*models.Discussion, error)
	AddReply(ctx context.Context, id, commentID primitive.ObjectID, reply models.Reply) (*models.Discussion, error)
}

var errDiscussionNotFound = utils.NewError(utils.ErrNotFound, "Discussion not found")

type discussionRepository struct {
	col *mongo.Collection
}

func NewDiscussionRepository(db *mongo.Database) DiscussionRepository {
	return &discussionRepository{col: db.Collection(dbs.DiscussionsCollection)}
}

func (r *discussionRepository) CreateDiscussion(ctx context.Context, discussion *models.Discussion) error {
	if discussion.ID.IsZero() {
		discussion.ID = primitive.NewObjectID()
	}
	if discussion.Comments == nil {
		discussion.Comments = []models.Comment{}
	}
	if _, err := r.col.InsertOne(ctx, discussion); err != nil {
		return fmt.Errorf("failed to create discussion: %w", err)
	}
	return nil
}

func (r *discussionRepository) GetDiscussionByID(ctx context.Context, id primitive.ObjectID) (*models.Discussion, error) {
	var discussion models.Discussion
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&discussion); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errDiscussionNotFound
		}
		return nil, fmt.Errorf("failed to get discussion: %w", err)
	}
	return &discussion, nil
}

func (r *discussionRepository) GetDiscussions(ctx context.Context, limit int64) ([]models.Discussion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get discussions: %w", err)
	}

	discussions := []models.Discussion{}
	if err := cursor.All(ctx, &discussions); err != nil {
		return nil, fmt.Errorf("failed to decode discussions: %w", err)
	}
	return discussions, nil
}

func (r *discussionRepository) pushAndReturn(ctx context.Context, filter, push bson.M) (*models.Discussion, error) {
	update := bson.M{
		"$push": push,
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var discussion models.Discussion
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&discussion); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errDiscussionNotFound
		}
		return nil, fmt.Errorf("failed to update discussion: %w", err)
	}
	return &discussion, nil
}

func (r *discussionRepository) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) (*models.Discussion, error) {
	return r.pushAndReturn(ctx, bson.M{"_id": id}, bson.M{"comments": comment})
}

func (r *discussionRepository) AddReply(ctx context.Context, id, commentID primitive.ObjectID, reply models.Reply) (*models.Discussion, error) {
	filter := bson.M{"_id": id, "comments._id": commentID}
	return r.pushAndReturn(ctx, filter, bson.M{"comments.$.replies": reply})
}
