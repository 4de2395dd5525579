package repositories

import (
	"context"
	"errors"
	"fmt"

	"jeeforces/internal/dbs"
	"jeeforces/internal/models"
	"jeeforces/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ContestRepository interface {
	CreateContest(ctx context.Context, contest *models.Contest) error
	GetContestByID(ctx context.Context, id primitive.ObjectID) (*models.Contest, error)
	GetContests(ctx context.Context) ([]models.Contest, error)
	ContestExists(ctx context.Context, id primitive.ObjectID) (bool, error)
	// AddParticipant adds userID to the participant set in one conditional update.
	// It reports false when nothing matched: either the contest is missing or the
	// user is already registered.
	AddParticipant(ctx context.Context, contestID, userID primitive.ObjectID) (bool, error)
}

type contestRepository struct {
	col *mongo.Collection
}

func NewContestRepository(db *mongo.Database) ContestRepository {
	return &contestRepository{col: db.Collection(dbs.ContestsCollection)}
}

func (r *contestRepository) CreateContest(ctx context.Context, contest *models.Contest) error {
	if contest.ID.IsZero() {
		contest.ID = primitive.NewObjectID()
	}
	if contest.Participants == nil {
		contest.Participants = []primitive.ObjectID{}
	}
	if contest.Problems == nil {
		contest.Problems = []primitive.ObjectID{}
	}
	if _, err := r.col.InsertOne(ctx, contest); err != nil {
		return fmt.Errorf("failed to create contest: %w", err)
	}
	return nil
}

func (r *contestRepository) GetContestByID(ctx context.Context, id primitive.ObjectID) (*models.Contest, error) {
	var contest models.Contest
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&contest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewError(utils.ErrNotFound, "Contest not found")
		}
		return nil, fmt.Errorf("failed to get contest: %w", err)
	}
	return &contest, nil
}

func (r *contestRepository) GetContests(ctx context.Context) ([]models.Contest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get contests: %w", err)
	}

	contests := []models.Contest{}
	if err := cursor.All(ctx, &contests); err != nil {
		return nil, fmt.Errorf("failed to decode contests: %w", err)
	}
	return contests, nil
}

func (r *contestRepository) ContestExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check contest: %w", err)
	}
	return count > 0, nil
}

func (r *contestRepository) AddParticipant(ctx context.Context, contestID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":          contestID,
		"participants": bson.M{"$ne": userID},
	}
	update := bson.M{"$addToSet": bson.M{"participants": userID}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}
	return res.MatchedCount == 1, nil
}
