package repositories

import (
	"context"
	"fmt"

	"jeeforces/internal/dbs"
	"jeeforces/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	// ClearOtherFinals leaves only the newest final submission (by ObjectID) for the
	// same user, problem and contest. It is called right after keepID is inserted as final.
	ClearOtherFinals(ctx context.Context, keepID, userID, problemID primitive.ObjectID, contestID *primitive.ObjectID) error
	GetFinalSubmissionsByContest(ctx context.Context, contestID primitive.ObjectID) ([]models.Submission, error)
	GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID primitive.ObjectID) ([]models.Submission, error)
}

type submissionRepository struct {
	col *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) SubmissionRepository {
	return &submissionRepository{col: db.Collection(dbs.SubmissionsCollection)}
}

func (r *submissionRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID.IsZero() {
		submission.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, submission); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) ClearOtherFinals(ctx context.Context, keepID, userID, problemID primitive.ObjectID, contestID *primitive.ObjectID) error {
	scope := bson.M{
		"user":    userID,
		"problem": problemID,
		"isFinal": true,
	}
	if contestID != nil {
		scope["contest"] = *contestID
	} else {
		scope["contest"] = bson.M{"$exists": false}
	}

	older := bson.M{"_id": bson.M{"$lt": keepID}}
	for k, v := range scope {
		older[k] = v
	}
	if _, err := r.col.UpdateMany(ctx, older, bson.M{"$set": bson.M{"isFinal": false}}); err != nil {
		return fmt.Errorf("failed to clear final submissions: %w", err)
	}

	// A newer submission that finished clearing first never saw keepID.
	newer := bson.M{"_id": bson.M{"$gt": keepID}}
	for k, v := range scope {
		newer[k] = v
	}
	n, err := r.col.CountDocuments(ctx, newer, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check newer final submissions: %w", err)
	}
	if n == 0 {
		return nil
	}
	if _, err := r.col.UpdateByID(ctx, keepID, bson.M{"$set": bson.M{"isFinal": false}}); err != nil {
		return fmt.Errorf("failed to clear final submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) GetFinalSubmissionsByContest(ctx context.Context, contestID primitive.ObjectID) ([]models.Submission, error) {
	cursor, err := r.col.Find(ctx, bson.M{"contest": contestID, "isFinal": true})
	if err != nil {
		return nil, fmt.Errorf("failed to get contest submissions: %w", err)
	}

	submissions := []models.Submission{}
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode contest submissions: %w", err)
	}
	return submissions, nil
}

func (r *submissionRepository) GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID primitive.ObjectID) ([]models.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user": userID, "problem": problemID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get user submissions: %w", err)
	}

	submissions := []models.Submission{}
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode user submissions: %w", err)
	}
	return submissions, nil
}
