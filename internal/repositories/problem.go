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

type ProblemRepository interface {
	CreateProblem(ctx context.Context, problem *models.Problem) error
	GetProblemByID(ctx context.Context, id primitive.ObjectID) (*models.Problem, error)
	GetProblems(ctx context.Context, filter models.ProblemFilter) ([]models.Problem, error)
	CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	SampleProblems(ctx context.Context, tags []string, difficulty, count int) ([]models.Problem, error)
}

type problemRepository struct {
	col *mongo.Collection
}

func NewProblemRepository(db *mongo.Database) ProblemRepository {
	return &problemRepository{col: db.Collection(dbs.ProblemsCollection)}
}

func (r *problemRepository) CreateProblem(ctx context.Context, problem *models.Problem) error {
	if problem.ID.IsZero() {
		problem.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, problem); err != nil {
		return fmt.Errorf("failed to create problem: %w", err)
	}
	return nil
}

func (r *problemRepository) GetProblemByID(ctx context.Context, id primitive.ObjectID) (*models.Problem, error) {
	var problem models.Problem
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&problem); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewError(utils.ErrNotFound, "Problem not found")
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}
	return &problem, nil
}

func problemQuery(tags []string, difficulty int) bson.M {
	query := bson.M{}
	if len(tags) > 0 {
		query["tags"] = bson.M{"$in": tags}
	}
	if difficulty != 0 {
		query["difficulty"] = difficulty
	}
	return query
}

func (r *problemRepository) GetProblems(ctx context.Context, filter models.ProblemFilter) ([]models.Problem, error) {
	var tags []string
	if filter.Tag != "" {
		tags = []string{filter.Tag}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.col.Find(ctx, problemQuery(tags, filter.Difficulty), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get problems: %w", err)
	}

	problems := []models.Problem{}
	if err := cursor.All(ctx, &problems); err != nil {
		return nil, fmt.Errorf("failed to decode problems: %w", err)
	}
	return problems, nil
}

func (r *problemRepository) CountExisting(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	count, err := r.col.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to count problems: %w", err)
	}
	return count, nil
}

func (r *problemRepository) SampleProblems(ctx context.Context, tags []string, difficulty, count int) ([]models.Problem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: problemQuery(tags, difficulty)}},
		{{Key: "$sample", Value: bson.M{"size": count}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample problems: %w", err)
	}

	problems := []models.Problem{}
	if err := cursor.All(ctx, &problems); err != nil {
		return nil, fmt.Errorf("failed to decode sampled problems: %w", err)
	}
	return problems, nil
}
