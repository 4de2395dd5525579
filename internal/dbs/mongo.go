package dbs

import (
	"context"
	"fmt"
	"time"

	"jeeforces/configs"
	"jeeforces/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	UsersCollection       = "users"
	ProblemsCollection    = "problems"
	SubmissionsCollection = "submissions"
	ContestsCollection    = "contests"
	DiscussionsCollection = "discussions"
	ReportsCollection     = "reports"
)

// InitMongo connects to MongoDB and returns the configured database handle.
func InitMongo(ctx context.Context, cfg *configs.Config) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Log.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB))
	return client, client.Database(cfg.MongoDB), nil
}

func CloseMongo(ctx context.Context, client *mongo.Client) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.Log.Warn("Error disconnecting from MongoDB", zap.Error(err))
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "verifyToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		ProblemsCollection: {
			{Keys: bson.D{{Key: "tags", Value: 1}, {Key: "difficulty", Value: 1}}},
		},
		SubmissionsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "problem", Value: 1}, {Key: "contest", Value: 1}}},
			{Keys: bson.D{{Key: "contest", Value: 1}, {Key: "isFinal", Value: 1}}},
		},
		ReportsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
