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

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByVerifyToken(ctx context.Context, token string) (*models.User, error)
	// ConsumeVerifyToken marks the owner of an unexpired token verified and clears the token.
	// It reports false when no document matched, e.g. the token was consumed concurrently.
	ConsumeVerifyToken(ctx context.Context, token string, now time.Time) (bool, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, req *models.UpdateProfileRequest) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	UsernamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
	// ApplyRating sets a user's rating and appends a history entry for the contest.
	// A second application for the same contest is a no-op and reports false.
	ApplyRating(ctx context.Context, userID, contestID primitive.ObjectID, rating int, at time.Time) (bool, error)
}

var errUserNotFound = utils.NewError(utils.ErrNotFound, "User not found")

type userRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{col: db.Collection(dbs.UsersCollection)}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.RatingHistory == nil {
		user.RatingHistory = []models.RatingChange{}
	}

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewError(utils.ErrConflict, "Username or email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *userRepository) GetUserByVerifyToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"verifyToken": token})
}

func (r *userRepository) ConsumeVerifyToken(ctx context.Context, token string, now time.Time) (bool, error) {
	filter := bson.M{
		"verifyToken":    token,
		"verifyTokenExp": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{"isVerified": true, "updatedAt": now},
		"$unset": bson.M{
			"verifyToken":    "",
			"verifyTokenExp": "",
		},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to consume verify token: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, req *models.UpdateProfileRequest) (*models.User, error) {
	update := bson.M{"$set": bson.M{
		"username":    req.Username,
		"avatar":      req.Avatar,
		"institute":   req.Institute,
		"yearofstudy": req.YearOfStudy,
		"updatedAt":   time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, utils.NewError(utils.ErrConflict, "Username already taken")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

func (r *userRepository) CountUsers(ctx context.Context) (int64, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *userRepository) UsernamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	opts := options.Find().SetProjection(bson.M{"username": 1})
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to look up usernames: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			ID       primitive.ObjectID `bson:"_id"`
			Username string             `bson:"username"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode username: %w", err)
		}
		names[row.ID] = row.Username
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}
	return names, nil
}

func (r *userRepository) ApplyRating(ctx context.Context, userID, contestID primitive.ObjectID, rating int, at time.Time) (bool, error) {
	filter := bson.M{
		"_id":                     userID,
		"ratingHistory.contestId": bson.M{"$ne": contestID},
	}
	// Expressions in a single $set stage read the pre-update document, so $rating is the old value.
	entry := bson.M{
		"contestId": contestID,
		"rating":    rating,
		"change":    bson.M{"$subtract": bson.A{rating, bson.M{"$ifNull": bson.A{"$rating", models.DefaultRating}}}},
		"date":      at,
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"ratingHistory": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$ratingHistory", bson.A{}}},
				bson.A{entry},
			}},
			"rating":    rating,
			"updatedAt": at,
		}}},
	}

	res, err := r.col.UpdateOne(ctx, filter, pipeline)
	if err != nil {
		return false, fmt.Errorf("failed to apply rating: %w", err)
	}
	return res.MatchedCount == 1, nil
}
