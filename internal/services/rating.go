package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"jeeforces/internal/logger"
	"jeeforces/internal/models"
	"jeeforces/internal/repositories"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Field names of a rating job on the stream.
const (
	RatingJobUserField    = "user_id"
	RatingJobContestField = "contest_id"
	RatingJobRatingField  = "rating"
	RatingJobAtField      = "at"
)

type JobQueue interface {
	Publish(ctx context.Context, values map[string]interface{}) error
}

type redisStreamQueue struct {
	client *redis.Client
	stream string
}

func NewRedisStreamQueue(client *redis.Client, stream string) JobQueue {
	return &redisStreamQueue{client: client, stream: stream}
}

func (q *redisStreamQueue) Publish(ctx context.Context, values map[string]interface{}) error {
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		ID:     "*",
		Values: values,
	}).Err()
}

// RatingJob is one user's new rating after a contest.
type RatingJob struct {
	UserID    primitive.ObjectID
	ContestID primitive.ObjectID
	Rating    int
	At        time.Time
}

func (j RatingJob) Values() map[string]interface{} {
	return map[string]interface{}{
		RatingJobUserField:    j.UserID.Hex(),
		RatingJobContestField: j.ContestID.Hex(),
		RatingJobRatingField:  j.Rating,
		RatingJobAtField:      j.At.Unix(),
	}
}

// ParseRatingJob decodes stream values written by RatingJob.Values.
func ParseRatingJob(values map[string]interface{}) (RatingJob, error) {
	str := func(key string) (string, error) {
		v, ok := values[key].(string)
		if !ok {
			return "", fmt.Errorf("missing %s", key)
		}
		return v, nil
	}

	var job RatingJob
	raw, err := str(RatingJobUserField)
	if err != nil {
		return job, err
	}
	if job.UserID, err = primitive.ObjectIDFromHex(raw); err != nil {
		return job, fmt.Errorf("invalid %s: %w", RatingJobUserField, err)
	}

	if raw, err = str(RatingJobContestField); err != nil {
		return job, err
	}
	if job.ContestID, err = primitive.ObjectIDFromHex(raw); err != nil {
		return job, fmt.Errorf("invalid %s: %w", RatingJobContestField, err)
	}

	if raw, err = str(RatingJobRatingField); err != nil {
		return job, err
	}
	if job.Rating, err = strconv.Atoi(raw); err != nil {
		return job, fmt.Errorf("invalid %s: %w", RatingJobRatingField, err)
	}

	if raw, err = str(RatingJobAtField); err != nil {
		return job, err
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return job, fmt.Errorf("invalid %s: %w", RatingJobAtField, err)
	}
	job.At = time.Unix(unix, 0)
	return job, nil
}

// ProfileInvalidator drops cached public profiles.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, usernames ...string)
}

type RatingService struct {
	contests repositories.ContestRepository
	users    repositories.UserRepository
	queue    JobQueue
	profiles ProfileInvalidator
	now      func() time.Time
}

func NewRatingService(
	contests repositories.ContestRepository,
	users repositories.UserRepository,
	queue JobQueue,
	profiles ProfileInvalidator,
) *RatingService {
	return &RatingService{contests: contests, users: users, queue: queue, profiles: profiles, now: time.Now}
}

// EnqueueContestRatings publishes one job per update. Updates for users who did not
// take part in the contest are rejected before anything is queued.
func (s *RatingService) EnqueueContestRatings(ctx context.Context, contestID primitive.ObjectID, updates []models.RatingUpdate) (int, error) {
	contest, err := s.contests.GetContestByID(ctx, contestID)
	if err != nil {
		return 0, err
	}
	for _, u := range updates {
		if !contest.HasParticipant(u.UserID) {
			return 0, ErrNotParticipant
		}
	}

	at := s.now()
	for i, u := range updates {
		job := RatingJob{UserID: u.UserID, ContestID: contestID, Rating: u.Rating, At: at}
		if err := s.queue.Publish(ctx, job.Values()); err != nil {
			return i, fmt.Errorf("failed to queue rating update: %w", err)
		}
	}
	return len(updates), nil
}

// ApplyRatingJob persists one rating job. Re-delivered jobs are ignored.
func (s *RatingService) ApplyRatingJob(ctx context.Context, job RatingJob) (bool, error) {
	applied, err := s.users.ApplyRating(ctx, job.UserID, job.ContestID, job.Rating, job.At)
	if err != nil || !applied {
		return applied, err
	}

	names, err := s.users.UsernamesByIDs(ctx, []primitive.ObjectID{job.UserID})
	if err != nil {
		logger.Log.Warn("Failed to resolve username for profile invalidation",
			zap.String("user_id", job.UserID.Hex()),
			zap.Error(err))
		return true, nil
	}
	if name, ok := names[job.UserID]; ok {
		s.profiles.Invalidate(ctx, name)
	}
	return true, nil
}
