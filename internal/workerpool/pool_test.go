package workerpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"jeeforces/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingApplier struct {
	jobs []services.RatingJob
	err  error
}

func (r *recordingApplier) ApplyRatingJob(_ context.Context, job services.RatingJob) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.jobs = append(r.jobs, job)
	return true, nil
}

func streamMessage(job services.RatingJob) redis.XMessage {
	return redis.XMessage{
		ID: "1700000000000-0",
		Values: map[string]interface{}{
			services.RatingJobUserField:    job.UserID.Hex(),
			services.RatingJobContestField: job.ContestID.Hex(),
			services.RatingJobRatingField:  "1375",
			services.RatingJobAtField:      "1767225600",
		},
	}
}

func TestRatingHandlerAppliesJob(t *testing.T) {
	applier := &recordingApplier{}
	handle := NewRatingHandler(applier)
	job := services.RatingJob{UserID: primitive.NewObjectID(), ContestID: primitive.NewObjectID()}

	require.NoError(t, handle(context.Background(), streamMessage(job)))
	require.Len(t, applier.jobs, 1)
	assert.Equal(t, job.UserID, applier.jobs[0].UserID)
	assert.Equal(t, job.ContestID, applier.jobs[0].ContestID)
	assert.Equal(t, 1375, applier.jobs[0].Rating)
	assert.True(t, applier.jobs[0].At.Equal(time.Unix(1767225600, 0)))
}

func TestRatingHandlerDropsMalformedJob(t *testing.T) {
	applier := &recordingApplier{}
	handle := NewRatingHandler(applier)

	err := handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{"user_id": "zz"}})
	assert.NoError(t, err, "malformed jobs are acknowledged, not retried")
	assert.Empty(t, applier.jobs)
}

func TestRatingHandlerKeepsJobPendingOnStoreError(t *testing.T) {
	applier := &recordingApplier{err: errors.New("mongo unavailable")}
	handle := NewRatingHandler(applier)
	job := services.RatingJob{UserID: primitive.NewObjectID(), ContestID: primitive.NewObjectID()}

	assert.Error(t, handle(context.Background(), streamMessage(job)))
}
