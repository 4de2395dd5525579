package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"jeeforces/internal/dbs"
	"jeeforces/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// testDB connects to the MongoDB named by JEEFORCES_TEST_MONGO_URI and returns a
// throwaway database. Tests are skipped when the variable is unset.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("JEEFORCES_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("JEEFORCES_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("jeeforces_test_" + primitive.NewObjectID().Hex())
	require.NoError(t, dbs.EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestAddParticipantConcurrent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewContestRepository(db)

	contest := &models.Contest{Title: "Mock", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateContest(ctx, contest))
	userID := primitive.NewObjectID()

	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := repo.AddParticipant(ctx, contest.ID, userID)
			assert.NoError(t, err)
			results <- added
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for added := range results {
		if added {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	stored, err := repo.GetContestByID(ctx, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{userID}, stored.Participants)

	added, err := repo.AddParticipant(ctx, primitive.NewObjectID(), userID)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestConsumeVerifyToken(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	now := time.Now()

	exp := now.Add(time.Hour)
	user := &models.User{Username: "ravi", Email: "ravi@example.com", VerifyToken: "tok", VerifyTokenExp: &exp}
	require.NoError(t, repo.CreateUser(ctx, user))

	ok, err := repo.ConsumeVerifyToken(ctx, "tok", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeVerifyToken(ctx, "tok", now)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.VerifyToken)
	assert.Nil(t, stored.VerifyTokenExp)

	past := now.Add(-time.Hour)
	late := &models.User{Username: "late", Email: "late@example.com", VerifyToken: "old", VerifyTokenExp: &past}
	require.NoError(t, repo.CreateUser(ctx, late))
	ok, err = repo.ConsumeVerifyToken(ctx, "old", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuplicateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	require.NoError(t, repo.CreateUser(ctx, &models.User{Username: "ravi", Email: "ravi@example.com"}))
	err := repo.CreateUser(ctx, &models.User{Username: "ravi", Email: "other@example.com"})
	require.Error(t, err)
	assert.Equal(t, "Username or email already exists", err.Error())
}

func TestApplyRatingOncePerContest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	user := &models.User{Username: "ravi", Email: "ravi@example.com", Rating: models.DefaultRating}
	require.NoError(t, repo.CreateUser(ctx, user))
	contestID := primitive.NewObjectID()

	applied, err := repo.ApplyRating(ctx, user.ID, contestID, 1260, time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.ApplyRating(ctx, user.ID, contestID, 1400, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1260, stored.Rating)
	require.Len(t, stored.RatingHistory, 1)
	assert.Equal(t, 60, stored.RatingHistory[0].Change)
}

func TestFinalSubmissionBookkeeping(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSubmissionRepository(db)
	userID, problemID, contestID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	submit := func(contest *primitive.ObjectID) *models.Submission {
		s := &models.Submission{UserID: userID, ProblemID: problemID, ContestID: contest, SelectedOptions: []int{0}, IsFinal: true, SubmittedAt: time.Now()}
		require.NoError(t, repo.CreateSubmission(ctx, s))
		require.NoError(t, repo.ClearOtherFinals(ctx, s.ID, userID, problemID, contest))
		return s
	}

	practice := submit(nil)
	submit(&contestID)
	last := submit(&contestID)

	finals, err := repo.GetFinalSubmissionsByContest(ctx, contestID)
	require.NoError(t, err)
	require.Len(t, finals, 1)
	assert.Equal(t, last.ID, finals[0].ID)

	all, err := repo.GetSubmissionsByUserAndProblem(ctx, userID, problemID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, s := range all {
		if s.ID == practice.ID {
			assert.True(t, s.IsFinal, "practice finals are tracked separately")
		}
	}
}

func TestInterleavedFinalsKeepNewest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSubmissionRepository(db)
	userID, problemID := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Now().Add(-time.Minute)

	insert := func(at time.Time) primitive.ObjectID {
		s := &models.Submission{ID: primitive.NewObjectIDFromTimestamp(at), UserID: userID, ProblemID: problemID, SelectedOptions: []int{0}, IsFinal: true, SubmittedAt: at}
		require.NoError(t, repo.CreateSubmission(ctx, s))
		return s.ID
	}

	newer := insert(base.Add(time.Second))
	require.NoError(t, repo.ClearOtherFinals(ctx, newer, userID, problemID, nil))
	older := insert(base)
	require.NoError(t, repo.ClearOtherFinals(ctx, older, userID, problemID, nil))

	all, err := repo.GetSubmissionsByUserAndProblem(ctx, userID, problemID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, s := range all {
		assert.Equal(t, s.ID == newer, s.IsFinal, s.ID.Hex())
	}
}

func TestDiscussionCommentsAndReplies(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewDiscussionRepository(db)

	d := &models.Discussion{Title: "t", Content: "c", Author: primitive.NewObjectID(), Comments: []models.Comment{}}
	require.NoError(t, repo.CreateDiscussion(ctx, d))

	comment := models.Comment{ID: primitive.NewObjectID(), Author: primitive.NewObjectID(), Text: "first", Replies: []models.Reply{}}
	updated, err := repo.AddComment(ctx, d.ID, comment)
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)

	reply := models.Reply{ID: primitive.NewObjectID(), Author: d.Author, Text: "thanks"}
	updated, err = repo.AddReply(ctx, d.ID, comment.ID, reply)
	require.NoError(t, err)
	require.Len(t, updated.Comments[0].Replies, 1)
	assert.Equal(t, "thanks", updated.Comments[0].Replies[0].Text)

	_, err = repo.AddReply(ctx, d.ID, primitive.NewObjectID(), reply)
	assert.Error(t, err)
}
