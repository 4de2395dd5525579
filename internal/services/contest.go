package services

import (
	"context"
	"sort"
	"time"

	"jeeforces/internal/models"
	"jeeforces/internal/repositories"
	"jeeforces/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrContestNotFound   = utils.NewError(utils.ErrNotFound, "Contest not found")
	ErrAlreadyRegistered = utils.NewError(utils.ErrConflict, "Already registered")
	ErrUnknownProblem    = utils.NewError(utils.ErrValidation, "Contest references an unknown problem")
)

type ContestService struct {
	contests    repositories.ContestRepository
	problems    repositories.ProblemRepository
	submissions repositories.SubmissionRepository
	users       repositories.UserRepository
	now         func() time.Time
}

func NewContestService(
	contests repositories.ContestRepository,
	problems repositories.ProblemRepository,
	submissions repositories.SubmissionRepository,
	users repositories.UserRepository,
) *ContestService {
	return &ContestService{
		contests:    contests,
		problems:    problems,
		submissions: submissions,
		users:       users,
		now:         time.Now,
	}
}

func (s *ContestService) CreateContest(ctx context.Context, creator primitive.ObjectID, req *models.CreateContestRequest) (*models.Contest, error) {
	if len(req.Problems) > 0 {
		found, err := s.problems.CountExisting(ctx, req.Problems)
		if err != nil {
			return nil, err
		}
		if found != int64(len(req.Problems)) {
			return nil, ErrUnknownProblem
		}
	}

	contest := &models.Contest{
		Title:        req.Title,
		Description:  req.Description,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Problems:     req.Problems,
		CreatedBy:    creator,
		Participants: []primitive.ObjectID{},
		CreatedAt:    s.now(),
	}
	if err := s.contests.CreateContest(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

func (s *ContestService) ListContests(ctx context.Context) ([]models.ContestSummary, error) {
	contests, err := s.contests.GetContests(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	summaries := make([]models.ContestSummary, 0, len(contests))
	for i := range contests {
		summaries = append(summaries, contests[i].Summary(now))
	}
	return summaries, nil
}

func (s *ContestService) GetContest(ctx context.Context, id primitive.ObjectID) (*models.Contest, models.ContestStatus, error) {
	contest, err := s.contests.GetContestByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return contest, contest.StatusAt(s.now()), nil
}

// Register adds userID to the contest's participant set at most once.
func (s *ContestService) Register(ctx context.Context, contestID, userID primitive.ObjectID) error {
	added, err := s.contests.AddParticipant(ctx, contestID, userID)
	if err != nil {
		return err
	}
	if added {
		return nil
	}

	exists, err := s.contests.ContestExists(ctx, contestID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrContestNotFound
	}
	return ErrAlreadyRegistered
}

// Leaderboard ranks participants by the sum of their final submission scores.
// Ties are broken by username.
func (s *ContestService) Leaderboard(ctx context.Context, contestID primitive.ObjectID) ([]models.LeaderboardEntry, error) {
	contest, err := s.contests.GetContestByID(ctx, contestID)
	if err != nil {
		return nil, err
	}

	finals, err := s.submissions.GetFinalSubmissionsByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	totals := make(map[primitive.ObjectID]*models.LeaderboardEntry, len(contest.Participants))
	for _, id := range contest.Participants {
		totals[id] = &models.LeaderboardEntry{UserID: id}
	}
	for _, sub := range finals {
		entry, ok := totals[sub.UserID]
		if !ok {
			continue
		}
		entry.Score += sub.Score
		if sub.Verdict == models.VerdictCorrect {
			entry.Solved++
		}
	}

	names, err := s.users.UsernamesByIDs(ctx, contest.Participants)
	if err != nil {
		return nil, err
	}

	board := make([]models.LeaderboardEntry, 0, len(totals))
	for id, entry := range totals {
		entry.Username = names[id]
		board = append(board, *entry)
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].Username < board[j].Username
	})

	for i := range board {
		if i > 0 && board[i].Score == board[i-1].Score {
			board[i].Rank = board[i-1].Rank
		} else {
			board[i].Rank = i + 1
		}
	}
	return board, nil
}
