package services

import (
	"context"
	"time"

	"jeeforces/internal/logger"
	"jeeforces/internal/models"
	"jeeforces/internal/repositories"
	"jeeforces/internal/utils"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrNotParticipant = utils.NewError(utils.ErrForbidden, "Not registered for this contest")
	ErrContestClosed  = utils.NewError(utils.ErrBadRequest, "Contest is not running")
	ErrNotInContest   = utils.NewError(utils.ErrBadRequest, "Problem is not part of this contest")
)

type ProblemService struct {
	problems    repositories.ProblemRepository
	submissions repositories.SubmissionRepository
	contests    repositories.ContestRepository
	now         func() time.Time
}

func NewProblemService(
	problems repositories.ProblemRepository,
	submissions repositories.SubmissionRepository,
	contests repositories.ContestRepository,
) *ProblemService {
	return &ProblemService{
		problems:    problems,
		submissions: submissions,
		contests:    contests,
		now:         time.Now,
	}
}

func (s *ProblemService) CreateProblem(ctx context.Context, author primitive.ObjectID, req *models.CreateProblemRequest) (*models.Problem, error) {
	problem := &models.Problem{
		ID:            primitive.NewObjectID(),
		Title:         req.Title,
		Description:   req.Description,
		Difficulty:    req.Difficulty,
		Score:         req.Score,
		Tags:          req.Tags,
		Author:        author,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		ImageURL:      req.ImageURL,
		CreatedAt:     s.now(),
	}
	// Titles repeat across papers, so the id suffix keeps slugs unique.
	problem.Slug = slug.Make(req.Title) + "-" + problem.ID.Hex()[18:]

	if err := s.problems.CreateProblem(ctx, problem); err != nil {
		return nil, err
	}
	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, filter models.ProblemFilter) ([]models.ProblemView, error) {
	problems, err := s.problems.GetProblems(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]models.ProblemView, 0, len(problems))
	for i := range problems {
		views = append(views, problems[i].View())
	}
	return views, nil
}

func (s *ProblemService) GetProblem(ctx context.Context, id primitive.ObjectID) (*models.Problem, error) {
	return s.problems.GetProblemByID(ctx, id)
}

// Submit grades an answer and records it as the final submission for the
// user, problem and contest triple.
func (s *ProblemService) Submit(ctx context.Context, userID, problemID primitive.ObjectID, req *models.SubmissionRequest) (*models.Submission, error) {
	problem, err := s.problems.GetProblemByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if err := req.ValidateRequest(len(problem.Options)); err != nil {
		return nil, utils.NewError(utils.ErrValidation, err.Error())
	}

	now := s.now()
	if req.ContestID != nil {
		if err := s.checkContestEntry(ctx, *req.ContestID, userID, problemID, now); err != nil {
			return nil, err
		}
	}

	verdict, score := models.Grade(problem, req.SelectedOptions)
	submission := &models.Submission{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		ProblemID:       problemID,
		ContestID:       req.ContestID,
		SelectedOptions: req.SelectedOptions,
		Verdict:         verdict,
		Score:           score,
		IsFinal:         true,
		SubmittedAt:     now,
	}
	if err := s.submissions.CreateSubmission(ctx, submission); err != nil {
		return nil, err
	}

	if err := s.submissions.ClearOtherFinals(ctx, submission.ID, userID, problemID, req.ContestID); err != nil {
		logger.Log.Error("Failed to clear previous final submissions",
			zap.String("submission_id", submission.ID.Hex()),
			zap.Error(err))
		return nil, err
	}
	return submission, nil
}

func (s *ProblemService) checkContestEntry(ctx context.Context, contestID, userID, problemID primitive.ObjectID, now time.Time) error {
	contest, err := s.contests.GetContestByID(ctx, contestID)
	if err != nil {
		return err
	}
	if contest.StatusAt(now) != models.ContestStatusRunning {
		return ErrContestClosed
	}
	if !contest.HasParticipant(userID) {
		return ErrNotParticipant
	}
	for _, id := range contest.Problems {
		if id == problemID {
			return nil
		}
	}
	return ErrNotInContest
}

func (s *ProblemService) History(ctx context.Context, userID, problemID primitive.ObjectID) ([]models.Submission, error) {
	return s.submissions.GetSubmissionsByUserAndProblem(ctx, userID, problemID)
}

// PracticeSet draws a random selection of problems matching the request.
func (s *ProblemService) PracticeSet(ctx context.Context, req *models.PracticeSetRequest) ([]models.ProblemView, error) {
	problems, err := s.problems.SampleProblems(ctx, req.Tags, req.Difficulty, req.Count)
	if err != nil {
		return nil, err
	}
	views := make([]models.ProblemView, 0, len(problems))
	for i := range problems {
		views = append(views, problems[i].View())
	}
	return views, nil
}
