// Package testutil holds in-memory stand-ins for the Mongo repositories and the
// Redis-backed stores, with the same conditional update semantics.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jeeforces/internal/models"
	"jeeforces/internal/repositories"
	"jeeforces/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repositories.UserRepository       = (*UserStore)(nil)
	_ repositories.ProblemRepository    = (*ProblemStore)(nil)
	_ repositories.SubmissionRepository = (*SubmissionStore)(nil)
	_ repositories.ContestRepository    = (*ContestStore)(nil)
	_ repositories.DiscussionRepository = (*DiscussionStore)(nil)
	_ repositories.ReportRepository     = (*ReportStore)(nil)
)

type UserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[primitive.ObjectID]models.User{}}
}

func (s *UserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return utils.NewError(utils.ErrConflict, "Username or email already exists")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.RatingHistory == nil {
		user.RatingHistory = []models.RatingChange{}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, utils.NewError(utils.ErrNotFound, "User not found")
}

func (s *UserStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *UserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *UserStore) GetUserByVerifyToken(_ context.Context, token string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.VerifyToken != "" && u.VerifyToken == token })
}

func (s *UserStore) ConsumeVerifyToken(_ context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.VerifyToken == "" || u.VerifyToken != token {
			continue
		}
		if u.VerifyTokenExp == nil || !u.VerifyTokenExp.After(now) {
			return false, nil
		}
		u.IsVerified = true
		u.VerifyToken = ""
		u.VerifyTokenExp = nil
		s.users[id] = u
		return true, nil
	}
	return false, nil
}

func (s *UserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, req *models.UpdateProfileRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, utils.NewError(utils.ErrNotFound, "User not found")
	}
	for other, existing := range s.users {
		if other != id && existing.Username == req.Username {
			return nil, utils.NewError(utils.ErrConflict, "Username already taken")
		}
	}
	u.Username = req.Username
	u.Avatar = req.Avatar
	u.Institute = req.Institute
	u.YearOfStudy = req.YearOfStudy
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return &u, nil
}

func (s *UserStore) CountUsers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *UserStore) UsernamesByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[primitive.ObjectID]string, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}

func (s *UserStore) ApplyRating(_ context.Context, userID, contestID primitive.ObjectID, rating int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	for _, h := range u.RatingHistory {
		if h.ContestID == contestID {
			return false, nil
		}
	}
	u.RatingHistory = append(u.RatingHistory, models.RatingChange{
		ContestID: contestID,
		Rating:    rating,
		Change:    rating - u.Rating,
		Date:      at,
	})
	u.Rating = rating
	s.users[userID] = u
	return true, nil
}

type ProblemStore struct {
	mu       sync.Mutex
	problems []models.Problem
}

func NewProblemStore() *ProblemStore {
	return &ProblemStore{}
}

func (s *ProblemStore) CreateProblem(_ context.Context, problem *models.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if problem.ID.IsZero() {
		problem.ID = primitive.NewObjectID()
	}
	s.problems = append(s.problems, *problem)
	return nil
}

func (s *ProblemStore) GetProblemByID(_ context.Context, id primitive.ObjectID) (*models.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.problems {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, utils.NewError(utils.ErrNotFound, "Problem not found")
}

func matchesProblem(p models.Problem, tags []string, difficulty int) bool {
	if difficulty != 0 && p.Difficulty != difficulty {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, tag := range p.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

func (s *ProblemStore) GetProblems(_ context.Context, filter models.ProblemFilter) ([]models.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tags []string
	if filter.Tag != "" {
		tags = []string{filter.Tag}
	}
	problems := []models.Problem{}
	for i := len(s.problems) - 1; i >= 0; i-- {
		if matchesProblem(s.problems[i], tags, filter.Difficulty) {
			problems = append(problems, s.problems[i])
		}
		if filter.Limit > 0 && int64(len(problems)) == filter.Limit {
			break
		}
	}
	return problems, nil
}

func (s *ProblemStore) CountExisting(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, id := range ids {
		for _, p := range s.problems {
			if p.ID == id {
				count++
				break
			}
		}
	}
	return count, nil
}

// SampleProblems returns the first matches in insertion order.
func (s *ProblemStore) SampleProblems(_ context.Context, tags []string, difficulty, count int) ([]models.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	problems := []models.Problem{}
	for _, p := range s.problems {
		if len(problems) == count {
			break
		}
		if matchesProblem(p, tags, difficulty) {
			problems = append(problems, p)
		}
	}
	return problems, nil
}

type SubmissionStore struct {
	mu          sync.Mutex
	submissions []models.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{}
}

func (s *SubmissionStore) CreateSubmission(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission.ID.IsZero() {
		submission.ID = primitive.NewObjectID()
	}
	s.submissions = append(s.submissions, *submission)
	return nil
}

func sameContest(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *SubmissionStore) ClearOtherFinals(_ context.Context, keepID, userID, problemID primitive.ObjectID, contestID *primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	newer := false
	for i := range s.submissions {
		sub := &s.submissions[i]
		if !sub.IsFinal || sub.UserID != userID || sub.ProblemID != problemID || !sameContest(sub.ContestID, contestID) {
			continue
		}
		switch cmp := sub.ID.Hex(); {
		case cmp < keepID.Hex():
			sub.IsFinal = false
		case cmp > keepID.Hex():
			newer = true
		}
	}
	if newer {
		for i := range s.submissions {
			if s.submissions[i].ID == keepID {
				s.submissions[i].IsFinal = false
			}
		}
	}
	return nil
}

func (s *SubmissionStore) GetFinalSubmissionsByContest(_ context.Context, contestID primitive.ObjectID) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := []models.Submission{}
	for _, sub := range s.submissions {
		if sub.IsFinal && sub.ContestID != nil && *sub.ContestID == contestID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *SubmissionStore) GetSubmissionsByUserAndProblem(_ context.Context, userID, problemID primitive.ObjectID) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := []models.Submission{}
	for i := len(s.submissions) - 1; i >= 0; i-- {
		sub := s.submissions[i]
		if sub.UserID == userID && sub.ProblemID == problemID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

// All returns every stored submission in insertion order.
func (s *SubmissionStore) All() []models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Submission(nil), s.submissions...)
}

type ContestStore struct {
	mu       sync.Mutex
	contests map[primitive.ObjectID]models.Contest
}

func NewContestStore() *ContestStore {
	return &ContestStore{contests: map[primitive.ObjectID]models.Contest{}}
}

func (s *ContestStore) CreateContest(_ context.Context, contest *models.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contest.ID.IsZero() {
		contest.ID = primitive.NewObjectID()
	}
	c := *contest
	c.Participants = append([]primitive.ObjectID{}, contest.Participants...)
	s.contests[c.ID] = c
	return nil
}

func (s *ContestStore) GetContestByID(_ context.Context, id primitive.ObjectID) (*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[id]
	if !ok {
		return nil, utils.NewError(utils.ErrNotFound, "Contest not found")
	}
	c.Participants = append([]primitive.ObjectID{}, c.Participants...)
	return &c, nil
}

func (s *ContestStore) GetContests(_ context.Context) ([]models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contests := make([]models.Contest, 0, len(s.contests))
	for _, c := range s.contests {
		contests = append(contests, c)
	}
	sort.Slice(contests, func(i, j int) bool {
		return contests[i].StartTime.After(contests[j].StartTime)
	})
	return contests, nil
}

func (s *ContestStore) ContestExists(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.contests[id]
	return ok, nil
}

func (s *ContestStore) AddParticipant(_ context.Context, contestID, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[contestID]
	if !ok || c.HasParticipant(userID) {
		return false, nil
	}
	c.Participants = append(c.Participants, userID)
	s.contests[contestID] = c
	return true, nil
}

type DiscussionStore struct {
	mu          sync.Mutex
	discussions []models.Discussion
}

func NewDiscussionStore() *DiscussionStore {
	return &DiscussionStore{}
}

func (s *DiscussionStore) CreateDiscussion(_ context.Context, discussion *models.Discussion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if discussion.ID.IsZero() {
		discussion.ID = primitive.NewObjectID()
	}
	s.discussions = append(s.discussions, *discussion)
	return nil
}

func (s *DiscussionStore) index(id primitive.ObjectID) int {
	for i := range s.discussions {
		if s.discussions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *DiscussionStore) GetDiscussionByID(_ context.Context, id primitive.ObjectID) (*models.Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, utils.NewError(utils.ErrNotFound, "Discussion not found")
	}
	d := s.discussions[i]
	return &d, nil
}

func (s *DiscussionStore) GetDiscussions(_ context.Context, limit int64) ([]models.Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	discussions := []models.Discussion{}
	for i := len(s.discussions) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(discussions)) == limit {
			break
		}
		discussions = append(discussions, s.discussions[i])
	}
	return discussions, nil
}

func (s *DiscussionStore) AddComment(_ context.Context, id primitive.ObjectID, comment models.Comment) (*models.Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, utils.NewError(utils.ErrNotFound, "Discussion not found")
	}
	d := &s.discussions[i]
	d.Comments = append(append([]models.Comment{}, d.Comments...), comment)
	d.UpdatedAt = comment.CreatedAt
	out := *d
	return &out, nil
}

func (s *DiscussionStore) AddReply(_ context.Context, id, commentID primitive.ObjectID, reply models.Reply) (*models.Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, utils.NewError(utils.ErrNotFound, "Discussion not found")
	}
	d := &s.discussions[i]
	comments := append([]models.Comment{}, d.Comments...)
	for j := range comments {
		if comments[j].ID == commentID {
			comments[j].Replies = append(append([]models.Reply{}, comments[j].Replies...), reply)
			d.Comments = comments
			d.UpdatedAt = reply.CreatedAt
			out := *d
			return &out, nil
		}
	}
	return nil, utils.NewError(utils.ErrNotFound, "Discussion not found")
}

type ReportStore struct {
	mu      sync.Mutex
	reports []models.Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

func (s *ReportStore) CreateReport(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	s.reports = append(s.reports, *report)
	return nil
}

func (s *ReportStore) GetReports(_ context.Context, status string) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reports := []models.Report{}
	for i := len(s.reports) - 1; i >= 0; i-- {
		if status == "" || strings.EqualFold(s.reports[i].Status, status) {
			reports = append(reports, s.reports[i])
		}
	}
	return reports, nil
}

func (s *ReportStore) CloseReport(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].ID == id {
			s.reports[i].Status = models.ReportStatusClosed
			s.reports[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return utils.NewError(utils.ErrNotFound, "Report not found")
}

// Stores bundles one of each store.
type Stores struct {
	Users       *UserStore
	Problems    *ProblemStore
	Submissions *SubmissionStore
	Contests    *ContestStore
	Discussions *DiscussionStore
	Reports     *ReportStore
}

func NewStores() *Stores {
	return &Stores{
		Users:       NewUserStore(),
		Problems:    NewProblemStore(),
		Submissions: NewSubmissionStore(),
		Contests:    NewContestStore(),
		Discussions: NewDiscussionStore(),
		Reports:     NewReportStore(),
	}
}
