package services

import (
	"context"
	"strings"
	"time"

	"jeeforces/internal/models"
	"jeeforces/internal/repositories"
	"jeeforces/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCommentTextRequired = utils.NewError(utils.ErrValidation, "Comment text is required")
	ErrReplyTextRequired   = utils.NewError(utils.ErrValidation, "Reply text is required")
)

type DiscussionService struct {
	discussions repositories.DiscussionRepository
	users       repositories.UserRepository
	now         func() time.Time
}

func NewDiscussionService(discussions repositories.DiscussionRepository, users repositories.UserRepository) *DiscussionService {
	return &DiscussionService{discussions: discussions, users: users, now: time.Now}
}

func (s *DiscussionService) resolve(ctx context.Context, d *models.Discussion) (*models.DiscussionView, error) {
	names, err := s.users.UsernamesByIDs(ctx, d.AuthorIDs())
	if err != nil {
		return nil, err
	}
	view := d.Resolve(names)
	return &view, nil
}

func (s *DiscussionService) CreateDiscussion(ctx context.Context, author primitive.ObjectID, req *models.CreateDiscussionRequest) (*models.Discussion, error) {
	now := s.now()
	d := &models.Discussion{
		Title:     req.Title,
		Content:   req.Content,
		Author:    author,
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.discussions.CreateDiscussion(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDiscussions returns the newest discussions with author names resolved.
func (s *DiscussionService) ListDiscussions(ctx context.Context, limit int64) ([]models.DiscussionView, error) {
	discussions, err := s.discussions.GetDiscussions(ctx, limit)
	if err != nil {
		return nil, err
	}

	var ids []primitive.ObjectID
	for i := range discussions {
		ids = append(ids, discussions[i].AuthorIDs()...)
	}
	names, err := s.users.UsernamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.DiscussionView, 0, len(discussions))
	for i := range discussions {
		views = append(views, discussions[i].Resolve(names))
	}
	return views, nil
}

func (s *DiscussionService) GetDiscussion(ctx context.Context, id primitive.ObjectID) (*models.DiscussionView, error) {
	d, err := s.discussions.GetDiscussionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, d)
}

// AddComment appends a comment in one atomic push and returns the updated discussion.
func (s *DiscussionService) AddComment(ctx context.Context, id, author primitive.ObjectID, text string) (*models.DiscussionView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentTextRequired
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Author:    author,
		Text:      text,
		Replies:   []models.Reply{},
		CreatedAt: s.now(),
	}
	d, err := s.discussions.AddComment(ctx, id, comment)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, d)
}

func (s *DiscussionService) AddReply(ctx context.Context, id, commentID, author primitive.ObjectID, text string) (*models.DiscussionView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrReplyTextRequired
	}

	reply := models.Reply{
		ID:        primitive.NewObjectID(),
		Author:    author,
		Text:      text,
		CreatedAt: s.now(),
	}
	d, err := s.discussions.AddReply(ctx, id, commentID, reply)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, d)
}
