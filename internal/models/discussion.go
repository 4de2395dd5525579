package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	Replies   []Reply            `bson:"replies" json:"replies"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Discussion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Comments  []Comment          `bson:"comments" json:"comments"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AuthorRef is an author reference with the username resolved.
type AuthorRef struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
}

type ReplyView struct {
	ID        primitive.ObjectID `json:"_id"`
	Author    AuthorRef          `json:"author"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"createdAt"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"_id"`
	Author    AuthorRef          `json:"author"`
	Text      string             `json:"text"`
	Replies   []ReplyView        `json:"replies"`
	CreatedAt time.Time          `json:"createdAt"`
}

type DiscussionView struct {
	ID        primitive.ObjectID `json:"_id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Author    AuthorRef          `json:"author"`
	Comments  []CommentView      `json:"comments"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// AuthorIDs returns every distinct author referenced by the discussion, its comments and replies.
func (d *Discussion) AuthorIDs() []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{d.Author: true}
	ids := []primitive.ObjectID{d.Author}
	add := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, c := range d.Comments {
		add(c.Author)
		for _, r := range c.Replies {
			add(r.Author)
		}
	}
	return ids
}

// Resolve builds the view of the discussion using the given id to username mapping.
// Unknown authors keep their id with an empty username.
func (d *Discussion) Resolve(names map[primitive.ObjectID]string) DiscussionView {
	ref := func(id primitive.ObjectID) AuthorRef {
		return AuthorRef{ID: id, Username: names[id]}
	}

	comments := make([]CommentView, 0, len(d.Comments))
	for _, c := range d.Comments {
		replies := make([]ReplyView, 0, len(c.Replies))
		for _, r := range c.Replies {
			replies = append(replies, ReplyView{ID: r.ID, Author: ref(r.Author), Text: r.Text, CreatedAt: r.CreatedAt})
		}
		comments = append(comments, CommentView{
			ID:        c.ID,
			Author:    ref(c.Author),
			Text:      c.Text,
			Replies:   replies,
			CreatedAt: c.CreatedAt,
		})
	}

	return DiscussionView{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Author:    ref(d.Author),
		Comments:  comments,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type CreateDiscussionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r *CreateDiscussionRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
	if r.Title == "" || r.Content == "" {
		return errors.New("title and content are required")
	}
	return nil
}

type CommentRequest struct {
	Text string `json:"text"`
}
