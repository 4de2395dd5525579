package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DifficultyEasy   = 1
	DifficultyMedium = 2
	DifficultyHard   = 3
)

var difficultyLabels = map[int]string{
	DifficultyEasy:   "Easy",
	DifficultyMedium: "Medium",
	DifficultyHard:   "Hard",
}

// DifficultyLabel returns the display label for a difficulty level and whether the level is known.
func DifficultyLabel(level int) (string, bool) {
	label, ok := difficultyLabels[level]
	return label, ok
}

type Problem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title         string             `bson:"title" json:"title"`
	Slug          string             `bson:"slug" json:"slug"`
	Description   string             `bson:"description" json:"description"`
	Difficulty    int                `bson:"difficulty" json:"difficulty"`
	Score         int                `bson:"score" json:"score"`
	Tags          []string           `bson:"tags" json:"tags"`
	Author        primitive.ObjectID `bson:"author" json:"author"`
	Options       []string           `bson:"options" json:"options"`
	CorrectOption int                `bson:"correctOption" json:"-"`
	ImageURL      *string            `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// ProblemView is a problem as served to solvers: the correct option is never included.
type ProblemView struct {
	*Problem
	DifficultyLabel string `json:"difficultyLabel"`
}

func (p *Problem) View() ProblemView {
	label, _ := DifficultyLabel(p.Difficulty)
	return ProblemView{Problem: p, DifficultyLabel: label}
}

type CreateProblemRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Difficulty    int      `json:"difficulty"`
	Score         int      `json:"score"`
	Tags          []string `json:"tags"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	ImageURL      *string  `json:"imageUrl"`
}

func (r *CreateProblemRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	if r.Title == "" || r.Description == "" {
		return errors.New("title and description are required")
	}
	if _, ok := DifficultyLabel(r.Difficulty); !ok {
		return errors.New("difficulty must be 1 (Easy), 2 (Medium) or 3 (Hard)")
	}
	if r.Score <= 0 {
		return errors.New("score must be a positive integer")
	}
	if len(r.Options) == 0 {
		return errors.New("at least one option is required")
	}
	for _, opt := range r.Options {
		if strings.TrimSpace(opt) == "" {
			return errors.New("options cannot be empty")
		}
	}
	if r.CorrectOption < 0 || r.CorrectOption >= len(r.Options) {
		return errors.New("correctOption must index into options")
	}

	tags := make([]string, 0, len(r.Tags))
	for _, tag := range r.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}
	r.Tags = tags
	return nil
}

type ProblemFilter struct {
	Tag        string
	Difficulty int
	Limit      int64
}

type PracticeSetRequest struct {
	Tags       []string `json:"tags"`
	Difficulty int      `json:"difficulty"`
	Count      int      `json:"count"`
}

func (r *PracticeSetRequest) Validate() error {
	if r.Count == 0 {
		r.Count = 5
	}
	if r.Count < 1 || r.Count > 20 {
		return errors.New("count must be between 1 and 20")
	}
	if r.Difficulty != 0 {
		if _, ok := DifficultyLabel(r.Difficulty); !ok {
			return errors.New("difficulty must be 1, 2 or 3")
		}
	}
	for i, tag := range r.Tags {
		r.Tags[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	return nil
}
