package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	VerdictCorrect   = "Correct"
	VerdictIncorrect = "Incorrect"
)

type Submission struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	UserID          primitive.ObjectID  `bson:"user" json:"user"`
	ProblemID       primitive.ObjectID  `bson:"problem" json:"problem"`
	ContestID       *primitive.ObjectID `bson:"contest,omitempty" json:"contest,omitempty"`
	SelectedOptions []int               `bson:"selectedOptions" json:"selectedOptions"`
	Verdict         string              `bson:"verdict" json:"verdict"`
	Score           int                 `bson:"score" json:"score"`
	IsFinal         bool                `bson:"isFinal" json:"isFinal"`
	SubmittedAt     time.Time           `bson:"submittedAt" json:"submittedAt"`
}

type SubmissionRequest struct {
	SelectedOptions []int               `json:"selectedOptions"`
	ContestID       *primitive.ObjectID `json:"contestId"`
}

func (r *SubmissionRequest) ValidateRequest(optionCount int) error {
	if len(r.SelectedOptions) == 0 {
		return errors.New("select at least one option")
	}
	seen := make(map[int]bool, len(r.SelectedOptions))
	for _, opt := range r.SelectedOptions {
		if opt < 0 || opt >= optionCount {
			return errors.New("selected option out of range")
		}
		if seen[opt] {
			return errors.New("options cannot be selected twice")
		}
		seen[opt] = true
	}
	return nil
}

// Grade returns the verdict and score for the selected options against a problem.
// An answer is correct only when the correct option is the sole selection.
func Grade(p *Problem, selected []int) (string, int) {
	if len(selected) == 1 && selected[0] == p.CorrectOption {
		return VerdictCorrect, p.Score
	}
	return VerdictIncorrect, 0
}
