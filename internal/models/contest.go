package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContestStatus string

const (
	ContestStatusUpcoming ContestStatus = "upcoming"
	ContestStatusRunning  ContestStatus = "running"
	ContestStatusEnded    ContestStatus = "ended"
)

type Contest struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	StartTime    time.Time            `bson:"startTime" json:"startTime"`
	EndTime      time.Time            `bson:"endTime" json:"endTime"`
	Problems     []primitive.ObjectID `bson:"problems" json:"problems"`
	CreatedBy    primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
}

// StatusAt reports where the contest stands relative to now.
func (c *Contest) StatusAt(now time.Time) ContestStatus {
	switch {
	case now.Before(c.StartTime):
		return ContestStatusUpcoming
	case now.After(c.EndTime):
		return ContestStatusEnded
	default:
		return ContestStatusRunning
	}
}

func (c *Contest) HasParticipant(userID primitive.ObjectID) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

type ContestSummary struct {
	ID               primitive.ObjectID `json:"_id"`
	Title            string             `json:"title"`
	StartTime        time.Time          `json:"startTime"`
	EndTime          time.Time          `json:"endTime"`
	Status           ContestStatus      `json:"status"`
	ParticipantCount int                `json:"participantCount"`
	ProblemCount     int                `json:"problemCount"`
}

func (c *Contest) Summary(now time.Time) ContestSummary {
	return ContestSummary{
		ID:               c.ID,
		Title:            c.Title,
		StartTime:        c.StartTime,
		EndTime:          c.EndTime,
		Status:           c.StatusAt(now),
		ParticipantCount: len(c.Participants),
		ProblemCount:     len(c.Problems),
	}
}

type CreateContestRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	StartTime   time.Time            `json:"startTime"`
	EndTime     time.Time            `json:"endTime"`
	Problems    []primitive.ObjectID `json:"problems"`
}

func (r *CreateContestRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return errors.New("startTime and endTime are required")
	}
	if !r.EndTime.After(r.StartTime) {
		return errors.New("endTime must be after startTime")
	}
	return nil
}

type LeaderboardEntry struct {
	Rank     int                `json:"rank"`
	UserID   primitive.ObjectID `json:"userId"`
	Username string             `json:"username"`
	Score    int                `json:"score"`
	Solved   int                `json:"solved"`
}
