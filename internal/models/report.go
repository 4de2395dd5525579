package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReportTypeFeedback = "Feedback"
	ReportTypeReport   = "Report"

	ReportStatusOpen   = "Open"
	ReportStatusClosed = "Closed"
)

type Report struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Type           string              `bson:"type" json:"type"`
	ReporterID     primitive.ObjectID  `bson:"reporter" json:"reporter"`
	ReportedUserID *primitive.ObjectID `bson:"reportedUserId,omitempty" json:"reportedUserId,omitempty"`
	Message        string              `bson:"message" json:"message"`
	Status         string              `bson:"status" json:"status"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type CreateReportRequest struct {
	Type             string `json:"type"`
	Message          string `json:"message"`
	ReportedUsername string `json:"reportedUsername"`
}

func (r *CreateReportRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	r.ReportedUsername = strings.TrimSpace(r.ReportedUsername)

	switch r.Type {
	case ReportTypeFeedback:
		if r.ReportedUsername != "" {
			return errors.New("feedback cannot name a reported user")
		}
	case ReportTypeReport:
	default:
		return errors.New("type must be Feedback or Report")
	}
	if r.Message == "" {
		return errors.New("message is required")
	}
	return nil
}
