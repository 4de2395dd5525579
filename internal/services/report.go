package services

import (
	"context"
	"errors"
	"time"

	"jeeforces/internal/models"
	"jeeforces/internal/repositories"
	"jeeforces/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrReportedUserNotFound = utils.NewError(utils.ErrNotFound, "Reported user not found")

type ReportService struct {
	reports repositories.ReportRepository
	users   repositories.UserRepository
	now     func() time.Time
}

func NewReportService(reports repositories.ReportRepository, users repositories.UserRepository) *ReportService {
	return &ReportService{reports: reports, users: users, now: time.Now}
}

func (s *ReportService) CreateReport(ctx context.Context, reporter primitive.ObjectID, req *models.CreateReportRequest) (*models.Report, error) {
	now := s.now()
	report := &models.Report{
		Type:       req.Type,
		ReporterID: reporter,
		Message:    req.Message,
		Status:     models.ReportStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if req.ReportedUsername != "" {
		reported, err := s.users.GetUserByUsername(ctx, req.ReportedUsername)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil, ErrReportedUserNotFound
			}
			return nil, err
		}
		report.ReportedUserID = &reported.ID
	}

	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) ListReports(ctx context.Context, status string) ([]models.Report, error) {
	switch status {
	case "", models.ReportStatusOpen, models.ReportStatusClosed:
	default:
		return nil, utils.NewError(utils.ErrValidation, "status must be Open or Closed")
	}
	return s.reports.GetReports(ctx, status)
}

func (s *ReportService) CloseReport(ctx context.Context, id primitive.ObjectID) error {
	return s.reports.CloseReport(ctx, id)
}
