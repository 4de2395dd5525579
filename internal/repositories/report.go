package repositories

import (
	"context"
	"fmt"
	"time"

	"jeeforces/internal/dbs"
	"jeeforces/internal/models"
	"jeeforces/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReports(ctx context.Context, status string) ([]models.Report, error)
	CloseReport(ctx context.Context, id primitive.ObjectID) error
}

type reportRepository struct {
	col *mongo.Collection
}

func NewReportRepository(db *mongo.Database) ReportRepository {
	return &reportRepository{col: db.Collection(dbs.ReportsCollection)}
}

func (r *reportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetReports(ctx context.Context, status string) ([]models.Report, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) CloseReport(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"status": models.ReportStatusClosed, "updatedAt": time.Now()}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if res.MatchedCount == 0 {
		return utils.NewError(utils.ErrNotFound, "Report not found")
	}
	return nil
}
