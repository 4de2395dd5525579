package handlers

import (
	"net/http"

	"jeeforces/internal/middlewares"
	"jeeforces/internal/models"
	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) CreateReport(c *gin.Context) {
	reporter, ok := identity(c)
	if !ok {
		return
	}

	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), reporter.ID, &req)
	if err != nil {
		respondError(c, err, "submit report")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	reports, err := h.reports.ListReports(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err, "retrieve reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *ReportHandler) CloseReport(c *gin.Context) {
	id, ok := objectIDParam(c, "id", "Report not found")
	if !ok {
		return
	}
	if err := h.reports.CloseReport(c.Request.Context(), id); err != nil {
		respondError(c, err, "close report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report closed"})
}

func (h *ReportHandler) RegisterRoutes(api, admin *gin.RouterGroup, limit gin.HandlerFunc) {
	api.POST("/reports", middlewares.RequireSession(), limit, h.CreateReport)

	admin.GET("/reports", h.ListReports)
	admin.PATCH("/reports/:id/close", h.CloseReport)
}
