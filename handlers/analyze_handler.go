package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"claimlens-backend/models"
	"claimlens-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalyzeHandler handles HTTP requests for transcript analysis
type AnalyzeHandler struct {
	analysisService *service.AnalysisService
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(analysisService *service.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisService: analysisService,
	}
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	started := time.Now()

	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if req.Transcript == "" && len(req.Segments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transcript is required"})
		return
	}

	transcript := &models.Transcript{
		VideoID:    req.VideoID,
		Title:      req.Title,
		Segments:   req.Segments,
		FullText:   req.Transcript,
		CapturedAt: time.Now().UTC(),
	}

	log.Printf("[HANDLER] analyze request: video=%q chars=%d full_report=%v", req.VideoID, len(transcript.Text()), req.FullReport)

	report, err := h.analysisService.Analyze(c.Request.Context(), transcript, req.FullReport)
	if err != nil {
		if errors.Is(err, service.ErrEmptyTranscript) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Pipeline failures still produce a well-formed body with an
		// explanatory message and empty claims
		body := gin.H{
			"error":  err.Error(),
			"claims": []models.ReportSection{},
		}
		if report != nil {
			body["message"] = report.Message
			body["markdown"] = report.Markdown
			body["summary"] = report.Summary
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	if req.ClientStartTime > 0 {
		log.Printf("[HANDLER] end-to-end latency %dms (client start %d)", time.Now().UnixMilli()-req.ClientStartTime, req.ClientStartTime)
	}
	log.Printf("[HANDLER] analyze done in %v: %d claims", time.Since(started).Round(time.Millisecond), len(report.Claims))

	c.JSON(http.StatusOK, report)
}

// GetReport handles GET /api/reports/:id
func (h *AnalyzeHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID format"})
		return
	}

	record, err := h.analysisService.GetReport(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// Health handles GET /health
func (h *AnalyzeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
