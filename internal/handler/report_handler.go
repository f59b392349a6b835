package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
	"github.com/noah-isme/peer-review-dashboard/internal/report"
	"github.com/noah-isme/peer-review-dashboard/internal/service"
	"github.com/noah-isme/peer-review-dashboard/internal/utils"
)

// ReportHandler renders PDF exports of the dashboard state.
type ReportHandler struct {
	service service.PlatformSyncService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewReportHandler creates a new handler instance.
func NewReportHandler(service service.PlatformSyncService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
		now:     time.Now,
	}
}

// WithClock overrides the clock used for report timestamps.
func (h *ReportHandler) WithClock(now func() time.Time) *ReportHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Register attaches the student report endpoint.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/reports/students/:name", h.studentReport)
}

// RegisterTeacher attaches the project export endpoint behind the given guards.
func (h *ReportHandler) RegisterTeacher(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/reports/projects.pdf", chain(guards, h.projectExport)...)
}

func (h *ReportHandler) projectExport(c *fiber.Ctx) error {
	var filter dto.ProjectFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	state := h.currentState(c)
	generatedAt := h.now().UTC()
	lines := report.ProjectExportLines(service.FilterProjects(state.Projects, filter), generatedAt)

	return h.sendPDF(c, fmt.Sprintf("projects-export-%s", generatedAt.Format("20060102-150405")), lines)
}

func (h *ReportHandler) studentReport(c *fiber.Ctx) error {
	student := strings.TrimSpace(strings.TrimSuffix(pathParam(c, "name"), ".pdf"))
	if student == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "student name is required")
	}

	state := h.currentState(c)
	summary := service.SummarizeStudent(state, student)
	lines := report.StudentReportLines(summary, service.StudentProjects(state, student), h.now().UTC())

	return h.sendPDF(c, "student-report-"+slug(student), lines)
}

func (h *ReportHandler) currentState(c *fiber.Ctx) models.PlatformState {
	state, err := h.service.RefreshState(c.UserContext())
	if err != nil {
		state, _ = staleSnapshot(c, h.service, h.logger, err)
	}
	return state
}

func (h *ReportHandler) sendPDF(c *fiber.Ctx, name string, lines []string) error {
	document, err := report.RenderPDF(lines)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to render report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to render report")
	}
	filename := report.Filename(name)

	requestLogger(h.logger, c).Info().Str("file", filename).Int("bytes", len(document)).Msg("report rendered")

	return utils.SendDocument(c, report.ContentType(document), filename, document)
}

func slug(value string) string {
	var builder strings.Builder
	dash := false
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			dash = false
		case !dash && builder.Len() > 0:
			builder.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(builder.String(), "-")
}
