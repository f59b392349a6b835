package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/service"
	"github.com/noah-isme/peer-review-dashboard/internal/utils"
)

// DashboardHandler exposes platform state reads and dashboard mutations.
type DashboardHandler struct {
	service   service.PlatformSyncService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDashboardHandler creates a new handler instance.
func NewDashboardHandler(service service.PlatformSyncService, validator *validator.Validate, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches read endpoints and the mutations every role may perform.
// Guards run in front of each mutation only.
func (h *DashboardHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/state", h.getState)
	router.Post("/state/refresh", h.refreshState)
	router.Get("/projects", h.listProjects)
	router.Get("/projects/:id/reviews", h.listProjectReviews)
	router.Get("/reviewers/:name/projects", h.listReviewerProjects)
	router.Get("/students/:name/summary", h.getStudentSummary)

	router.Post("/projects", chain(guards, h.uploadProject)...)
	router.Post("/projects/:id/reviews", chain(guards, h.submitReview)...)
	router.Post("/reviews/:id/replies", chain(guards, h.addReply)...)
	router.Patch("/notifications/:id/read", chain(guards, h.markNotificationRead)...)
}

// RegisterTeacher attaches the mutations reserved for teachers behind the given guards.
func (h *DashboardHandler) RegisterTeacher(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/projects/:id/assign-reviewers", chain(guards, h.setAssignment)...)
	router.Post("/projects/:id/feedback", chain(guards, h.saveDecision)...)
}

func (h *DashboardHandler) getState(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "platform state retrieved", h.service.Snapshot(c.UserContext()))
}

func (h *DashboardHandler) refreshState(c *fiber.Ctx) error {
	state, err := h.service.RefreshState(c.UserContext())
	if err != nil {
		stale, message := staleSnapshot(c, h.service, h.logger, err)
		return utils.SendSuccess(c, message, stale)
	}

	return utils.SendSuccess(c, "platform state refreshed", state)
}

func (h *DashboardHandler) listProjects(c *fiber.Ctx) error {
	var filter dto.ProjectFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := h.validator.Struct(filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, filterErrorMessage(err))
	}

	projects, err := h.service.FetchProjects(c.UserContext())
	if err != nil {
		state, _ := staleSnapshot(c, h.service, h.logger, err)
		projects = state.Projects
	}

	return utils.SendSuccess(c, "projects retrieved", service.FilterProjects(projects, filter))
}

func (h *DashboardHandler) listProjectReviews(c *fiber.Ctx) error {
	projectID := pathParam(c, "id")
	reviews, err := h.service.FetchProjectReviews(c.UserContext(), projectID)
	if err != nil {
		state, _ := staleSnapshot(c, h.service, h.logger, err)
		reviews = state.ReviewsForProject(projectID)
	}

	return utils.SendSuccess(c, "reviews retrieved", reviews)
}

func (h *DashboardHandler) listReviewerProjects(c *fiber.Ctx) error {
	reviewer := pathParam(c, "name")
	projects, err := h.service.ProjectsForReviewer(c.UserContext(), reviewer)
	if err != nil {
		state, _ := staleSnapshot(c, h.service, h.logger, err)
		projects = service.ReviewerProjects(state, reviewer)
	}

	return utils.SendSuccess(c, "assigned projects retrieved", projects)
}

func (h *DashboardHandler) getStudentSummary(c *fiber.Ctx) error {
	student := pathParam(c, "name")
	summary, err := h.service.StudentSummary(c.UserContext(), student)
	if err != nil {
		state, _ := staleSnapshot(c, h.service, h.logger, err)
		summary = service.SummarizeStudent(state, student)
	}

	return utils.SendSuccess(c, "student summary retrieved", summary)
}

func (h *DashboardHandler) uploadProject(c *fiber.Ctx) error {
	var payload dto.UploadProjectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}
	payload.Author = actorOr(c, payload.Author)

	result, err := h.service.UploadProject(c.UserContext(), payload)
	if err != nil {
		return sendSyncError(c, h.logger, err, "upload_project")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "project uploaded", result)
}

func (h *DashboardHandler) submitReview(c *fiber.Ctx) error {
	var payload dto.SubmitReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}
	payload.Reviewer = actorOr(c, payload.Reviewer)

	result, err := h.service.SubmitReview(c.UserContext(), pathParam(c, "id"), payload)
	if err != nil {
		return sendSyncError(c, h.logger, err, "submit_review")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "review submitted", result)
}

func (h *DashboardHandler) addReply(c *fiber.Ctx) error {
	var payload dto.ReviewReplyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}
	payload.Author = actorOr(c, payload.Author)

	result, err := h.service.AddReviewReply(c.UserContext(), pathParam(c, "id"), payload)
	if err != nil {
		return sendSyncError(c, h.logger, err, "add_review_reply")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reply added", result)
}

func (h *DashboardHandler) markNotificationRead(c *fiber.Ctx) error {
	result, err := h.service.MarkNotificationRead(c.UserContext(), pathParam(c, "id"))
	if err != nil {
		return sendSyncError(c, h.logger, err, "mark_notification_read")
	}

	return utils.SendSuccess(c, "notification marked as read", result)
}

func (h *DashboardHandler) setAssignment(c *fiber.Ctx) error {
	var payload dto.AssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	result, err := h.service.SetAssignment(c.UserContext(), pathParam(c, "id"), payload)
	if err != nil {
		return sendSyncError(c, h.logger, err, "set_assignment")
	}

	return utils.SendSuccess(c, "reviewers assigned", result)
}

func (h *DashboardHandler) saveDecision(c *fiber.Ctx) error {
	var payload dto.TeacherDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}
	if strings.TrimSpace(payload.TeacherName) == "" {
		payload.TeacherName = actorOr(c, "")
	}

	result, err := h.service.SaveTeacherDecision(c.UserContext(), pathParam(c, "id"), payload)
	if err != nil {
		return sendSyncError(c, h.logger, err, "save_teacher_decision")
	}

	return utils.SendSuccess(c, "decision saved", result)
}

func filterErrorMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return strings.ToLower(fe.Field()) + " must be one of: " + fe.Param()
	}
	return "invalid query parameters"
}
