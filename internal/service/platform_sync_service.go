package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/events"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
	"github.com/noah-isme/peer-review-dashboard/internal/observability"
	"github.com/noah-isme/peer-review-dashboard/pkg/backend"
)

const (
	defaultAuthor      = "Student"
	defaultTeacherName = "Teacher"
	refreshWarning     = "but dashboard refresh failed. Please reload the page."
)

// PlatformSyncService bridges dashboard actions to the backend API and the local snapshot.
// Every confirmed mutation is followed by InvalidateAndReload.
type PlatformSyncService interface {
	Snapshot(ctx context.Context) models.PlatformState
	RefreshState(ctx context.Context) (models.PlatformState, error)
	InvalidateAndReload(ctx context.Context) (models.PlatformState, error)
	FetchProjects(ctx context.Context) ([]models.Project, error)
	FetchProjectReviews(ctx context.Context, projectID string) ([]models.Review, error)
	ProjectsForReviewer(ctx context.Context, reviewer string) ([]models.Project, error)
	StudentSummary(ctx context.Context, student string) (dto.StudentSummary, error)
	UploadProject(ctx context.Context, req dto.UploadProjectRequest) (dto.UploadProjectResult, error)
	SubmitReview(ctx context.Context, projectID string, req dto.SubmitReviewRequest) (dto.ReviewResult, error)
	SetAssignment(ctx context.Context, projectID string, req dto.AssignmentRequest) (dto.MutationResult, error)
	SaveTeacherDecision(ctx context.Context, projectID string, req dto.TeacherDecisionRequest) (dto.MutationResult, error)
	AddReviewReply(ctx context.Context, reviewID string, req dto.ReviewReplyRequest) (dto.MutationResult, error)
	MarkNotificationRead(ctx context.Context, notificationID string) (dto.MutationResult, error)
}

type platformSyncService struct {
	transport  backend.Transport
	store      SnapshotStore
	normalizer *Normalizer
	validator  *validator.Validate
	publisher  events.Publisher
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewPlatformSyncService constructs the sync façade. A nil publisher disables events.
func NewPlatformSyncService(transport backend.Transport, store SnapshotStore, normalizer *Normalizer, validate *validator.Validate, publisher events.Publisher, logger zerolog.Logger) PlatformSyncService {
	if validate == nil {
		validate = NewValidator()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &platformSyncService{
		transport:  transport,
		store:      store,
		normalizer: normalizer,
		validator:  validate,
		publisher:  publisher,
		logger:     logger.With().Str("component", "platform_sync_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/peer-review-dashboard/internal/service/platform_sync"),
		now:        time.Now,
	}
}

func (s *platformSyncService) Snapshot(ctx context.Context) models.PlatformState {
	return s.store.Load(ctx)
}

func (s *platformSyncService) RefreshState(ctx context.Context) (models.PlatformState, error) {
	ctx, span := s.tracer.Start(ctx, "platform_sync.refresh_state")
	defer span.End()
	start := time.Now()

	state, err := s.refresh(ctx)
	s.record("refresh_state", start, "", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		return models.PlatformState{}, err
	}

	span.SetAttributes(attribute.Int("platform.projects", len(state.Projects)))
	s.publish(ctx, events.Event{
		Type:      events.TypeStateRefreshed,
		Operation: "refresh_state",
		Projects:  len(state.Projects),
		Reviews:   len(state.Reviews),
	})
	return state, nil
}

func (s *platformSyncService) InvalidateAndReload(ctx context.Context) (models.PlatformState, error) {
	return s.RefreshState(ctx)
}

func (s *platformSyncService) refresh(ctx context.Context) (models.PlatformState, error) {
	resp, err := s.transport.Do(ctx, backend.Request{Method: http.MethodGet, Path: "/platform/state"})
	if err != nil {
		return models.PlatformState{}, err
	}
	if !resp.OK() {
		return models.PlatformState{}, requestError("refresh_state", resp, "Failed to load platform state")
	}

	payload, err := DecodePayload(resp.Body)
	if err != nil {
		return models.PlatformState{}, err
	}
	normalized, err := s.normalizer.Normalize(payload)
	if err != nil {
		return models.PlatformState{}, err
	}
	state := ReconcileUploadHistory(normalized)

	if err := s.store.Save(ctx, state); err != nil {
		s.logger.Warn().Err(err).Msg("refreshed state could not be persisted")
	}
	return state, nil
}

func (s *platformSyncService) FetchProjects(ctx context.Context) ([]models.Project, error) {
	state, err := s.RefreshState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Projects, nil
}

func (s *platformSyncService) FetchProjectReviews(ctx context.Context, projectID string) ([]models.Review, error) {
	state, err := s.RefreshState(ctx)
	if err != nil {
		return nil, err
	}
	return state.ReviewsForProject(strings.TrimSpace(projectID)), nil
}

func (s *platformSyncService) ProjectsForReviewer(ctx context.Context, reviewer string) ([]models.Project, error) {
	state, err := s.RefreshState(ctx)
	if err != nil {
		return nil, err
	}
	return ReviewerProjects(state, strings.TrimSpace(reviewer)), nil
}

func (s *platformSyncService) StudentSummary(ctx context.Context, student string) (dto.StudentSummary, error) {
	state, err := s.RefreshState(ctx)
	if err != nil {
		return dto.StudentSummary{}, err
	}
	return SummarizeStudent(state, strings.TrimSpace(student)), nil
}

type uploadFilePayload struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type uploadProjectPayload struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Author      string              `json:"author"`
	Files       []uploadFilePayload `json:"files"`
}

func (s *platformSyncService) UploadProject(ctx context.Context, req dto.UploadProjectRequest) (dto.UploadProjectResult, error) {
	const op = "upload_project"
	ctx, span := s.tracer.Start(ctx, "platform_sync."+op)
	defer span.End()
	start := time.Now()

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Author = strings.TrimSpace(req.Author)
	if req.Author == "" {
		req.Author = defaultAuthor
	}
	for i := range req.Files {
		req.Files[i].Name = strings.TrimSpace(req.Files[i].Name)
	}
	if err := s.validate(req); err != nil {
		s.fail(span, op, start, err)
		return dto.UploadProjectResult{}, err
	}

	payload := uploadProjectPayload{
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Files:       make([]uploadFilePayload, 0, len(req.Files)),
	}
	for _, file := range req.Files {
		payload.Files = append(payload.Files, uploadFilePayload{Name: file.Name, Size: file.Size})
	}

	resp, err := s.send(ctx, op, backend.Request{Method: http.MethodPost, Path: "/projects", Body: payload}, "Failed to upload project")
	if err != nil {
		s.fail(span, op, start, err)
		return dto.UploadProjectResult{}, err
	}

	raw, decodeErr := DecodePayload(resp.Body)
	var project models.Project
	if decodeErr == nil {
		project, decodeErr = s.normalizer.NormalizeProject(raw)
	}

	warning := s.reloadAfterMutation(ctx, op, "Project created")
	if decodeErr != nil {
		err := fmt.Errorf("decode created project: %w", decodeErr)
		s.fail(span, op, start, err)
		return dto.UploadProjectResult{}, err
	}

	span.SetAttributes(attribute.String("project.id", project.ID))
	s.record(op, start, warning, nil)
	s.publish(ctx, events.Event{Type: events.TypeMutationApplied, Operation: op, ResourceID: project.ID, Warning: warning})
	s.logger.Info().Str("project_id", project.ID).Int("files", len(project.Files)).Msg("project uploaded")

	return dto.UploadProjectResult{Project: project, Warning: warning}, nil
}

func (s *platformSyncService) SubmitReview(ctx context.Context, projectID string, req dto.SubmitReviewRequest) (dto.ReviewResult, error) {
	const op = "submit_review"
	ctx, span := s.tracer.Start(ctx, "platform_sync."+op)
	defer span.End()
	start := time.Now()

	projectID = strings.TrimSpace(projectID)
	req.Reviewer = strings.TrimSpace(req.Reviewer)
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.requireID("projectId", projectID); err != nil {
		s.fail(span, op, start, err)
		return dto.ReviewResult{}, err
	}
	if err := s.validate(req); err != nil {
		s.fail(span, op, start, err)
		return dto.ReviewResult{}, err
	}

	resp, err := s.send(ctx, op, backend.Request{
		Method: http.MethodPost,
		Path:   "/projects/" + url.PathEscape(projectID) + "/reviews",
		Body:   req,
	}, "Failed to submit review")
	if err != nil {
		s.fail(span, op, start, err)
		return dto.ReviewResult{}, err
	}

	review := models.Review{ProjectID: projectID, Reviewer: req.Reviewer, Rating: float64(req.Rating), Comment: req.Comment}
	if raw, decodeErr := DecodePayload(resp.Body); decodeErr == nil {
		if created, normErr := s.normalizer.NormalizeReview(raw); normErr == nil {
			review = created
		} else {
			s.logger.Debug().Err(normErr).Msg("review acknowledgement carried no review")
		}
	}

	warning := s.reloadAfterMutation(ctx, op, "Review submitted")
	s.record(op, start, warning, nil)
	s.publish(ctx, events.Event{Type: events.TypeMutationApplied, Operation: op, ResourceID: projectID, Warning: warning})

	return dto.ReviewResult{Review: review, Warning: warning}, nil
}

func (s *platformSyncService) SetAssignment(ctx context.Context, projectID string, req dto.AssignmentRequest) (dto.MutationResult, error) {
	projectID = strings.TrimSpace(projectID)
	reviewers := make([]string, 0, len(req.Reviewers))
	for _, reviewer := range req.Reviewers {
		if name := strings.TrimSpace(reviewer); name != "" {
			reviewers = append(reviewers, name)
		}
	}
	req.Reviewers = reviewers

	return s.mutate(ctx, mutation{
		op:           "set_assignment",
		idField:      "projectId",
		resourceID:   projectID,
		payload:      req,
		request:      backend.Request{Method: http.MethodPost, Path: "/projects/" + url.PathEscape(projectID) + "/assign-reviewers", Body: req},
		fallback:     "Failed to save reviewer assignment",
		confirmation: "Reviewers assigned",
	})
}

func (s *platformSyncService) SaveTeacherDecision(ctx context.Context, projectID string, req dto.TeacherDecisionRequest) (dto.MutationResult, error) {
	projectID = strings.TrimSpace(projectID)
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	req.Comment = strings.TrimSpace(req.Comment)
	req.TeacherName = strings.TrimSpace(req.TeacherName)
	if req.TeacherName == "" {
		req.TeacherName = defaultTeacherName
	}
	if strings.TrimSpace(req.SubmittedAt) == "" {
		req.SubmittedAt = s.now().UTC().Format(time.RFC3339)
	}

	return s.mutate(ctx, mutation{
		op:           "save_teacher_decision",
		idField:      "projectId",
		resourceID:   projectID,
		payload:      req,
		request:      backend.Request{Method: http.MethodPost, Path: "/projects/" + url.PathEscape(projectID) + "/feedback", Body: req},
		fallback:     "Failed to save teacher decision",
		confirmation: "Decision saved",
	})
}

func (s *platformSyncService) AddReviewReply(ctx context.Context, reviewID string, req dto.ReviewReplyRequest) (dto.MutationResult, error) {
	reviewID = strings.TrimSpace(reviewID)
	req.Text = strings.TrimSpace(req.Text)
	req.Author = strings.TrimSpace(req.Author)

	return s.mutate(ctx, mutation{
		op:           "add_review_reply",
		idField:      "reviewId",
		resourceID:   reviewID,
		payload:      req,
		request:      backend.Request{Method: http.MethodPost, Path: "/reviews/" + url.PathEscape(reviewID) + "/replies", Body: req},
		fallback:     "Failed to add reply",
		confirmation: "Reply added",
	})
}

func (s *platformSyncService) MarkNotificationRead(ctx context.Context, notificationID string) (dto.MutationResult, error) {
	notificationID = strings.TrimSpace(notificationID)

	return s.mutate(ctx, mutation{
		op:           "mark_notification_read",
		idField:      "notificationId",
		resourceID:   notificationID,
		request:      backend.Request{Method: http.MethodPatch, Path: "/notifications/" + url.PathEscape(notificationID) + "/read"},
		fallback:     "Failed to mark notification as read",
		confirmation: "Notification updated",
	})
}

type mutation struct {
	op           string
	idField      string
	resourceID   string
	payload      interface{}
	request      backend.Request
	fallback     string
	confirmation string
}

// mutate validates, sends and reloads. Nothing is persisted unless the backend confirmed the change.
func (s *platformSyncService) mutate(ctx context.Context, m mutation) (dto.MutationResult, error) {
	ctx, span := s.tracer.Start(ctx, "platform_sync."+m.op, trace.WithAttributes(attribute.String("resource.id", m.resourceID)))
	defer span.End()
	start := time.Now()

	if err := s.requireID(m.idField, m.resourceID); err != nil {
		s.fail(span, m.op, start, err)
		return dto.MutationResult{}, err
	}
	if m.payload != nil {
		if err := s.validate(m.payload); err != nil {
			s.fail(span, m.op, start, err)
			return dto.MutationResult{}, err
		}
	}

	if _, err := s.send(ctx, m.op, m.request, m.fallback); err != nil {
		s.fail(span, m.op, start, err)
		return dto.MutationResult{}, err
	}

	warning := s.reloadAfterMutation(ctx, m.op, m.confirmation)
	s.record(m.op, start, warning, nil)
	s.publish(ctx, events.Event{Type: events.TypeMutationApplied, Operation: m.op, ResourceID: m.resourceID, Warning: warning})

	return dto.MutationResult{Success: true, Warning: warning}, nil
}

func (s *platformSyncService) send(ctx context.Context, op string, req backend.Request, fallback string) (backend.Response, error) {
	resp, err := s.transport.Do(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("operation", op).Msg("backend unreachable")
		return backend.Response{}, err
	}
	if !resp.OK() {
		reqErr := requestError(op, resp, fallback)
		s.logger.Warn().Str("operation", op).Int("status", resp.StatusCode).Str("error", reqErr.Message).Msg("backend rejected request")
		return backend.Response{}, reqErr
	}
	return resp, nil
}

// reloadAfterMutation refreshes the whole state. A failure here never undoes the confirmed
// mutation; it is reported as a warning instead.
func (s *platformSyncService) reloadAfterMutation(ctx context.Context, op, confirmation string) string {
	if _, err := s.InvalidateAndReload(ctx); err != nil {
		s.logger.Warn().Err(err).Str("operation", op).Msg("refresh after mutation failed")
		return confirmation + ", " + refreshWarning
	}
	return ""
}

func (s *platformSyncService) requireID(field, value string) error {
	if value == "" {
		return newValidationError(field, "%s is required.", field)
	}
	return nil
}

func (s *platformSyncService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("operation", event.Operation).Msg("failed to publish sync event")
	}
}

func (s *platformSyncService) fail(span trace.Span, op string, start time.Time, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	s.record(op, start, "", err)
}

func (s *platformSyncService) record(op string, start time.Time, warning string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrValidation):
		outcome = "invalid"
	case errors.Is(err, ErrBackendUnavailable):
		outcome = "unavailable"
	case err != nil:
		outcome = "error"
	case warning != "":
		outcome = "warning"
	}
	observability.SyncOperations().WithLabelValues(op, outcome).Inc()
	observability.SyncDuration().WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func requestError(op string, resp backend.Response, fallback string) *RequestError {
	return &RequestError{
		Operation:  op,
		StatusCode: resp.StatusCode,
		Message:    backend.ErrorMessage(resp.Body, fallback),
	}
}
