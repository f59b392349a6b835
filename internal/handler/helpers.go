package handler

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peer-review-dashboard/internal/middleware"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
	"github.com/noah-isme/peer-review-dashboard/internal/service"
	"github.com/noah-isme/peer-review-dashboard/internal/utils"
)

// HeaderSnapshotStale marks responses served from the local snapshot after a failed refresh.
const HeaderSnapshotStale = "X-Snapshot-Stale"

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// syncErrorStatus maps façade errors onto HTTP statuses and user facing messages.
func syncErrorStatus(err error) (int, string) {
	var validationErr *service.ValidationError
	var requestErr *service.RequestError

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusUnprocessableEntity, validationErr.Message
	case errors.Is(err, service.ErrBackendUnavailable):
		return fiber.StatusServiceUnavailable, service.ErrBackendUnavailable.Error()
	case errors.As(err, &requestErr):
		if requestErr.StatusCode >= fiber.StatusInternalServerError || requestErr.StatusCode < fiber.StatusBadRequest {
			return fiber.StatusBadGateway, requestErr.Message
		}
		return requestErr.StatusCode, requestErr.Message
	case errors.Is(err, service.ErrMalformedPayload), errors.Is(err, service.ErrPayloadDecode):
		return fiber.StatusBadGateway, "backend returned an unexpected payload"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

func sendSyncError(c *fiber.Ctx, logger zerolog.Logger, err error, action string) error {
	status, message := syncErrorStatus(err)
	log := requestLogger(logger, c)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("action", action).Msg("sync operation failed")
	} else {
		log.Warn().Err(err).Str("action", action).Int("status", status).Msg("sync operation rejected")
	}
	return utils.SendError(c, status, message)
}

// staleSnapshot serves the last persisted state when a refresh could not complete.
func staleSnapshot(c *fiber.Ctx, svc service.PlatformSyncService, logger zerolog.Logger, err error) (models.PlatformState, string) {
	_, message := syncErrorStatus(err)
	requestLogger(logger, c).Warn().Err(err).Msg("refresh failed, serving snapshot")
	c.Set(HeaderSnapshotStale, "true")
	return svc.Snapshot(c.UserContext()), message
}

func actorOr(c *fiber.Ctx, value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return middleware.ActorName(c)
}

func pathParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}

func chain(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	return append(handlers, handler)
}
