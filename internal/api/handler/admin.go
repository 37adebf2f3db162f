package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/api/response"
	"github.com/digitaladdress/locator/internal/worker"
)

// JobPublisher queues background jobs for the worker.
type JobPublisher interface {
	PublishJob(ctx context.Context, msg worker.JobMessage) (string, error)
}

// AdminHandler handles operator endpoints.
type AdminHandler struct {
	publisher JobPublisher
	logger    zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler. A nil publisher disables job endpoints.
func NewAdminHandler(publisher JobPublisher, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{publisher: publisher, logger: logger}
}

// RegisterArea handles POST /v1/admin/areas:register - queues code assignment for
// every building in a circle.
func (h *AdminHandler) RegisterArea(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		response.ServiceUnavailable(w, r, "job queue is not configured")
		return
	}

	var input models.RegisterAreaRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	now := time.Now().UTC()
	msg := worker.JobMessage{
		JobID:   "job_" + uuid.New().String()[:12],
		JobType: worker.JobTypeRegisterArea,
		Areas: []worker.Area{{
			Name:   input.Name,
			Center: input.Center.Coordinate(),
			Radius: input.Radius,
		}},
		RequestedBy: GetOperator(r.Context()),
		QueuedAt:    now,
	}

	messageID, err := h.publisher.PublishJob(r.Context(), msg)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", msg.JobID).Msg("failed to publish job")
		response.ServiceUnavailable(w, r, "could not queue the job")
		return
	}

	h.logger.Info().
		Str("job_id", msg.JobID).
		Str("operator", msg.RequestedBy).
		Float64("lat", input.Center.Lat).
		Float64("lon", input.Center.Lon).
		Float64("radius", input.Radius).
		Msg("area registration queued")

	response.Accepted(w, r, "", models.JobAccepted{
		JobID:     msg.JobID,
		JobType:   msg.JobType,
		MessageID: messageID,
		QueuedAt:  models.Timestamp(now),
	})
}
