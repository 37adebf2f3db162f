package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RegisterJob      *RegisterJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Registration runs are long; keep few in flight and extend their leases.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 15 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       NewDispatcher(cfg.RegisterJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		logger.Debug().Msg("received pubsub message")

		if h.dispatcher.Handle(ctx, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Dispatcher routes decoded jobs to their handlers.
type Dispatcher struct {
	job    *RegisterJob
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher around a registration job.
func NewDispatcher(job *RegisterJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, logger: logger}
}

// Handle processes one message payload and reports whether it should be acked.
// Malformed and unknown messages are acked so they are not redelivered.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) bool {
	startTime := time.Now()

	msg, err := DecodeJob(data)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to parse message")
		return true
	}

	logger := d.logger.With().
		Str("job_id", msg.JobID).
		Str("job_type", msg.JobType).
		Logger()

	err = d.Run(ctx, msg)
	switch {
	case errors.Is(err, ErrUnknownJobType):
		logger.Warn().Msg("unknown job type")
		return true
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		return false
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}

// Run executes a decoded job.
func (d *Dispatcher) Run(ctx context.Context, msg JobMessage) error {
	switch msg.JobType {
	case JobTypeRegisterArea:
		return d.handleRegisterArea(ctx, msg)
	case JobTypeHealthCheck:
		return d.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, msg.JobType)
	}
}

func (d *Dispatcher) handleRegisterArea(ctx context.Context, msg JobMessage) error {
	d.logger.Info().
		Int("areas", len(msg.Areas)).
		Str("requested_by", msg.RequestedBy).
		Msg("starting area registration")

	result := d.job.Run(ctx, msg.Areas)

	// A run counts as failed when most areas failed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many area failures: %d/%d", result.Failed, result.TotalAreas)
	}

	return nil
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	d.logger.Debug().Msg("running health check")

	if err := d.job.Probe(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	d.logger.Debug().Msg("health check passed")
	return nil
}
