package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"gigbook/internal/bookings"
	"gigbook/internal/shared/config"
	"gigbook/internal/shared/faults"
	"gigbook/pkg/logger"
)

// TransitionApplier is the slice of the booking engine the worker needs.
type TransitionApplier interface {
	ApplyTransition(ctx context.Context, bookingID uuid.UUID, target bookings.Status) (*bookings.Booking, error)
}

// Handler applies one status job. At-least-once delivery is tolerated
// because transitions are idempotent; a job that fails MaxRetries times
// ends up on the dead letter topic, never dropped.
type Handler struct {
	engine      TransitionApplier
	producer    Producer
	maxRetries  int
	pollBackoff time.Duration
	log         *logger.Logger
}

func NewHandler(engine TransitionApplier, producer Producer, maxRetries int, pollBackoff time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		engine:      engine,
		producer:    producer,
		maxRetries:  maxRetries,
		pollBackoff: pollBackoff,
		log:         log,
	}
}

// HandleJob processes one decoded job. The returned error means the message
// could not be settled at all and should not be committed.
func (h *Handler) HandleJob(ctx context.Context, job *StatusJob, now time.Time) error {
	// Not due yet: requeue and commit. The republished copy circles back
	// after the poll backoff, emulating a delayed job on a plain topic.
	if !job.IsDue(now) {
		wait := time.Until(job.RunAt)
		if wait > h.pollBackoff {
			wait = h.pollBackoff
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := h.producer.PublishStatusJob(ctx, job); err != nil {
			return fmt.Errorf("failed to requeue deferred job: %w", err)
		}
		return nil
	}

	_, err := h.engine.ApplyTransition(ctx, job.BookingID, job.TargetStatus)
	if err == nil {
		return nil
	}

	// The booking moved on before the job fired (paid in time, cancelled by
	// the user). Nothing left to do.
	if errors.Is(err, faults.ErrInvalidTransition) || errors.Is(err, faults.ErrNotFound) {
		h.log.Debug("status job no longer applicable",
			"booking_id", job.BookingID.String(),
			"target_status", job.TargetStatus.String(),
			"reason", err.Error(),
		)
		return nil
	}

	job.Attempt++
	job.LastError = err.Error()
	if job.Attempt > h.maxRetries {
		if dlqErr := h.producer.PublishToDeadLetter(ctx, job, err); dlqErr != nil {
			return fmt.Errorf("failed to dead-letter job: %w", dlqErr)
		}
		return nil
	}

	if pubErr := h.producer.PublishStatusJob(ctx, job); pubErr != nil {
		return fmt.Errorf("failed to requeue job for retry: %w", pubErr)
	}
	return nil
}

// StatusConsumer runs a bounded pool of workers over the status topic.
type StatusConsumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       *Handler
	topics        []string
	log           *logger.Logger
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

func NewStatusConsumer(cfg config.KafkaConfig, handler *Handler, log *logger.Logger) (*StatusConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Retry.Backoff = cfg.RetryBackoff
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &StatusConsumer{
		consumerGroup: consumerGroup,
		handler:       handler,
		topics:        []string{cfg.StatusJobTopic},
		log:           log,
	}, nil
}

// Start launches numWorkers consumer loops. One worker's failure never
// stops the others.
func (c *StatusConsumer) Start(ctx context.Context, numWorkers int) {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.drainErrors()

	for i := 0; i < numWorkers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}

	c.log.Info("status workers started", "workers", numWorkers, "topics", c.topics)
}

func (c *StatusConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &groupHandler{handler: c.handler, workerID: workerID, log: c.log}
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := c.consumerGroup.Consume(ctx, c.topics, handler); err != nil {
				c.log.Error("consume error", "worker", workerID, "error", err.Error())
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *StatusConsumer) drainErrors() {
	for err := range c.consumerGroup.Errors() {
		c.log.Error("consumer group error", "error", err.Error())
	}
}

func (c *StatusConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if err := c.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type groupHandler struct {
	handler  *Handler
	workerID int
	log      *logger.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			job, err := StatusJobFromJSON(message.Value)
			if err != nil {
				// Malformed payloads are committed; redelivery cannot fix them.
				h.log.Error("dropping malformed status job",
					"worker", h.workerID, "offset", message.Offset, "error", err.Error())
				session.MarkMessage(message, "")
				continue
			}

			if err := h.handler.HandleJob(session.Context(), job, time.Now()); err != nil {
				h.log.Error("status job not settled",
					"worker", h.workerID, "booking_id", job.BookingID.String(), "error", err.Error())
				continue
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}
