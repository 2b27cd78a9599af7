package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"gigbook/internal/availability"
	"gigbook/internal/bookings"
	"gigbook/internal/shared/config"
	"gigbook/internal/shared/faults"
	"gigbook/pkg/logger"
)

// Producer publishes status jobs to the queue
type Producer interface {
	PublishStatusJob(ctx context.Context, job *StatusJob) error
	PublishToDeadLetter(ctx context.Context, job *StatusJob, cause error) error
	Close() error
}

// KafkaStatusProducer publishes status jobs through a synchronous,
// idempotent Kafka producer.
type KafkaStatusProducer struct {
	producer sarama.SyncProducer
	cfg      config.KafkaConfig
	log      *logger.Logger
}

func NewKafkaStatusProducer(cfg config.KafkaConfig, log *logger.Logger) (*KafkaStatusProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash partitioner keeps per-booking ordering.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaStatusProducer{
		producer: producer,
		cfg:      cfg,
		log:      log,
	}, nil
}

func (p *KafkaStatusProducer) PublishStatusJob(ctx context.Context, job *StatusJob) error {
	return p.publish(ctx, p.cfg.StatusJobTopic, job)
}

func (p *KafkaStatusProducer) PublishToDeadLetter(ctx context.Context, job *StatusJob, cause error) error {
	job.LastError = cause.Error()
	p.log.Error("status job moved to dead letter",
		"booking_id", job.BookingID.String(),
		"target_status", job.TargetStatus.String(),
		"attempts", job.Attempt,
		"error", cause.Error(),
	)
	return p.publish(ctx, p.cfg.DeadLetterTopic, job)
}

func (p *KafkaStatusProducer) publish(ctx context.Context, topic string, job *StatusJob) error {
	payload, err := job.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal status job: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(job.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Now(),
		Headers: []sarama.RecordHeader{
			{Key: []byte("run_at"), Value: []byte(job.RunAt.Format(time.RFC3339))},
			{Key: []byte("target_status"), Value: []byte(job.TargetStatus)},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("%w: topic %s: %v", faults.ErrQueueDelivery, topic, err)
	}

	p.log.Debug("status job published",
		"topic", topic,
		"partition", partition,
		"offset", offset,
		"booking_id", job.BookingID.String(),
		"target_status", job.TargetStatus.String(),
	)
	return nil
}

func (p *KafkaStatusProducer) Close() error {
	return p.producer.Close()
}

// ScheduleStatusChange satisfies the booking engine's scheduler contract.
func (p *KafkaStatusProducer) ScheduleStatusChange(ctx context.Context, bookingID uuid.UUID, refs []availability.ResourceRef, target bookings.Status, runAt time.Time) error {
	return p.PublishStatusJob(ctx, &StatusJob{
		BookingID:    bookingID,
		Refs:         refs,
		TargetStatus: target,
		RunAt:        runAt,
		EnqueuedAt:   time.Now(),
	})
}
