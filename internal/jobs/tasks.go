package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/availability"
	"gigbook/internal/bookings"
)

// StatusJob is the unit of work on the status topic: move one booking to
// TargetStatus once RunAt has passed. Jobs for the same booking share a
// partition key, so they are consumed in order.
type StatusJob struct {
	BookingID    uuid.UUID                  `json:"booking_id"`
	Refs         []availability.ResourceRef `json:"refs"`
	TargetStatus bookings.Status            `json:"target_status"`
	RunAt        time.Time                  `json:"run_at"`
	Attempt      int                        `json:"attempt"`
	LastError    string                     `json:"last_error,omitempty"`
	EnqueuedAt   time.Time                  `json:"enqueued_at"`
}

func (j *StatusJob) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

func StatusJobFromJSON(data []byte) (*StatusJob, error) {
	var job StatusJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// PartitionKey keeps every job for one booking on one partition
func (j *StatusJob) PartitionKey() string {
	return j.BookingID.String()
}

// IsDue reports whether the job may run now
func (j *StatusJob) IsDue(now time.Time) bool {
	return !j.RunAt.After(now)
}
