package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Job types carried on the jobs topic.
const (
	JobTypeRegisterArea = "register_area"
	JobTypeHealthCheck  = "health_check"
)

// ErrUnknownJobType is returned for messages the worker cannot handle.
var ErrUnknownJobType = errors.New("unknown job type")

// JobMessage is the payload of a jobs topic message.
type JobMessage struct {
	JobID       string    `json:"job_id"`
	JobType     string    `json:"job_type"`
	Areas       []Area    `json:"areas,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	QueuedAt    time.Time `json:"queued_at"`
}

// DecodeJob parses a message payload.
func DecodeJob(data []byte) (JobMessage, error) {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return JobMessage{}, fmt.Errorf("decoding job message: %w", err)
	}
	if msg.JobType == "" {
		return JobMessage{}, fmt.Errorf("decoding job message: %w: missing job_type", ErrUnknownJobType)
	}
	return msg, nil
}
