package models

// MaxRegisterRadius bounds the area of a single registration job in meters.
const MaxRegisterRadius = 2000

// RegisterAreaRequest is the body of POST /v1/admin/areas:register.
type RegisterAreaRequest struct {
	Name   string  `json:"name,omitempty"`
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// Validate validates the request.
func (r *RegisterAreaRequest) Validate() []FieldError {
	errs := ValidatePoint("center.", r.Center)
	if r.Radius <= 0 || r.Radius > MaxRegisterRadius {
		errs = append(errs, FieldError{Field: "radius", Message: "must be between 0 and 2000 meters", Code: "OUT_OF_RANGE"})
	}
	return errs
}

// JobAccepted is returned when a background job was queued.
type JobAccepted struct {
	JobID     string    `json:"jobId"`
	JobType   string    `json:"jobType"`
	MessageID string    `json:"messageId,omitempty"`
	QueuedAt  Timestamp `json:"queuedAt"`
}
