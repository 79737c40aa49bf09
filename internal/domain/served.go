package domain

import "time"

// ServedDocument summarizes one request answered from an as-is document.
type ServedDocument struct {
	ID          string        `json:"id"`
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Status      int           `json:"status"`
	Bytes       int           `json:"bytes"`
	Compression string        `json:"compression,omitempty"`
	Charset     string        `json:"charset,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"durationNs"`
}
