package api

import "time"

// GraphRequest is the POST /graph body. IDs holds one or more seed tokens
// separated by ';' (registration numbers, prefixed ids, or name fragments).
type GraphRequest struct {
	IDs    string `json:"ids"`
	Layers int    `json:"layers"`
}

// HealthResponse reports process liveness plus the loaded snapshot metadata.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Reference map[string]string `json:"reference,omitempty"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
