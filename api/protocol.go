package api

// errorResponse is the envelope every failing endpoint returns. Errors is the
// per-field validation map on 400 responses and null otherwise.
type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

const (
	msgInvalidData   = "Invalid data"
	msgInvalidStatus = "Invalid status"
	msgNotFound      = "Not found"
	msgTaskNotFound  = "Task not found"
)
