package httpserver

const (
	ErrInvalidJSON     = "invalid json"
	ErrDependency      = "dependency error"
	ErrNotFound        = "not found"
	ErrAlreadyDecided  = "top-up request already decided"
	ErrRequestMismatch = "decision does not match top-up request"
	ErrInvalidQuery    = "invalid query"
	ErrGateway         = "whatsapp gateway error"
	ErrNotConfigured   = "whatsapp device id is not configured"
)
