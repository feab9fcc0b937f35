package dto

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// SyncPageResponse is the body of a successful bulk-sync trigger. The
// caller advances page until it reaches TotalPages.
type SyncPageResponse struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// WebhookErrorResponse is the raw error body of the webhook endpoint.
// The sender's contract predates the standard envelope and is kept
// byte-compatible.
type WebhookErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
