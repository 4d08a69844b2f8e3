package dto

import "time"

// ErrorResponse is the standard JSON body for every non-2xx API response.
//
// Fields:
//   - Message: short, user-facing description.
//   - ErrorDetails: underlying error text, omitted when there is none.
//   - Timestamp: when the error was produced (UTC).
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid status"`
	ErrorDetails string    `json:"error_details,omitempty" example:"status must be open or closed"`
	Timestamp    time.Time `json:"timestamp" example:"2024-01-10T09:00:00Z"`
}

// Error implements the error interface so the response can travel through c.Error.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse, copying err's text into ErrorDetails when err is non-nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
