// Package response defines the envelope every stock and alert endpoint
// replies with.
package response

// Response is the uniform API envelope. Handlers put movements, levels
// or alerts in Data on success and a message in Error otherwise.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps a payload in the success envelope
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error wraps an error message in the error envelope
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
