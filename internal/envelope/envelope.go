package envelope

import "net/http"

const MessageSuccess = "Response generated successfully"

// Envelope is the uniform response body shared by every endpoint.
type Envelope struct {
	Status     bool   `json:"status"`
	Payload    any    `json:"payload"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func Success(payload any) Envelope {
	return Envelope{
		Status:     true,
		Payload:    payload,
		Message:    MessageSuccess,
		StatusCode: http.StatusOK,
	}
}

func Failure(statusCode int, message string) Envelope {
	return Envelope{
		Status:     false,
		Payload:    struct{}{},
		Message:    message,
		StatusCode: statusCode,
	}
}
