package responses

// SuccessEnvelope wraps every 2xx payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the body of every error response. The browser reads
// error.message to show upstream failures verbatim.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
