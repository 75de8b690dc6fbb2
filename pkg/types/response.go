package types

// SuccessEnvelope wraps every successful response body. The dashboard
// unwraps `data` unconditionally, so handlers never write bare payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a failure: a stable machine code plus a
// message safe to show an operator. Details carry field-level validation
// output only.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewError builds the error envelope for a code/message pair.
func NewError(code, message string) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message}}
}
