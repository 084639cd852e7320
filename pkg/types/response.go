package types

// SuccessEnvelope is the generic success shape used by endpoints that return
// a single data payload, e.g. GET /payments/{orderId}.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope is the uniform error shape returned by every handler.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
