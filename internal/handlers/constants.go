package handlers

const (
	SessionCookieName = "session_id"

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidInput        = "Invalid input"
	ErrUnauthorized        = "Unauthorized"
	ErrKidSessionRequired  = "Kid session required"
	ErrInternalServerError = "Internal server error"

	maxJSONBodySize = 1 << 20
)
