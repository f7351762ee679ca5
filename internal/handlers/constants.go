package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrTooManyRequests     = "Too many requests, please try again later"
	ErrInternalServerError = "Internal server error"

	// maxBodyBytes bounds every JSON request body
	maxBodyBytes = 1 << 20

	// backups may be much larger than a request body
	maxImportBytes = 64 << 20

	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)
