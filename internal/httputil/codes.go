package httputil

// Machine-readable error codes returned alongside error messages. The frontend
// switches on these rather than parsing messages.
const (
	// Credential verification
	CodeUserNotFound  = "USER_NOT_FOUND"
	CodeUserNotActive = "USER_NOT_ACTIVE"
	CodeWrongPassword = "WRONG_PASSWORD"

	// Email confirmation
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeTokenInvalid          = "TOKEN_INVALID"
	CodeEmailAlreadyConfirmed = "EMAIL_ALREADY_CONFIRMED"

	// Ambient
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeNotFound           = "NOT_FOUND"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"
	CodeTimeout            = "TIMEOUT"
	CodeInternalError      = "INTERNAL_ERROR"
)
