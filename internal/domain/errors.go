package domain

// AuthError is the single error shape surfaced by auth operations. The whole
// error taxonomy of the probing loop (endpoint not found, backend rejection,
// transport failure) collapses into one human-readable message at the
// boundary; callers render Message and nothing else.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates an AuthError with the given message.
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}
