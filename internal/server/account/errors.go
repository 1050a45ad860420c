package account

// Error is a domain error with a stable machine-readable code and a default
// user-facing message. Domain errors are expected outcomes of normal
// operation; infrastructure failures are wrapped separately and surface as
// ErrInternal.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches by code so wrapped domain errors still compare equal to the
// package sentinels via errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	// ErrUserNotFound: no user exists for the given email address.
	ErrUserNotFound = &Error{Code: "user_not_found", Message: "user not found"}

	// ErrEmailAlreadyUsed: registration attempted with an email that already
	// has an account.
	ErrEmailAlreadyUsed = &Error{Code: "email_already_used", Message: "email already used"}

	// ErrEmailNotVerified: a password reset was requested before the account
	// proved control of its email address.
	ErrEmailNotVerified = &Error{Code: "email_not_verified", Message: "email not verified"}

	// ErrInvalidToken: the presented token is missing, expired, of the wrong
	// type, or was already consumed.
	ErrInvalidToken = &Error{Code: "invalid_token", Message: "invalid token"}

	// ErrInvalidPassword: password mismatch during authentication.
	ErrInvalidPassword = &Error{Code: "invalid_password", Message: "invalid password"}

	// ErrBadCredentialsInput: a token request must supply exactly one of
	// password or refresh token.
	ErrBadCredentialsInput = &Error{Code: "bad_credentials_input", Message: "must provide password or refresh token, not both"}

	// ErrInternal: storage, hashing, or signing failure. Never returned for
	// expected domain conditions.
	ErrInternal = &Error{Code: "internal_error", Message: "internal error"}
)
