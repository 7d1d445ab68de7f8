package users

import "github.com/goliatone/go-errors"

const (
	TextCodeTokenNotValid         = "TOKEN_NOT_VALID"
	TextCodeTokenAlreadyUsed      = "TOKEN_ALREADY_USED"
	TextCodeTokenCreationFailed   = "TOKEN_CREATION_FAILED"
	TextCodeTokenRevocationFailed = "TOKEN_REVOCATION_FAILED"
	TextCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	TextCodeNotAuthenticated      = "NOT_AUTHENTICATED"
	TextCodeUserNotFound          = "USER_NOT_FOUND"
	TextCodeDeleteNotAllowed      = "DELETE_NOT_ALLOWED"
	TextCodeOperationFailed       = "OPERATION_FAILED"
	TextCodeInvalidEmail          = "INVALID_EMAIL"
)

// ErrTokenNotValid is returned when no fresh token matches a presented hash.
var ErrTokenNotValid = errors.New("token is invalid or has expired", errors.CategoryValidation).
	WithTextCode(TextCodeTokenNotValid).
	WithCode(errors.CodeBadRequest)

// ErrTokenAlreadyUsed is returned when a token of the wrong kind is presented,
// e.g. a password reset token handed to Activate.
var ErrTokenAlreadyUsed = errors.New("token has already been used", errors.CategoryConflict).
	WithTextCode(TextCodeTokenAlreadyUsed).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials merges "no such user" and "wrong password" so a caller
// cannot probe which addresses hold an account.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthenticated is returned when a session proof is missing, invalid,
// expired, or resolves to an identity that no longer exists.
var ErrNotAuthenticated = errors.New("not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned for id lookups that miss.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrDeleteNotAllowed is returned when a caller attempts to delete their own
// account.
var ErrDeleteNotAllowed = errors.New("cannot delete own account", errors.CategoryValidation).
	WithTextCode(TextCodeDeleteNotAllowed).
	WithCode(errors.CodeBadRequest)

// wrapTokenCreationFailed wraps a store failure during token issuance.
func wrapTokenCreationFailed(cause error) error {
	return errors.Wrap(cause, errors.CategoryInternal, "failed to create token").
		WithTextCode(TextCodeTokenCreationFailed)
}

// wrapTokenRevocationFailed wraps a store failure during token revocation.
func wrapTokenRevocationFailed(cause error) error {
	return errors.Wrap(cause, errors.CategoryInternal, "failed to revoke token").
		WithTextCode(TextCodeTokenRevocationFailed)
}

// wrapOperationFailed wraps a store or mailer failure that interrupted a
// multi step lifecycle operation, preserving the cause for diagnostics.
func wrapOperationFailed(cause error, msg string) error {
	return errors.Wrap(cause, errors.CategoryInternal, msg).
		WithTextCode(TextCodeOperationFailed)
}

// HasTextCode reports whether err carries the given text code. Controllers
// use it to map failures onto response statuses without matching strings.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
