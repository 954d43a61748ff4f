package phonebook

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrNotAuthorized is the single response for every guard rejection: missing
// header, bad signature, expired token, unknown user, or a superseded
// session. The cause is never surfaced to the caller.
var ErrNotAuthorized = goerrors.New("Not authorized", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("NOT_AUTHORIZED")

// ErrWrongCredentials covers both an unknown email and a failed password
// check so login responses do not reveal which one happened.
var ErrWrongCredentials = goerrors.New("Email or password is wrong", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("WRONG_CREDENTIALS")

// ErrEmailInUse is returned when a signup collides with an existing account.
var ErrEmailInUse = goerrors.New("Email in use", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode("EMAIL_IN_USE")

// ErrNotFound maps to a 404 with the wire message clients expect.
var ErrNotFound = goerrors.New("Not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("NOT_FOUND")

// ErrUserNotFound is the not-found variant for the verification resend path.
var ErrUserNotFound = goerrors.New("User not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("USER_NOT_FOUND")

// ErrAlreadyVerified rejects a repeat verification attempt.
var ErrAlreadyVerified = goerrors.New("Verification has already been passed", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode("ALREADY_VERIFIED")

// ErrTokenExpired is returned when a bearer token is past its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed is returned for tokens that fail signature or shape checks.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrNoEmptyString rejects empty secrets before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode("EMPTY_VALUE")

// ErrMismatchedHashAndPassword is the internal signal for a failed password
// comparison; callers translate it to ErrWrongCredentials at the boundary.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")
