package engine

import (
	"errors"

	"github.com/mealshare/mealshare/internal/database"
)

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already exists")
	// ErrPasswordMismatch is returned when the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidInput is returned for missing or malformed form values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("incorrect username and/or password")
	// ErrForbidden is returned when the actor may not act on the target.
	ErrForbidden = errors.New("you are not allowed to do that")
	// ErrNotFound is returned for unknown recipes, users and meal categories.
	ErrNotFound = database.ErrNotFound
	// ErrAlreadySaved is returned when a recipe is already in the saved list.
	ErrAlreadySaved = errors.New("recipe already saved")
	// ErrAlreadySubscribed is returned when an email is already subscribed.
	ErrAlreadySubscribed = errors.New("email already subscribed")
)

// Kind groups errors by how they are presented to the user.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	default:
		return "server"
	}
}

// KindOf returns the kind of err. Unknown errors are server errors.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadySaved), errors.Is(err, ErrAlreadySubscribed):
		return KindConflict
	default:
		return KindServer
	}
}
