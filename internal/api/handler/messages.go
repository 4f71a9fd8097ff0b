package handler

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mealshare/mealshare/internal/engine"
)

// message returns the notice shown to the user for a business error.
func message(err error) string {
	switch {
	case errors.Is(err, engine.ErrUsernameTaken):
		return "Sorry, this username is already in use. Please try another"
	case errors.Is(err, engine.ErrEmailTaken):
		return "Sorry, this email is already in use. Please try another"
	case errors.Is(err, engine.ErrPasswordMismatch):
		return "Passwords do not match! Please try again😔"
	case errors.Is(err, engine.ErrInvalidCredentials):
		return "Incorrect Username and/or Password"
	case errors.Is(err, engine.ErrAlreadySaved):
		return "Recipe already saved!"
	case errors.Is(err, engine.ErrAlreadySubscribed):
		return "You are already subscribed!"
	case errors.Is(err, engine.ErrForbidden):
		return "Sorry, you are not allowed to do that!"
	case errors.Is(err, engine.ErrInvalidInput):
		detail := strings.TrimPrefix(err.Error(), engine.ErrInvalidInput.Error())
		detail = strings.TrimLeft(detail, ": ")
		if detail == "" {
			return "Please check your input and try again"
		}
		r, size := utf8.DecodeRuneInString(detail)
		return string(unicode.ToUpper(r)) + detail[size:]
	default:
		return "Something went wrong. Please try again"
	}
}
