package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/mealshare/mealshare/internal/gravatar"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput holds the values of the registration form.
type RegisterInput struct {
	Username     string `validate:"required,max=64"`
	Email        string `validate:"required,email"`
	Password     string `validate:"required"`
	ProfileImage string `validate:"omitempty,url"`
}

// Register creates a new account. Username and email are lower-cased before
// the uniqueness checks, so registrations differing only in case collide.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (Actor, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ProfileImage = strings.TrimSpace(in.ProfileImage)

	if err := e.validate.Struct(in); err != nil {
		return Actor{}, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	exists, err := e.db.UsernameExists(ctx, in.Username)
	if err != nil {
		return Actor{}, err
	}
	if exists {
		return Actor{}, ErrUsernameTaken
	}
	exists, err = e.db.EmailExists(ctx, in.Email)
	if err != nil {
		return Actor{}, err
	}
	if exists {
		return Actor{}, ErrEmailTaken
	}

	hash, err := e.hashPassword(in.Password)
	if err != nil {
		return Actor{}, err
	}

	user := &database.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		ProfileImage: gravatar.ProfileImage(in.ProfileImage, in.Email, e.cfg.Gravatar, e.defaultProfileImage()),
	}
	// the unique indexes catch concurrent registrations the checks above missed
	if err := e.db.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateUsername):
			return Actor{}, ErrUsernameTaken
		case errors.Is(err, database.ErrDuplicateEmail):
			return Actor{}, ErrEmailTaken
		}
		return Actor{}, err
	}

	log.Info("User registered", "username", user.Username)
	actor := e.actorFor(user.Username)
	if actor.Admin {
		log.Warn("Registered account is a configured admin", "username", user.Username)
	}
	return actor, nil
}

// Login checks the credentials and returns the actor to store in the session.
func (e *Engine) Login(ctx context.Context, username, password string) (Actor, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return Actor{}, ErrInvalidCredentials
	}

	user, err := e.db.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Actor{}, ErrInvalidCredentials
		}
		return Actor{}, err
	}

	if !checkPassword(user.PasswordHash, password) {
		log.Debug("Password mismatch", "username", username)
		return Actor{}, ErrInvalidCredentials
	}
	if isWerkzeugHash(user.PasswordHash) {
		e.rehashPassword(ctx, user.Username, password)
	}

	return e.actorFor(user.Username), nil
}

func (e *Engine) actorFor(username string) Actor {
	return Actor{Username: username, Admin: e.cfg.IsAdmin(username)}
}

// rehashPassword replaces an imported password hash with a bcrypt hash. The
// login succeeds even if this fails.
func (e *Engine) rehashPassword(ctx context.Context, username, password string) {
	hash, err := e.hashPassword(password)
	if err == nil {
		err = e.db.UpdateUserPassword(ctx, username, hash)
	}
	if err != nil {
		log.Warn("Failed to upgrade password hash", "username", username, "error", err)
		return
	}
	log.Info("Upgraded password hash", "username", username)
}

func (e *Engine) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (e *Engine) defaultProfileImage() string {
	if e.cfg.Defaults == nil {
		return ""
	}
	return e.cfg.Defaults.ProfileImage
}
