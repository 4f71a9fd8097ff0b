package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Profile is a user together with the recipes shown on their profile page.
type Profile struct {
	User    *database.User
	Recipes []database.Recipe
	// Editable is set when the viewer may change or delete the account.
	Editable bool
}

// Profile loads the profile of username as seen by viewer. An admin looking
// at their own profile sees every recipe.
func (e *Engine) Profile(ctx context.Context, viewer Actor, username string) (*Profile, error) {
	username = strings.ToLower(username)

	var (
		user    *database.User
		recipes []database.Recipe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = e.db.GetUserByUsername(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		if viewer.Admin && viewer.Username == username {
			recipes, err = e.db.GetRecipes(gctx)
		} else {
			recipes, err = e.db.GetRecipesByCreator(gctx, username)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Profile{
		User:     user,
		Recipes:  recipes,
		Editable: viewer.CanModify(username),
	}, nil
}

// UpdatePassword changes the password of target. Only the account itself may
// do so, and only with the current password.
func (e *Engine) UpdatePassword(ctx context.Context, actor Actor, target, current, newPassword, confirm string) error {
	target = strings.ToLower(target)
	if actor.Username == "" || actor.Username != target {
		return ErrForbidden
	}

	user, err := e.db.GetUserByUsername(ctx, target)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if newPassword == "" || newPassword != confirm {
		return ErrPasswordMismatch
	}

	hash, err := e.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := e.db.UpdateUserPassword(ctx, target, hash); err != nil {
		return err
	}
	log.Info("Password updated", "username", target)
	return nil
}

// UpdateProfilePicture sets the profile picture of target. An empty URL resets
// it to the default picture.
func (e *Engine) UpdateProfilePicture(ctx context.Context, actor Actor, target, imageURL string) error {
	target = strings.ToLower(target)
	if !actor.CanModify(target) {
		return ErrForbidden
	}

	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		imageURL = e.defaultProfileImage()
	} else if err := e.validate.Var(imageURL, "url"); err != nil {
		return fmt.Errorf("%w: profile picture must be a valid URL", ErrInvalidInput)
	}

	if err := e.db.UpdateUserProfileImage(ctx, target, imageURL); err != nil {
		return err
	}
	log.Info("Profile picture updated", "username", target, "by", actor.Username)
	return nil
}

// DeleteAccount removes target together with their saved list and every recipe
// they created. It reports whether the actor deleted their own account.
func (e *Engine) DeleteAccount(ctx context.Context, actor Actor, target string) (bool, error) {
	target = strings.ToLower(target)
	if !actor.CanModify(target) {
		return false, ErrForbidden
	}

	owned, err := e.db.GetRecipesByCreator(ctx, target)
	if err != nil {
		return false, err
	}

	deleted, err := e.db.DeleteUser(ctx, target)
	if err != nil {
		return false, err
	}

	for _, id := range lo.Map(owned, func(r database.Recipe, _ int) string { return r.ID }) {
		e.cache.Invalidate(ctx, id)
	}
	e.cache.InvalidateMeals(ctx)

	log.Info("Account deleted", "username", target, "by", actor.Username, "recipes", deleted)
	return actor.Username == target, nil
}
