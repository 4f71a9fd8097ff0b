package database

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "email") {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}
		log.Error("failed to create user", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (c *Client) UsernameExists(ctx context.Context, username string) (bool, error) {
	return c.userExists(ctx, "username = ?", username)
}

func (c *Client) EmailExists(ctx context.Context, email string) (bool, error) {
	return c.userExists(ctx, "email = ?", email)
}

func (c *Client) userExists(ctx context.Context, query string, arg string) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&User{}).Where(query, arg).Count(&count).Error; err != nil {
		log.Error("failed to check user existence", "error", err)
		return false, err
	}
	return count > 0, nil
}

func (c *Client) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	return c.updateUserColumn(ctx, username, "password_hash", passwordHash)
}

func (c *Client) UpdateUserProfileImage(ctx context.Context, username, imageURL string) error {
	return c.updateUserColumn(ctx, username, "profile_image", imageURL)
}

func (c *Client) updateUserColumn(ctx context.Context, username, column string, value string) error {
	result := c.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Update(column, value)
	if result.Error != nil {
		log.Error("failed to update user", "column", column, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, username string) (int64, error) {
	var recipesDeleted int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			return translateNotFound(err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&SavedRecipe{}).Error; err != nil {
			return err
		}
		result := tx.Where("created_by = ?", username).Delete(&Recipe{})
		if result.Error != nil {
			return result.Error
		}
		recipesDeleted = result.RowsAffected
		return tx.Delete(&user).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error("failed to delete user", "username", username, "error", err)
		}
		return 0, err
	}
	return recipesDeleted, nil
}
