package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// New creates a new sqlite database connection and performs migrations.
func New(dbpath string) (*Client, error) {
	if dir := filepath.Dir(dbpath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbpath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&Recipe{},
		&SavedRecipe{},
		&Subscriber{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetStats returns record counts for all tables.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	stats := Stats{RecipesByMeal: make(map[MealType]int64, len(MealTypes))}
	tx := c.db.WithContext(ctx)

	counts := []struct {
		model any
		dest  *int64
	}{
		{&User{}, &stats.Users},
		{&Recipe{}, &stats.Recipes},
		{&SavedRecipe{}, &stats.SavedRecipes},
		{&Subscriber{}, &stats.Subscribers},
	}
	for _, cnt := range counts {
		if err := tx.Model(cnt.model).Count(cnt.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count records: %w", err)
		}
	}

	for _, meal := range MealTypes {
		var n int64
		if err := tx.Model(&Recipe{}).Where("meal = ?", meal).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s recipes: %w", meal, err)
		}
		stats.RecipesByMeal[meal] = n
	}

	return &stats, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
