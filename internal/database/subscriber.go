package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/clause"
)

func (c *Client) CreateSubscriber(ctx context.Context, email string) (bool, error) {
	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&Subscriber{Email: email})
	if result.Error != nil {
		log.Error("failed to create subscriber", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (c *Client) GetSubscribers(ctx context.Context) ([]Subscriber, error) {
	var subscribers []Subscriber
	if err := c.db.WithContext(ctx).Order("id").Find(&subscribers).Error; err != nil {
		log.Error("failed to get subscribers", "error", err)
		return nil, err
	}
	return subscribers, nil
}
