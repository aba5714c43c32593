package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meterbill/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	err := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Order("created_at desc, id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) SetDefaultMeter(ctx context.Context, db *gorm.DB, customerID, meterID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", customerID).
		Update("default_meter_id", meterID).Error
}

func (r *repo) SetDefaultMeterIfUnset(ctx context.Context, db *gorm.DB, customerID, meterID snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ? AND default_meter_id IS NULL", customerID).
		Update("default_meter_id", meterID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
