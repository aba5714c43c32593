package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meterbill/internal/reading/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, readings []*domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(readings).Error
}

func (r *repo) ListForPeriod(ctx context.Context, db *gorm.DB, customerID snowflake.ID, from, to time.Time) ([]domain.MeterReadingRow, error) {
	var rows []domain.MeterReadingRow
	err := db.WithContext(ctx).Raw(
		`SELECT r.meter_id, COALESCE(m.serial_number, '') AS serial_number, r.usage, r.price
		 FROM readings r
		 JOIN meters m ON m.id = r.meter_id
		 WHERE m.customer_id = ?
		   AND r.timestamp >= ?
		   AND r.timestamp < ?
		 ORDER BY r.meter_id ASC, r.timestamp ASC, r.id ASC`,
		customerID,
		from,
		to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
