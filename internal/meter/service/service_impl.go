package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	"github.com/smallbiznis/meterbill/internal/meter/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("meter.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
	}
}

func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, customer *customerdomain.Customer, explicitID snowflake.ID) (snowflake.ID, error) {
	if explicitID != 0 {
		return s.resolveExplicit(ctx, tx, customer, explicitID)
	}
	return s.resolveDefault(ctx, tx, customer)
}

func (s *Service) resolveDefault(ctx context.Context, tx *gorm.DB, customer *customerdomain.Customer) (snowflake.ID, error) {
	if customer.DefaultMeterID != nil && *customer.DefaultMeterID != 0 {
		return *customer.DefaultMeterID, nil
	}

	now := time.Now().UTC()
	meter := domain.Meter{
		ID:         s.genID.Generate(),
		CustomerID: customer.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, tx, &meter); err != nil {
		return 0, err
	}

	won, err := s.customerRepo.SetDefaultMeterIfUnset(ctx, tx, customer.ID, meter.ID)
	if err != nil {
		return 0, err
	}
	if !won {
		// A concurrent upload assigned the default first. The meter created
		// above persists but never becomes the default.
		current, err := s.customerRepo.FindByID(ctx, tx, customer.ID)
		if err != nil {
			return 0, err
		}
		if current != nil && current.DefaultMeterID != nil && *current.DefaultMeterID != 0 {
			return *current.DefaultMeterID, nil
		}
	}

	meterID := meter.ID
	customer.DefaultMeterID = &meterID
	return meter.ID, nil
}

func (s *Service) resolveExplicit(ctx context.Context, tx *gorm.DB, customer *customerdomain.Customer, explicitID snowflake.ID) (snowflake.ID, error) {
	existing, err := s.repo.FindByID(ctx, tx, explicitID)
	if err != nil {
		return 0, err
	}

	switch {
	case existing == nil:
		now := time.Now().UTC()
		meter := domain.Meter{
			ID:         explicitID,
			CustomerID: customer.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.Insert(ctx, tx, &meter); err != nil {
			return 0, err
		}
	case existing.CustomerID != customer.ID:
		return 0, domain.ErrMeterConflict
	}

	// Explicit uploads repoint the default even when the meter already
	// existed unchanged.
	if err := s.customerRepo.SetDefaultMeter(ctx, tx, customer.ID, explicitID); err != nil {
		return 0, err
	}

	meterID := explicitID
	customer.DefaultMeterID = &meterID
	return explicitID, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Meter, error) {
	items, err := s.repo.ListByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}

	meters := make([]domain.Meter, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		meters = append(meters, *item)
	}
	return meters, nil
}
