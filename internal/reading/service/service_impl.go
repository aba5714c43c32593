package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/meterbill/internal/meter/domain"
	"github.com/smallbiznis/meterbill/internal/reading/domain"
	"github.com/smallbiznis/meterbill/internal/storage"
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
	MeterSvc     meterdomain.Service
	Store        storage.Store
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
	metersvc     meterdomain.Service
	store        storage.Store
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reading.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		metersvc:     p.MeterSvc,
		store:        p.Store,
	}
}

func (s *Service) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.IngestResult{}, domain.ErrInvalidCustomer
	}

	var explicitMeterID snowflake.ID
	if meterValue := strings.TrimSpace(req.MeterID); meterValue != "" {
		explicitMeterID, err = snowflake.ParseString(meterValue)
		if err != nil || explicitMeterID == 0 {
			return domain.IngestResult{}, domain.ErrInvalidMeter
		}
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if customer == nil {
		return domain.IngestResult{}, customerdomain.ErrNotFound
	}

	// Rows are validated before any mutation so a malformed batch never
	// opens a transaction.
	rows, err := parseDataset(req.Data)
	if err != nil {
		return domain.IngestResult{}, err
	}

	batchTag := newBatchTag(req.Filename)

	if _, err := s.store.Write(ctx, path.Join("uploads", batchTag), req.Data); err != nil {
		return domain.IngestResult{}, err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meterID, err := s.metersvc.Resolve(ctx, tx, customer, explicitMeterID)
		if err != nil {
			return err
		}

		readings := make([]*domain.Reading, 0, len(rows))
		for _, row := range rows {
			readings = append(readings, &domain.Reading{
				ID:        s.genID.Generate(),
				Timestamp: row.Timestamp,
				Usage:     row.Usage,
				Price:     row.Price,
				MeterID:   meterID,
				BatchTag:  batchTag,
				CreatedAt: now,
			})
		}
		return s.repo.InsertBatch(ctx, tx, readings)
	})
	if err != nil {
		return domain.IngestResult{}, err
	}

	s.log.Info("batch ingested",
		zap.String("customer_id", customerID.String()),
		zap.String("batch_tag", batchTag),
		zap.Int("rows", len(rows)),
	)

	return domain.IngestResult{BatchTag: batchTag, RowsInserted: len(rows)}, nil
}

// newBatchTag prefixes the original filename with an 8-character opaque token
// so every reading of the upload stays traceable to its source artifact.
func newBatchTag(filename string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "upload.csv"
	}
	return fmt.Sprintf("%s_%s", token, filename)
}
