package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	"github.com/smallbiznis/meterbill/internal/invoice/domain"
	"github.com/smallbiznis/meterbill/internal/invoice/render"
	readingdomain "github.com/smallbiznis/meterbill/internal/reading/domain"
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
	ReadingRepo  readingdomain.Repository
	Renderer     render.Renderer
	Store        storage.Store
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
	readingRepo  readingdomain.Repository
	renderer     render.Renderer
	store        storage.Store
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoice.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		readingRepo:  p.ReadingRepo,
		renderer:     p.Renderer,
		store:        p.Store,
	}
}

func (s *Service) Compute(ctx context.Context, req domain.ComputeRequest) (domain.Summary, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.Summary{}, domain.ErrInvalidCustomerID
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Summary{}, err
	}
	if customer == nil {
		return domain.Summary{}, customerdomain.ErrNotFound
	}

	start, end, err := normalizePeriod(req.Start, req.End)
	if err != nil {
		return domain.Summary{}, err
	}

	// The period is closed-closed; matching against the start of the day
	// after the end boundary keeps the entire end day included.
	rows, err := s.readingRepo.ListForPeriod(ctx, s.db, customerID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return domain.Summary{}, err
	}

	summary := domain.Summary{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerAddress: customer.Address,
		CustomerEmail:   customer.Email,
		PeriodStart:     start,
		PeriodEnd:       end,
		Meters:          aggregateRollups(rows),
		TotalUsage:      decimal.Zero,
		TotalCost:       decimal.Zero,
	}
	for _, rollup := range summary.Meters {
		summary.TotalUsage = summary.TotalUsage.Add(rollup.Usage)
		summary.TotalCost = summary.TotalCost.Add(rollup.Cost)
	}

	return summary, nil
}

func (s *Service) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (domain.CreateInvoiceResult, error) {
	summary, err := s.Compute(ctx, domain.ComputeRequest{
		CustomerID: req.CustomerID,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		return domain.CreateInvoiceResult{}, err
	}

	// The invoice row is persisted before rendering so a failed render
	// still leaves an auditable record; its document path stays empty and
	// the caller may retry.
	invoice := domain.Invoice{
		ID:          s.genID.Generate(),
		CustomerID:  summary.CustomerID,
		PeriodStart: summary.PeriodStart,
		PeriodEnd:   summary.PeriodEnd,
		TotalUsage:  summary.TotalUsage,
		TotalCost:   summary.TotalCost,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &invoice); err != nil {
		return domain.CreateInvoiceResult{}, err
	}

	document, err := s.renderer.Render(ctx, buildDocument(summary, invoice))
	if err != nil {
		s.log.Error("invoice render failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
		return domain.CreateInvoiceResult{}, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}

	key := fmt.Sprintf("invoices/%s/%d/%s.pdf",
		invoice.CustomerID.String(),
		invoice.PeriodEnd.Year(),
		invoice.ID.String(),
	)
	documentPath, err := s.store.Write(ctx, key, document)
	if err != nil {
		s.log.Error("invoice document write failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return domain.CreateInvoiceResult{}, fmt.Errorf("%w: %v", domain.ErrStorageWriteFailure, err)
	}

	if err := s.repo.UpdateDocumentPath(ctx, s.db, invoice.ID, documentPath); err != nil {
		return domain.CreateInvoiceResult{}, err
	}
	invoice.DocumentPath = documentPath

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", invoice.CustomerID.String()),
		zap.String("total_cost", invoice.TotalCost.String()),
	)

	return domain.CreateInvoiceResult{
		Invoice:  invoice,
		Summary:  summary,
		Document: document,
	}, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]domain.Invoice, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(customerID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidCustomerID
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}

	items, err := s.repo.ListByCustomer(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

// normalizePeriod truncates both bounds to dates in UTC. A zero end defaults
// to the last calendar day of the month containing start.
func normalizePeriod(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() {
		return time.Time{}, time.Time{}, domain.ErrInvalidPeriod
	}
	start = truncateToDay(start)

	if end.IsZero() {
		end = time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	} else {
		end = truncateToDay(end)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.ErrInvalidPeriod
	}
	return start, end, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// aggregateRollups folds period readings into one rollup per meter. Rows
// arrive ordered by meter, so meters group contiguously; meters without
// readings in range never appear. All arithmetic is exact decimal.
func aggregateRollups(rows []readingdomain.MeterReadingRow) []domain.MeterRollup {
	rollups := make([]domain.MeterRollup, 0)
	for _, row := range rows {
		if n := len(rollups); n > 0 && rollups[n-1].MeterID == row.MeterID {
			rollups[n-1].Usage = rollups[n-1].Usage.Add(row.Usage)
			rollups[n-1].Cost = rollups[n-1].Cost.Add(row.Usage.Mul(row.Price))
			continue
		}
		rollups = append(rollups, domain.MeterRollup{
			MeterID:      row.MeterID,
			SerialNumber: row.SerialNumber,
			Usage:        row.Usage,
			Cost:         row.Usage.Mul(row.Price),
		})
	}
	return rollups
}

func buildDocument(summary domain.Summary, invoice domain.Invoice) render.Document {
	doc := render.Document{
		InvoiceNumber:   invoice.ID.String(),
		IssueDate:       invoice.CreatedAt.Format("2006-01-02"),
		PeriodStart:     summary.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       summary.PeriodEnd.Format("2006-01-02"),
		CustomerName:    summary.CustomerName,
		CustomerAddress: summary.CustomerAddress,
		CustomerEmail:   summary.CustomerEmail,
		Currency:        "EUR",
		TotalUsage:      summary.TotalUsage.StringFixed(5),
		TotalCost:       summary.TotalCost.StringFixed(5),
	}
	for _, rollup := range summary.Meters {
		label := rollup.SerialNumber
		if label == "" {
			label = rollup.MeterID.String()
		}
		doc.Meters = append(doc.Meters, render.MeterLine{
			Meter: label,
			Usage: rollup.Usage.StringFixed(5),
			Cost:  rollup.Cost.StringFixed(5),
		})
	}
	return doc
}
