package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	customerrepo "github.com/smallbiznis/meterbill/internal/customer/repository"
	"github.com/smallbiznis/meterbill/internal/invoice/domain"
	"github.com/smallbiznis/meterbill/internal/invoice/render"
	invoicerepo "github.com/smallbiznis/meterbill/internal/invoice/repository"
	meterdomain "github.com/smallbiznis/meterbill/internal/meter/domain"
	readingdomain "github.com/smallbiznis/meterbill/internal/reading/domain"
	readingrepo "github.com/smallbiznis/meterbill/internal/reading/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRenderer struct {
	err      error
	rendered []render.Document
}

func (f *fakeRenderer) Render(ctx context.Context, doc render.Document) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rendered = append(f.rendered, doc)
	return []byte("%PDF-fake"), nil
}

type memStore struct {
	writes map[string][]byte
	err    error
}

func newMemStore() *memStore {
	return &memStore{writes: map[string][]byte{}}
}

func (m *memStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.writes[key] = data
	return "/data/" + key, nil
}

type fixture struct {
	db       *gorm.DB
	svc      domain.Service
	node     *snowflake.Node
	renderer *fakeRenderer
	store    *memStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&meterdomain.Meter{},
		&readingdomain.Reading{},
		&domain.Invoice{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	renderer := &fakeRenderer{}
	store := newMemStore()
	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Repo:         invoicerepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		ReadingRepo:  readingrepo.Provide(),
		Renderer:     renderer,
		Store:        store,
	})

	return &fixture{db: db, svc: svc, node: node, renderer: renderer, store: store}
}

func (f *fixture) seedCustomer(t *testing.T) *customerdomain.Customer {
	t.Helper()
	customer := &customerdomain.Customer{
		ID:      f.node.Generate(),
		Name:    "Janez Novak",
		Address: "Celovska cesta 123, Ljubljana",
		Email:   "janez@example.com",
	}
	require.NoError(t, f.db.Create(customer).Error)
	return customer
}

func (f *fixture) seedMeter(t *testing.T, customerID snowflake.ID, serial string) *meterdomain.Meter {
	t.Helper()
	meter := &meterdomain.Meter{ID: f.node.Generate(), CustomerID: customerID}
	if serial != "" {
		meter.SerialNumber = &serial
	}
	require.NoError(t, f.db.Create(meter).Error)
	return meter
}

func (f *fixture) seedReading(t *testing.T, meterID snowflake.ID, ts time.Time, usage, price string) {
	t.Helper()
	require.NoError(t, f.db.Create(&readingdomain.Reading{
		ID:        f.node.Generate(),
		Timestamp: ts,
		Usage:     decimal.RequireFromString(usage),
		Price:     decimal.RequireFromString(price),
		MeterID:   meterID,
		BatchTag:  "test_batch.csv",
	}).Error)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute_ExactTotals(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "M-001")
	f.seedReading(t, meter.ID, date(2024, 1, 5), "100.00000", "0.20000")
	f.seedReading(t, meter.ID, date(2024, 1, 20), "50.00000", "0.25000")

	summary, err := f.svc.Compute(context.Background(), domain.ComputeRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	})
	require.NoError(t, err)

	require.Len(t, summary.Meters, 1)
	assert.Equal(t, "M-001", summary.Meters[0].SerialNumber)
	assert.True(t, summary.Meters[0].Usage.Equal(decimal.RequireFromString("150")),
		"usage = %s", summary.Meters[0].Usage)
	assert.True(t, summary.Meters[0].Cost.Equal(decimal.RequireFromString("32.5")),
		"cost = %s", summary.Meters[0].Cost)

	assert.True(t, summary.TotalUsage.Equal(decimal.RequireFromString("150")))
	assert.True(t, summary.TotalCost.Equal(decimal.RequireFromString("32.5")))
}

func TestCompute_TotalsEqualRollupSums(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	m1 := f.seedMeter(t, customer.ID, "M-001")
	m2 := f.seedMeter(t, customer.ID, "M-002")
	f.seedReading(t, m1.ID, date(2024, 1, 3), "0.1", "0.1")
	f.seedReading(t, m1.ID, date(2024, 1, 4), "0.2", "0.1")
	f.seedReading(t, m2.ID, date(2024, 1, 5), "0.3", "0.3")

	summary, err := f.svc.Compute(context.Background(), domain.ComputeRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	})
	require.NoError(t, err)
	require.Len(t, summary.Meters, 2)

	usage := decimal.Zero
	cost := decimal.Zero
	for _, rollup := range summary.Meters {
		usage = usage.Add(rollup.Usage)
		cost = cost.Add(rollup.Cost)
	}
	assert.True(t, summary.TotalUsage.Equal(usage), "total usage must equal rollup sum exactly")
	assert.True(t, summary.TotalCost.Equal(cost), "total cost must equal rollup sum exactly")
	assert.True(t, cost.Equal(decimal.RequireFromString("0.12")), "cost = %s", cost)
}

func TestCompute_ClosedClosedBoundary(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "")

	// Last instant of the end day is in; the next instant is out.
	f.seedReading(t, meter.ID, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), "1", "1")
	f.seedReading(t, meter.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "100", "1")

	summary, err := f.svc.Compute(context.Background(), domain.ComputeRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	})
	require.NoError(t, err)
	assert.True(t, summary.TotalUsage.Equal(decimal.NewFromInt(1)),
		"usage = %s", summary.TotalUsage)
}

func TestCompute_EndDefaultsToEndOfMonth(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "")
	f.seedReading(t, meter.ID, date(2024, 2, 29), "5", "2")
	f.seedReading(t, meter.ID, date(2024, 3, 1), "7", "2")

	summary, err := f.svc.Compute(context.Background(), domain.ComputeRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 2, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), summary.PeriodEnd)
	assert.True(t, summary.TotalUsage.Equal(decimal.NewFromInt(5)))
}

func TestCompute_EmptyPeriodYieldsZeroTotals(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	f.seedMeter(t, customer.ID, "M-001")

	summary, err := f.svc.Compute(context.Background(), domain.ComputeRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	})
	require.NoError(t, err)
	assert.Empty(t, summary.Meters)
	assert.True(t, summary.TotalUsage.IsZero())
	assert.True(t, summary.TotalCost.IsZero())
}

func TestCompute_Idempotent(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "M-001")
	f.seedReading(t, meter.ID, date(2024, 1, 5), "100", "0.2")

	req := domain.ComputeRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	}
	first, err := f.svc.Compute(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "compute is a pure read")
}

func TestCompute_CustomerNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Compute(context.Background(), domain.ComputeRequest{
		CustomerID: f.node.Generate().String(),
		Start:      date(2024, 1, 1),
	})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)
}

func TestCreateInvoice_PersistsRowAndDocument(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "M-001")
	f.seedReading(t, meter.ID, date(2024, 1, 5), "100", "0.2")

	resp, err := f.svc.CreateInvoice(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), resp.Document)

	var stored domain.Invoice
	require.NoError(t, f.db.First(&stored, "id = ?", resp.Invoice.ID).Error)
	assert.True(t, stored.TotalCost.Equal(decimal.RequireFromString("20")))
	assert.NotEmpty(t, stored.DocumentPath)

	key := fmt.Sprintf("invoices/%s/2024/%s.pdf", customer.ID.String(), resp.Invoice.ID.String())
	_, ok := f.store.writes[key]
	assert.True(t, ok, "document stored under customer/year/invoice key")
}

func TestCreateInvoice_AppendOnly(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "M-001")
	f.seedReading(t, meter.ID, date(2024, 1, 5), "100", "0.2")

	req := domain.CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	}
	first, err := f.svc.CreateInvoice(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.CreateInvoice(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Invoice.ID, second.Invoice.ID)

	var count int64
	require.NoError(t, f.db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "recomputing the same period appends a new invoice")
}

func TestCreateInvoice_RenderFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "M-001")
	f.seedReading(t, meter.ID, date(2024, 1, 5), "100", "0.2")
	f.renderer.err = errors.New("template exploded")

	_, err := f.svc.CreateInvoice(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	})
	assert.ErrorIs(t, err, domain.ErrRenderFailure)

	var stored domain.Invoice
	require.NoError(t, f.db.First(&stored).Error)
	assert.Empty(t, stored.DocumentPath, "row persists with an empty document pointer")
	assert.True(t, stored.TotalCost.Equal(decimal.RequireFromString("20")))
}

func TestCreateInvoice_StorageFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)
	meter := f.seedMeter(t, customer.ID, "M-001")
	f.seedReading(t, meter.ID, date(2024, 1, 5), "100", "0.2")
	f.store.err = errors.New("disk full")

	_, err := f.svc.CreateInvoice(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 1, 1),
		End:        date(2024, 1, 31),
	})
	assert.ErrorIs(t, err, domain.ErrStorageWriteFailure)

	var stored domain.Invoice
	require.NoError(t, f.db.First(&stored).Error)
	assert.Empty(t, stored.DocumentPath)
}

func TestCreateInvoice_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	customer := f.seedCustomer(t)

	_, err := f.svc.CreateInvoice(context.Background(), domain.CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Start:      date(2024, 2, 1),
		End:        date(2024, 1, 1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}
