package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/core/ports"
	"github.com/beansapp/beans/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock LedgerSvc ---
type MockLedgerSvc struct {
	mock.Mock
}

func (m *MockLedgerSvc) AddEntry(ctx context.Context, entry domain.LedgerEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerSvc) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerSvc) UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerSvc) DeleteEntry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLedgerSvc) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerSvc) CountEntries(ctx context.Context, filter domain.EntryFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerSvc) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Mock ConverterSvc ---
type MockConverterSvc struct {
	mock.Mock
}

func (m *MockConverterSvc) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Test Suite ---
type ReportingServiceTestSuite struct {
	suite.Suite
	mockLedger    *MockLedgerSvc
	mockConverter *MockConverterSvc
	service       ports.ReportingSvc

	start time.Time
	end   time.Time
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockLedger = new(MockLedgerSvc)
	suite.mockConverter = new(MockConverterSvc)
	suite.service = services.NewReportingService(suite.mockLedger,
		services.WithConverter(suite.mockConverter))
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.end = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *ReportingServiceTestSuite) entry(name string, amount int64, code string, entryType domain.EntryType, date time.Time, tags ...string) domain.LedgerEntry {
	entry, err := domain.NewEntryBuilder().
		WithName(name).
		WithAmount(decimal.NewFromInt(amount)).
		WithCurrency(code).
		WithEntryType(entryType).
		WithDate(date).
		WithTags(tags...).
		Build()
	suite.Require().NoError(err)
	return entry
}

// --- Test Cases ---

func (suite *ReportingServiceTestSuite) TestPeriodSummary_SingleCurrency() {
	ctx := context.Background()
	entries := []domain.LedgerEntry{
		suite.entry("Salary", 5000, "USD", domain.Income, suite.start.AddDate(0, 0, 5)),
		suite.entry("Rent", 1200, "USD", domain.Expense, suite.start.AddDate(0, 0, 6)),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()

	summary, err := suite.service.PeriodSummary(ctx, suite.start, suite.end, domain.ReportOptions{})

	suite.Require().NoError(err)
	suite.True(summary.Income.Equal(decimal.NewFromInt(5000)))
	suite.True(summary.Expenses.Equal(decimal.NewFromInt(1200)))
	suite.True(summary.Net.Equal(decimal.NewFromInt(3800)))
	suite.Equal("USD", summary.CurrencyCode)
	suite.mockConverter.AssertNotCalled(suite.T(), "Convert")
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestPeriodSummary_EmptyRange() {
	ctx := context.Background()
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return([]domain.LedgerEntry{}, nil).Once()

	summary, err := suite.service.PeriodSummary(ctx, suite.start, suite.end, domain.ReportOptions{})

	suite.Require().NoError(err)
	suite.True(summary.Income.IsZero())
	suite.True(summary.Expenses.IsZero())
	suite.True(summary.Net.IsZero())
}

func (suite *ReportingServiceTestSuite) TestPeriodSummary_InvalidRange() {
	ctx := context.Background()

	_, err := suite.service.PeriodSummary(ctx, suite.end, suite.start, domain.ReportOptions{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidDateRange)
	suite.mockLedger.AssertNotCalled(suite.T(), "ListEntries")
}

func (suite *ReportingServiceTestSuite) TestPeriodSummary_MixedCurrenciesRejected() {
	ctx := context.Background()
	entries := []domain.LedgerEntry{
		suite.entry("Salary", 5000, "USD", domain.Income, suite.start.AddDate(0, 0, 1)),
		suite.entry("Hotel", 300, "EUR", domain.Expense, suite.start.AddDate(0, 0, 2)),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()

	_, err := suite.service.PeriodSummary(ctx, suite.start, suite.end, domain.ReportOptions{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrMixedCurrencies)
}

func (suite *ReportingServiceTestSuite) TestPeriodSummary_NormalizesToTarget() {
	ctx := context.Background()
	entries := []domain.LedgerEntry{
		suite.entry("Salary", 5000, "USD", domain.Income, suite.start.AddDate(0, 0, 1)),
		suite.entry("Hotel", 300, "EUR", domain.Expense, suite.start.AddDate(0, 0, 2)),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()
	suite.mockConverter.On("Convert", ctx, decimal.NewFromInt(300), "EUR", "USD").
		Return(decimal.NewFromInt(330), nil).Once()

	summary, err := suite.service.PeriodSummary(ctx, suite.start, suite.end,
		domain.ReportOptions{TargetCurrencyCode: "usd"})

	suite.Require().NoError(err)
	suite.True(summary.Income.Equal(decimal.NewFromInt(5000)))
	suite.True(summary.Expenses.Equal(decimal.NewFromInt(330)))
	suite.Equal("USD", summary.CurrencyCode)
	suite.mockConverter.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestPeriodSummary_ConversionFailureAborts() {
	ctx := context.Background()
	entries := []domain.LedgerEntry{
		suite.entry("Hotel", 300, "EUR", domain.Expense, suite.start.AddDate(0, 0, 2)),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()
	suite.mockConverter.On("Convert", ctx, decimal.NewFromInt(300), "EUR", "USD").
		Return(decimal.Zero, apperrors.NewTransientConversionError("EUR", "USD", nil)).Once()

	_, err := suite.service.PeriodSummary(ctx, suite.start, suite.end,
		domain.ReportOptions{TargetCurrencyCode: "USD"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConversion)
}

func (suite *ReportingServiceTestSuite) TestPeriodSummary_NoConverterSupplied() {
	ctx := context.Background()
	bare := services.NewReportingService(suite.mockLedger)
	entries := []domain.LedgerEntry{
		suite.entry("Hotel", 300, "EUR", domain.Expense, suite.start.AddDate(0, 0, 2)),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()

	_, err := bare.PeriodSummary(ctx, suite.start, suite.end,
		domain.ReportOptions{TargetCurrencyCode: "USD"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConversion)
}

func (suite *ReportingServiceTestSuite) TestIncomeExpenseReport_FillsEmptyBuckets() {
	ctx := context.Background()
	// entries in January and March; February must still appear with zeros
	entries := []domain.LedgerEntry{
		suite.entry("Salary", 5000, "USD", domain.Income, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		suite.entry("Rent", 1200, "USD", domain.Expense, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()

	report, err := suite.service.IncomeExpenseReport(ctx, suite.start, suite.end, domain.Monthly, domain.ReportOptions{})

	suite.Require().NoError(err)
	suite.Require().Len(report.Buckets, 3)

	jan, feb, mar := report.Buckets[0], report.Buckets[1], report.Buckets[2]
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), jan.PeriodStart)
	suite.True(jan.Income.Equal(decimal.NewFromInt(5000)))

	suite.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), feb.PeriodStart)
	suite.True(feb.Income.IsZero())
	suite.True(feb.Expenses.IsZero())

	suite.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), mar.PeriodStart)
	suite.True(mar.Expenses.Equal(decimal.NewFromInt(1200)))

	suite.True(report.Summary.Net.Equal(decimal.NewFromInt(3800)))
	suite.Equal(domain.Monthly, report.Granularity)
}

func (suite *ReportingServiceTestSuite) TestIncomeExpenseReport_BucketNet() {
	ctx := context.Background()
	day := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	entries := []domain.LedgerEntry{
		suite.entry("Consulting", 800, "USD", domain.Income, day),
		suite.entry("Flowers", 50, "USD", domain.Expense, day),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()

	report, err := suite.service.IncomeExpenseReport(ctx, day, day.AddDate(0, 0, 1), domain.Daily, domain.ReportOptions{})

	suite.Require().NoError(err)
	suite.Require().Len(report.Buckets, 1)
	suite.True(report.Buckets[0].Net.Equal(decimal.NewFromInt(750)))
}

func (suite *ReportingServiceTestSuite) TestTaggedReport_FullAmountPerTag() {
	ctx := context.Background()
	// one entry with two tags counts fully toward both rows
	entries := []domain.LedgerEntry{
		suite.entry("Dinner", 100, "USD", domain.Expense, suite.start.AddDate(0, 0, 5), "food", "restaurant"),
		suite.entry("Groceries", 60, "USD", domain.Expense, suite.start.AddDate(0, 0, 6), "food"),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()

	report, err := suite.service.TaggedReport(ctx, suite.start, suite.end, domain.ReportOptions{})

	suite.Require().NoError(err)
	suite.Require().Len(report.Rows, 2)

	food := report.Rows[0]
	suite.Equal("food", food.Tag)
	suite.True(food.Expenses.Equal(decimal.NewFromInt(160)))
	suite.Equal(2, food.EntryCount)

	restaurant := report.Rows[1]
	suite.Equal("restaurant", restaurant.Tag)
	suite.True(restaurant.Expenses.Equal(decimal.NewFromInt(100)))
	suite.Equal(1, restaurant.EntryCount)

	// the overall summary counts each entry once
	suite.True(report.Summary.Expenses.Equal(decimal.NewFromInt(160)))
}

func (suite *ReportingServiceTestSuite) TestTaggedReport_SortsByExpensesThenName() {
	ctx := context.Background()
	day := suite.start.AddDate(0, 0, 1)
	entries := []domain.LedgerEntry{
		suite.entry("A", 50, "USD", domain.Expense, day, "beta"),
		suite.entry("B", 50, "USD", domain.Expense, day, "alpha"),
		suite.entry("C", 200, "USD", domain.Expense, day, "gamma"),
	}
	suite.mockLedger.On("ListEntries", ctx, mock.AnythingOfType("domain.EntryFilter")).
		Return(entries, nil).Once()

	report, err := suite.service.TaggedReport(ctx, suite.start, suite.end, domain.ReportOptions{})

	suite.Require().NoError(err)
	suite.Require().Len(report.Rows, 3)
	suite.Equal("gamma", report.Rows[0].Tag)
	suite.Equal("alpha", report.Rows[1].Tag)
	suite.Equal("beta", report.Rows[2].Tag)
}

func (suite *ReportingServiceTestSuite) TestTaggedReport_IgnoresTagFilter() {
	ctx := context.Background()
	suite.mockLedger.On("ListEntries", ctx, mock.MatchedBy(func(f domain.EntryFilter) bool {
		return f.Tags == nil
	})).Return([]domain.LedgerEntry{}, nil).Once()

	_, err := suite.service.TaggedReport(ctx, suite.start, suite.end,
		domain.ReportOptions{Tags: []string{"food"}})

	suite.Require().NoError(err)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestFilterPassthrough() {
	ctx := context.Background()
	income := domain.Income
	suite.mockLedger.On("ListEntries", ctx, mock.MatchedBy(func(f domain.EntryFilter) bool {
		return f.StartDate != nil && f.StartDate.Equal(suite.start) &&
			f.EndDate != nil && f.EndDate.Equal(suite.end) &&
			f.EntryType != nil && *f.EntryType == domain.Income &&
			len(f.Tags) == 1 && f.Tags[0] == "salary"
	})).Return([]domain.LedgerEntry{}, nil).Once()

	_, err := suite.service.PeriodSummary(ctx, suite.start, suite.end,
		domain.ReportOptions{EntryType: &income, Tags: []string{"salary"}})

	suite.Require().NoError(err)
	suite.mockLedger.AssertExpectations(suite.T())
}

// --- Run Suite ---
func TestReportingService(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}

// End to end against a real in-memory store.
func TestReporting_InMemoryLedger(t *testing.T) {
	ctx := context.Background()
	ledger, err := services.InMemoryLedger()
	if err != nil {
		t.Fatalf("open in-memory ledger: %v", err)
	}
	defer ledger.Close()

	add := func(name string, amount int64, entryType domain.EntryType, day int, tags ...string) {
		t.Helper()
		entry, err := domain.NewEntryBuilder().
			WithName(name).
			WithAmount(decimal.NewFromInt(amount)).
			WithCurrency("USD").
			WithEntryType(entryType).
			WithDate(time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)).
			WithTags(tags...).
			Build()
		if err != nil {
			t.Fatalf("build %s: %v", name, err)
		}
		if _, err := ledger.AddEntry(ctx, entry); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	add("Salary", 5000, domain.Income, 1, "salary")
	add("Rent", 1200, domain.Expense, 2, "housing")
	add("Groceries", 400, domain.Expense, 10, "food")

	reporting := services.NewReportingService(ledger)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	summary, err := reporting.PeriodSummary(ctx, start, end, domain.ReportOptions{})
	if err != nil {
		t.Fatalf("period summary: %v", err)
	}
	if !summary.Income.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("income = %s, want 5000", summary.Income)
	}
	if !summary.Expenses.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("expenses = %s, want 1600", summary.Expenses)
	}
	if !summary.Net.Equal(decimal.NewFromInt(3400)) {
		t.Errorf("net = %s, want 3400", summary.Net)
	}

	tagged, err := reporting.TaggedReport(ctx, start, end, domain.ReportOptions{})
	if err != nil {
		t.Fatalf("tagged report: %v", err)
	}
	if len(tagged.Rows) != 3 {
		t.Fatalf("tag rows = %d, want 3", len(tagged.Rows))
	}
	if tagged.Rows[0].Tag != "housing" {
		t.Errorf("top expense tag = %s, want housing", tagged.Rows[0].Tag)
	}
}
