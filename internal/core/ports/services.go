package ports

import (
	"context"
	"time"

	"github.com/beansapp/beans/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerSvc is the only entry point other layers use to reach the store.
type LedgerSvc interface {
	AddEntry(ctx context.Context, entry domain.LedgerEntry) (string, error)
	GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
	UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error)
	CountEntries(ctx context.Context, filter domain.EntryFilter) (int, error)
	Close() error
}

// ConverterSvc converts amounts between currencies.
type ConverterSvc interface {
	// Convert returns the amount denominated in the target currency. A
	// same-currency conversion returns the amount unchanged without any
	// external call.
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// RateSource fetches the from->to exchange rate from an external provider.
// Implementations must fail with an apperrors.ConversionError after a bounded
// wait rather than hang.
type RateSource interface {
	FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// ReportingSvc produces aggregates over ledger entries.
type ReportingSvc interface {
	PeriodSummary(ctx context.Context, start, end time.Time, opts domain.ReportOptions) (*domain.PeriodSummary, error)
	IncomeExpenseReport(ctx context.Context, start, end time.Time, granularity domain.Granularity, opts domain.ReportOptions) (*domain.IncomeExpenseReport, error)
	TaggedReport(ctx context.Context, start, end time.Time, opts domain.ReportOptions) (*domain.TaggedReport, error)
}
