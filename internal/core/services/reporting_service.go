package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/core/ports"
	"github.com/shopspring/decimal"
)

// reportingService produces aggregates over entries read through the ledger
// manager, optionally normalizing amounts into one target currency.
type reportingService struct {
	BaseService
	ledger    ports.LedgerSvc
	converter ports.ConverterSvc
}

// ReportingServiceOption is a functional option for configuring the
// reporting service.
type ReportingServiceOption func(*reportingService)

// WithConverter supplies a currency converter for normalized reports.
func WithConverter(converter ports.ConverterSvc) ReportingServiceOption {
	return func(s *reportingService) {
		s.converter = converter
	}
}

// NewReportingService creates a reporting service reading through the given
// ledger manager.
func NewReportingService(ledger ports.LedgerSvc, options ...ReportingServiceOption) ports.ReportingSvc {
	svc := &reportingService{ledger: ledger}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ ports.ReportingSvc = (*reportingService)(nil)

// PeriodSummary sums income and expenses over [start, end).
func (s *reportingService) PeriodSummary(ctx context.Context, start, end time.Time, opts domain.ReportOptions) (*domain.PeriodSummary, error) {
	entries, err := s.fetchEntries(ctx, start, end, opts)
	if err != nil {
		return nil, err
	}

	currencyCode, err := s.summaryCurrency(entries, opts)
	if err != nil {
		return nil, err
	}

	summary := domain.ZeroPeriodSummary(currencyCode)
	for _, entry := range entries {
		amount, err := s.normalize(ctx, entry, currencyCode)
		if err != nil {
			return nil, err
		}
		switch entry.EntryType {
		case domain.Income:
			summary.Income = summary.Income.Add(amount)
		case domain.Expense:
			summary.Expenses = summary.Expenses.Add(amount)
		}
	}
	summary.Net = summary.Income.Sub(summary.Expenses)

	s.LogDebug(ctx, "Period summary computed",
		slog.Time("start", start), slog.Time("end", end), slog.Int("entry_count", len(entries)))
	return &summary, nil
}

// IncomeExpenseReport partitions [start, end) into equal buckets and computes
// a summary per bucket plus an overall one. Buckets come out in
// chronological order; an empty bucket still appears with zero totals.
func (s *reportingService) IncomeExpenseReport(ctx context.Context, start, end time.Time, granularity domain.Granularity, opts domain.ReportOptions) (*domain.IncomeExpenseReport, error) {
	entries, err := s.fetchEntries(ctx, start, end, opts)
	if err != nil {
		return nil, err
	}

	currencyCode, err := s.summaryCurrency(entries, opts)
	if err != nil {
		return nil, err
	}

	byBucket := make(map[time.Time]*domain.PeriodSummary)
	overall := domain.ZeroPeriodSummary(currencyCode)
	for _, entry := range entries {
		amount, err := s.normalize(ctx, entry, currencyCode)
		if err != nil {
			return nil, err
		}

		bucketStart := granularity.BucketStart(entry.Date)
		bucket, ok := byBucket[bucketStart]
		if !ok {
			zero := domain.ZeroPeriodSummary(currencyCode)
			bucket = &zero
			byBucket[bucketStart] = bucket
		}
		switch entry.EntryType {
		case domain.Income:
			bucket.Income = bucket.Income.Add(amount)
			overall.Income = overall.Income.Add(amount)
		case domain.Expense:
			bucket.Expenses = bucket.Expenses.Add(amount)
			overall.Expenses = overall.Expenses.Add(amount)
		}
	}
	overall.Net = overall.Income.Sub(overall.Expenses)

	var buckets []domain.ReportBucket
	for cursor := granularity.BucketStart(start); cursor.Before(end); cursor = granularity.Next(cursor) {
		summary := domain.ZeroPeriodSummary(currencyCode)
		if found, ok := byBucket[cursor]; ok {
			summary = *found
			summary.Net = summary.Income.Sub(summary.Expenses)
		}
		buckets = append(buckets, domain.ReportBucket{PeriodStart: cursor, PeriodSummary: summary})
	}

	s.LogDebug(ctx, "Income/expense report computed",
		slog.Time("start", start), slog.Time("end", end),
		slog.String("granularity", string(granularity)), slog.Int("bucket_count", len(buckets)))
	return &domain.IncomeExpenseReport{
		StartDate:   start.UTC(),
		EndDate:     end.UTC(),
		Granularity: granularity,
		Buckets:     buckets,
		Summary:     overall,
	}, nil
}

// TaggedReport groups income and expenses by tag over [start, end). An entry
// carrying several tags contributes its full amount to every one of them:
// rows answer "how much went to this category", so they deliberately
// double-count across tags and do not sum to the overall summary.
func (s *reportingService) TaggedReport(ctx context.Context, start, end time.Time, opts domain.ReportOptions) (*domain.TaggedReport, error) {
	// tag filtering does not apply to the tag breakdown itself
	opts.Tags = nil

	entries, err := s.fetchEntries(ctx, start, end, opts)
	if err != nil {
		return nil, err
	}

	currencyCode, err := s.summaryCurrency(entries, opts)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*domain.TagTotal)
	overall := domain.ZeroPeriodSummary(currencyCode)
	for _, entry := range entries {
		amount, err := s.normalize(ctx, entry, currencyCode)
		if err != nil {
			return nil, err
		}

		switch entry.EntryType {
		case domain.Income:
			overall.Income = overall.Income.Add(amount)
		case domain.Expense:
			overall.Expenses = overall.Expenses.Add(amount)
		}

		for _, tag := range entry.Tags {
			total, ok := totals[tag.Name()]
			if !ok {
				total = &domain.TagTotal{Tag: tag.Name(), Income: decimal.Zero, Expenses: decimal.Zero}
				totals[tag.Name()] = total
			}
			switch entry.EntryType {
			case domain.Income:
				total.Income = total.Income.Add(amount)
			case domain.Expense:
				total.Expenses = total.Expenses.Add(amount)
			}
			total.EntryCount++
		}
	}
	overall.Net = overall.Income.Sub(overall.Expenses)

	rows := make([]domain.TagTotal, 0, len(totals))
	for _, total := range totals {
		rows = append(rows, *total)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Expenses.Equal(rows[j].Expenses) {
			return rows[i].Expenses.GreaterThan(rows[j].Expenses)
		}
		return rows[i].Tag < rows[j].Tag
	})

	s.LogDebug(ctx, "Tagged report computed",
		slog.Time("start", start), slog.Time("end", end), slog.Int("tag_count", len(rows)))
	return &domain.TaggedReport{
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		Rows:      rows,
		Summary:   overall,
	}, nil
}

// fetchEntries validates the range and reads the matching entries through
// the ledger manager.
func (s *reportingService) fetchEntries(ctx context.Context, start, end time.Time, opts domain.ReportOptions) ([]domain.LedgerEntry, error) {
	if !start.Before(end) {
		return nil, apperrors.ErrInvalidDateRange
	}

	filter := domain.EntryFilter{Tags: opts.Tags, EntryType: opts.EntryType}.WithDateRange(start, end)
	entries, err := s.ledger.ListEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("report query: %w", err)
	}
	return entries, nil
}

// summaryCurrency decides which currency the report's totals are denominated
// in. Without a target currency, all entries must already share one: adding
// unconverted mixed currencies would produce a meaningless blended total.
func (s *reportingService) summaryCurrency(entries []domain.LedgerEntry, opts domain.ReportOptions) (string, error) {
	if opts.TargetCurrencyCode != "" {
		currency, err := domain.NewCurrency(opts.TargetCurrencyCode)
		if err != nil {
			return "", err
		}
		return currency.CurrencyCode, nil
	}

	var code string
	for _, entry := range entries {
		if code == "" {
			code = entry.Currency.CurrencyCode
			continue
		}
		if entry.Currency.CurrencyCode != code {
			return "", fmt.Errorf("%w: found %s and %s", apperrors.ErrMixedCurrencies, code, entry.Currency.CurrencyCode)
		}
	}
	return code, nil
}

// normalize converts an entry's amount into the target currency. With no
// target, the native amount passes through. A conversion failure aborts the
// whole report; entries are never silently skipped.
func (s *reportingService) normalize(ctx context.Context, entry domain.LedgerEntry, targetCode string) (decimal.Decimal, error) {
	if targetCode == "" || entry.Currency.CurrencyCode == targetCode {
		return entry.Amount, nil
	}
	if s.converter == nil {
		return decimal.Zero, apperrors.NewPermanentConversionError(
			entry.Currency.CurrencyCode, targetCode, errors.New("no converter supplied"))
	}
	amount, err := s.converter.Convert(ctx, entry.Amount, entry.Currency.CurrencyCode, targetCode)
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
