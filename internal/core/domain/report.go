package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Granularity is the fixed bucket width used to partition a report range.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// ParseGranularity parses a string into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	default:
		return "", fmt.Errorf("%w: invalid granularity %q", apperrors.ErrValidation, s)
	}
}

// BucketStart truncates a date to the start of its bucket. Weeks start on
// Monday.
func (g Granularity) BucketStart(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Weekly:
		daysFromMonday := (int(t.Weekday()) + 6) % 7
		t = t.AddDate(0, 0, -daysFromMonday)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// Next advances a bucket start to the start of the following bucket.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	case Yearly:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}

// ReportOptions tunes a report computation. The zero value aggregates every
// entry in the range in its native currency.
type ReportOptions struct {
	// TargetCurrencyCode normalizes all amounts into this currency before
	// aggregation. Entries in other currencies need a converter.
	TargetCurrencyCode string
	// EntryType restricts the report to one entry type.
	EntryType *EntryType
	// Tags restricts the report to entries carrying all of the given tags.
	Tags []string
}

// PeriodSummary totals income and expenses over one interval.
// Net is income minus expenses.
type PeriodSummary struct {
	Income       decimal.Decimal `json:"income"`
	Expenses     decimal.Decimal `json:"expenses"`
	Net          decimal.Decimal `json:"net"`
	CurrencyCode string          `json:"currencyCode,omitempty"`
}

// ZeroPeriodSummary returns a summary with all totals at zero.
func ZeroPeriodSummary(currencyCode string) PeriodSummary {
	return PeriodSummary{
		Income:       decimal.Zero,
		Expenses:     decimal.Zero,
		Net:          decimal.Zero,
		CurrencyCode: currencyCode,
	}
}

// ReportBucket is a PeriodSummary for one time bucket of a report range.
type ReportBucket struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodSummary
}

// IncomeExpenseReport is a chronological series of per-bucket summaries plus
// an overall summary for the whole range. Empty buckets appear with zero
// totals; there are no gaps.
type IncomeExpenseReport struct {
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	Granularity Granularity    `json:"granularity"`
	Buckets     []ReportBucket `json:"buckets"`
	Summary     PeriodSummary  `json:"summary"`
}

// TagTotal is one row of a TaggedReport. An entry carrying several tags
// contributes its full amount to each of them, so rows are not disjoint.
type TagTotal struct {
	Tag        string          `json:"tag"`
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	EntryCount int             `json:"entryCount"`
}

// TaggedReport maps tags to income and expense totals over a range, ordered
// by descending expense total (ties broken by tag name), plus an overall
// summary across all entries in the range.
type TaggedReport struct {
	StartDate time.Time     `json:"startDate"`
	EndDate   time.Time     `json:"endDate"`
	Rows      []TagTotal    `json:"rows"`
	Summary   PeriodSummary `json:"summary"`
}
