// Package export serializes entry lists and reports into a structured JSON
// form and a flat CSV form with deterministic field order.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/beansapp/beans/internal/core/domain"
)

const dateLayout = "2006-01-02"

// entryRecord is the stable field layout shared by both export forms.
type entryRecord struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	EntryType   string `json:"entryType"`
	Description string `json:"description"`
	Tags        string `json:"tags"` // semicolon-joined, sorted
}

func toRecord(e domain.LedgerEntry) entryRecord {
	return entryRecord{
		Date:        e.Date.UTC().Format(dateLayout),
		Name:        e.Name,
		Amount:      e.Amount.String(),
		Currency:    e.Currency.CurrencyCode,
		EntryType:   string(e.EntryType),
		Description: e.Description,
		Tags:        strings.Join(domain.TagNames(e.Tags), ";"),
	}
}

// WriteEntriesJSON writes the entries as an indented JSON array.
func WriteEntriesJSON(w io.Writer, entries []domain.LedgerEntry) error {
	records := make([]entryRecord, len(entries))
	for i, e := range entries {
		records[i] = toRecord(e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to export entries to JSON: %w", err)
	}
	return nil
}

// WriteEntriesCSV writes the entries as CSV with a header row.
func WriteEntriesCSV(w io.Writer, entries []domain.LedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "name", "amount", "currency", "entry_type", "description", "tags"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		rec := toRecord(e)
		row := []string{rec.Date, rec.Name, rec.Amount, rec.Currency, rec.EntryType, rec.Description, rec.Tags}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteIncomeExpenseReportJSON writes the report as indented JSON.
func WriteIncomeExpenseReportJSON(w io.Writer, report *domain.IncomeExpenseReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to export report to JSON: %w", err)
	}
	return nil
}

// WriteIncomeExpenseReportCSV writes one CSV row per bucket followed by a
// total row.
func WriteIncomeExpenseReportCSV(w io.Writer, report *domain.IncomeExpenseReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"period_start", "income", "expenses", "net"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, bucket := range report.Buckets {
		row := []string{
			bucket.PeriodStart.UTC().Format(dateLayout),
			bucket.Income.String(),
			bucket.Expenses.String(),
			bucket.Net.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	total := []string{"total", report.Summary.Income.String(), report.Summary.Expenses.String(), report.Summary.Net.String()}
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("failed to write CSV total row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteTaggedReportJSON writes the report as indented JSON.
func WriteTaggedReportJSON(w io.Writer, report *domain.TaggedReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to export tag report to JSON: %w", err)
	}
	return nil
}

// WriteTaggedReportCSV writes one CSV row per tag.
func WriteTaggedReportCSV(w io.Writer, report *domain.TaggedReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tag", "income", "expenses", "entry_count"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range report.Rows {
		rec := []string{row.Tag, row.Income.String(), row.Expenses.String(), fmt.Sprintf("%d", row.EntryCount)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
