package domain

import "time"

// EntryFilter is a query specification for listing entries. Every field is
// optional; an unset field imposes no constraint, so the zero value matches
// every entry. Populated fields compose by logical AND.
type EntryFilter struct {
	// StartDate bounds matched entries to date >= StartDate.
	StartDate *time.Time
	// EndDate bounds matched entries to date < EndDate.
	EndDate *time.Time
	// EntryType restricts matches to one entry type.
	EntryType *EntryType
	// CurrencyCode restricts matches to one currency.
	CurrencyCode string
	// Tags restricts matches to entries carrying ALL of the given tags
	// (match-all across multiple tags, not match-any).
	Tags []string
	// Limit caps the number of returned entries; zero means no cap.
	Limit int
	// Offset skips that many matched entries.
	Offset int
}

// WithDateRange returns a copy of the filter bounded to [start, end).
func (f EntryFilter) WithDateRange(start, end time.Time) EntryFilter {
	f.StartDate = &start
	f.EndDate = &end
	return f
}

// WithEntryType returns a copy of the filter restricted to one entry type.
func (f EntryFilter) WithEntryType(t EntryType) EntryFilter {
	f.EntryType = &t
	return f
}
