package ports

import (
	"context"

	"github.com/beansapp/beans/internal/core/domain"
)

// EntryRepository defines the persistence operations for ledger entries and
// their tag associations. Every mutating operation is atomic: it is either
// fully applied or fully rolled back, tags included.
type EntryRepository interface {
	// Insert stores a new entry and its tag associations.
	Insert(ctx context.Context, entry domain.LedgerEntry) error
	// FindByID retrieves one entry, returning apperrors.ErrNotFound if the
	// id does not exist.
	FindByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	// Update replaces all fields of a stored entry and recomputes its tag
	// association set in one transaction.
	Update(ctx context.Context, entry domain.LedgerEntry) error
	// Delete removes an entry and its tag associations.
	Delete(ctx context.Context, id string) error
	// Find returns entries matching the filter, ordered by date ascending
	// with ties broken by creation time then id. No matches is an empty
	// slice, not an error.
	Find(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error)
	// Count returns the number of entries matching the filter, ignoring
	// its Limit and Offset.
	Count(ctx context.Context, filter domain.EntryFilter) (int, error)
	// Close releases the underlying store handle.
	Close() error
}
