package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/core/ports"
	"github.com/beansapp/beans/internal/repositories/database/sqlite"
	"github.com/beansapp/beans/pkg/database"
)

// LedgerSuffix is the reserved file suffix identifying a ledger store.
// Opening a path without it is rejected before any I/O.
const LedgerSuffix = ".bean"

// LedgerService orchestrates repository access for one named ledger store.
// It is the only gate other layers use: every entry passes builder
// validation again before it is forwarded to the repository.
type LedgerService struct {
	BaseService
	repo ports.EntryRepository
}

// NewLedgerService creates a LedgerService over an already-open repository.
func NewLedgerService(repo ports.EntryRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

var _ ports.LedgerSvc = (*LedgerService)(nil)

// OpenLedger opens the ledger store at path, creating it if absent. The path
// must end in LedgerSuffix.
func OpenLedger(path string) (*LedgerService, error) {
	if !strings.HasSuffix(path, LedgerSuffix) {
		return nil, fmt.Errorf("%w: ledger path %q must end in %q", apperrors.ErrValidation, path, LedgerSuffix)
	}
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open ledger %q: %v", apperrors.ErrDatabase, path, err)
	}
	return NewLedgerService(sqlite.NewEntryRepository(db)), nil
}

// InMemoryLedger creates an ephemeral ledger with the same semantics as a
// file-backed one. Useful for tests and scratch computation.
func InMemoryLedger() (*LedgerService, error) {
	db, err := database.OpenSQLiteInMemory()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open in-memory ledger: %v", apperrors.ErrDatabase, err)
	}
	return NewLedgerService(sqlite.NewEntryRepository(db)), nil
}

// AddEntry validates and stores a new entry, returning its id.
func (s *LedgerService) AddEntry(ctx context.Context, entry domain.LedgerEntry) (string, error) {
	// Defense in depth: rebuild through the validating builder so a value
	// assembled outside it can never reach the store.
	validated, err := domain.BuilderFromEntry(entry).Build()
	if err != nil {
		return "", err
	}

	if err := s.repo.Insert(ctx, validated); err != nil {
		s.LogError(ctx, err, "Failed to add entry", slog.String("entry_id", validated.ID))
		return "", fmt.Errorf("add entry %s: %w", validated.ID, err)
	}
	s.LogDebug(ctx, "Entry added", slog.String("entry_id", validated.ID), slog.String("name", validated.Name))
	return validated.ID, nil
}

// GetEntry retrieves a single entry by id.
func (s *LedgerService) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return entry, nil
}

// UpdateEntry replaces a stored entry wholesale. The entry is re-validated
// and its UpdatedAt timestamp refreshed before the write.
func (s *LedgerService) UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error {
	validated, err := domain.BuilderFromEntry(entry).
		WithAudit(entry.CreatedAt, time.Now().UTC()).
		Build()
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, validated); err != nil {
		s.LogError(ctx, err, "Failed to update entry", slog.String("entry_id", validated.ID))
		return fmt.Errorf("update entry %s: %w", validated.ID, err)
	}
	s.LogDebug(ctx, "Entry updated", slog.String("entry_id", validated.ID))
	return nil
}

// DeleteEntry removes an entry and its tag associations.
func (s *LedgerService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.LogError(ctx, err, "Failed to delete entry", slog.String("entry_id", id))
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	s.LogDebug(ctx, "Entry deleted", slog.String("entry_id", id))
	return nil
}

// ListEntries returns entries matching the filter, in date order.
func (s *LedgerService) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	entries, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// CountEntries returns the number of entries matching the filter.
func (s *LedgerService) CountEntries(ctx context.Context, filter domain.EntryFilter) (int, error) {
	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Close releases the underlying store.
func (s *LedgerService) Close() error {
	return s.repo.Close()
}
