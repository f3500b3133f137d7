package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/core/ports"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// timeFormat is RFC3339 with fixed-width nanoseconds so that stored dates
// order lexicographically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteEntryRepository implements ports.EntryRepository on the embedded
// SQLite store.
type SQLiteEntryRepository struct {
	BaseRepository
}

// NewEntryRepository creates a SQLiteEntryRepository over an open database.
func NewEntryRepository(db *sql.DB) *SQLiteEntryRepository {
	return &SQLiteEntryRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ ports.EntryRepository = (*SQLiteEntryRepository)(nil)

// Insert stores a new entry and its tag associations in one transaction.
func (r *SQLiteEntryRepository) Insert(ctx context.Context, entry domain.LedgerEntry) error {
	return r.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (id, date, name, currency, amount, description, entry_type, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID,
			entry.Date.UTC().Format(timeFormat),
			entry.Name,
			entry.Currency.CurrencyCode,
			entry.Amount.String(),
			nullableString(entry.Description),
			string(entry.EntryType),
			entry.CreatedAt.UTC().Format(timeFormat),
			entry.UpdatedAt.UTC().Format(timeFormat),
		)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
				return fmt.Errorf("%w: entry %s", apperrors.ErrDuplicate, entry.ID)
			}
			return fmt.Errorf("%w: failed to insert entry %s: %v", apperrors.ErrDatabase, entry.ID, err)
		}
		return r.saveTags(ctx, tx, entry.ID, entry.Tags)
	})
}

// FindByID retrieves a single entry with its tags.
func (r *SQLiteEntryRepository) FindByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, date, name, currency, amount, description, entry_type, created_at, updated_at
		FROM entries WHERE id = ?`, id)

	entry, err := r.scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
		}
		return nil, err
	}

	tagsByEntry, err := r.loadTags(ctx, []string{entry.ID})
	if err != nil {
		return nil, err
	}
	entry.Tags = tagsByEntry[entry.ID]
	return entry, nil
}

// Update replaces all fields of a stored entry and recomputes its tag
// association set. The entry row and the junction rows change together or
// not at all.
func (r *SQLiteEntryRepository) Update(ctx context.Context, entry domain.LedgerEntry) error {
	return r.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE entries
			SET date = ?, name = ?, currency = ?, amount = ?, description = ?, entry_type = ?, updated_at = ?
			WHERE id = ?`,
			entry.Date.UTC().Format(timeFormat),
			entry.Name,
			entry.Currency.CurrencyCode,
			entry.Amount.String(),
			nullableString(entry.Description),
			string(entry.EntryType),
			entry.UpdatedAt.UTC().Format(timeFormat),
			entry.ID,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to update entry %s: %v", apperrors.ErrDatabase, entry.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: failed to read update result: %v", apperrors.ErrDatabase, err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, entry.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ?`, entry.ID); err != nil {
			return fmt.Errorf("%w: failed to clear tag associations for %s: %v", apperrors.ErrDatabase, entry.ID, err)
		}
		if err := r.saveTags(ctx, tx, entry.ID, entry.Tags); err != nil {
			return err
		}
		return r.pruneOrphanTags(ctx, tx)
	})
}

// Delete removes an entry. Its junction rows go with it via the foreign key
// cascade; tag rows no other entry references are pruned.
func (r *SQLiteEntryRepository) Delete(ctx context.Context, id string) error {
	return r.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("%w: failed to delete entry %s: %v", apperrors.ErrDatabase, id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: failed to read delete result: %v", apperrors.ErrDatabase, err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
		}
		return r.pruneOrphanTags(ctx, tx)
	})
}

// Find returns entries matching the filter, ordered by date ascending with
// ties broken by creation time and id. The filter translates into a single
// query; tags for the whole result set load in one follow-up query.
func (r *SQLiteEntryRepository) Find(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, error) {
	where, args, err := buildFilterClause(filter)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT e.id, e.date, e.name, e.currency, e.amount, e.description, e.entry_type, e.created_at, e.updated_at
		FROM entries e` + where + `
		ORDER BY e.date ASC, e.created_at ASC, e.id ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", filter.Offset)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query entries: %v", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	var ids []string
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
		ids = append(ids, entry.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate entries: %v", apperrors.ErrDatabase, err)
	}

	if len(ids) == 0 {
		return []domain.LedgerEntry{}, nil
	}

	tagsByEntry, err := r.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Tags = tagsByEntry[entries[i].ID]
	}
	return entries, nil
}

// Count returns the number of entries matching the filter, ignoring Limit
// and Offset.
func (r *SQLiteEntryRepository) Count(ctx context.Context, filter domain.EntryFilter) (int, error) {
	where, args, err := buildFilterClause(filter)
	if err != nil {
		return 0, err
	}
	var count int
	err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries e`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count entries: %v", apperrors.ErrDatabase, err)
	}
	return count, nil
}

// Close releases the store handle.
func (r *SQLiteEntryRepository) Close() error {
	return r.DB.Close()
}

// saveTags inserts the junction rows for an entry, creating tag rows as
// needed. Runs inside the caller's transaction.
func (r *SQLiteEntryRepository) saveTags(ctx context.Context, tx *sql.Tx, entryID string, tags []domain.Tag) error {
	for _, tag := range tags {
		var tagID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, tag.Name()).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			res, insErr := tx.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, tag.Name())
			if insErr != nil {
				return fmt.Errorf("%w: failed to insert tag %q: %v", apperrors.ErrDatabase, tag.Name(), insErr)
			}
			tagID, insErr = res.LastInsertId()
			if insErr != nil {
				return fmt.Errorf("%w: failed to read tag id: %v", apperrors.ErrDatabase, insErr)
			}
		} else if err != nil {
			return fmt.Errorf("%w: failed to look up tag %q: %v", apperrors.ErrDatabase, tag.Name(), err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO entry_tags (entry_id, tag_id) VALUES (?, ?)`, entryID, tagID); err != nil {
			return fmt.Errorf("%w: failed to associate tag %q with entry %s: %v", apperrors.ErrDatabase, tag.Name(), entryID, err)
		}
	}
	return nil
}

// pruneOrphanTags removes tag rows no entry references anymore.
func (r *SQLiteEntryRepository) pruneOrphanTags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id NOT IN (SELECT DISTINCT tag_id FROM entry_tags)`)
	if err != nil {
		return fmt.Errorf("%w: failed to prune orphan tags: %v", apperrors.ErrDatabase, err)
	}
	return nil
}

// loadTags fetches the tags for all given entry ids in one query, returned
// sorted by name per entry.
func (r *SQLiteEntryRepository) loadTags(ctx context.Context, entryIDs []string) (map[string][]domain.Tag, error) {
	placeholders := strings.Repeat("?, ", len(entryIDs)-1) + "?"
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT et.entry_id, t.name
		FROM entry_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.entry_id IN (`+placeholders+`)
		ORDER BY et.entry_id, t.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load tags: %v", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	tagsByEntry := make(map[string][]domain.Tag, len(entryIDs))
	for rows.Next() {
		var entryID, name string
		if err := rows.Scan(&entryID, &name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan tag row: %v", apperrors.ErrDatabase, err)
		}
		tag, err := domain.NewTag(name)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid tag %q in store: %v", apperrors.ErrDatabase, name, err)
		}
		tagsByEntry[entryID] = append(tagsByEntry[entryID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate tag rows: %v", apperrors.ErrDatabase, err)
	}
	return tagsByEntry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry converts a store row into a domain entry, re-validating it
// through the builder so a corrupted row surfaces as an error instead of an
// invalid value. Tags are attached by the caller.
func (r *SQLiteEntryRepository) scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var (
		id, dateStr, name, currencyCode, amountStr, entryTypeStr string
		description                                              sql.NullString
		createdAtStr, updatedAtStr                               string
	)
	if err := row.Scan(&id, &dateStr, &name, &currencyCode, &amountStr, &description, &entryTypeStr, &createdAtStr, &updatedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to scan entry row: %v", apperrors.ErrDatabase, err)
	}

	date, err := time.Parse(time.RFC3339Nano, dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date in store for entry %s: %v", apperrors.ErrDatabase, id, err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount in store for entry %s: %v", apperrors.ErrDatabase, id, err)
	}
	entryType, err := domain.ParseEntryType(entryTypeStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid entry type in store for entry %s: %v", apperrors.ErrDatabase, id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid created_at in store for entry %s: %v", apperrors.ErrDatabase, id, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid updated_at in store for entry %s: %v", apperrors.ErrDatabase, id, err)
	}

	builder := domain.NewEntryBuilder().
		WithID(id).
		WithDate(date).
		WithName(name).
		WithAmount(amount).
		WithCurrency(currencyCode).
		WithEntryType(entryType).
		WithAudit(createdAt, updatedAt)
	if description.Valid {
		builder = builder.WithDescription(description.String)
	}

	entry, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid entry %s in store: %v", apperrors.ErrDatabase, id, err)
	}
	return &entry, nil
}

// buildFilterClause translates an EntryFilter into one WHERE clause. Tag
// constraints use a correlated subquery counting how many of the wanted tags
// each entry carries, so multi-tag filters are match-all.
func buildFilterClause(filter domain.EntryFilter) (string, []any, error) {
	var conds []string
	var args []any

	if filter.StartDate != nil {
		conds = append(conds, "e.date >= ?")
		args = append(args, filter.StartDate.UTC().Format(timeFormat))
	}
	if filter.EndDate != nil {
		conds = append(conds, "e.date < ?")
		args = append(args, filter.EndDate.UTC().Format(timeFormat))
	}
	if filter.EntryType != nil {
		conds = append(conds, "e.entry_type = ?")
		args = append(args, string(*filter.EntryType))
	}
	if filter.CurrencyCode != "" {
		conds = append(conds, "e.currency = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.CurrencyCode)))
	}
	if len(filter.Tags) > 0 {
		tags, err := domain.NewTags(filter.Tags)
		if err != nil {
			return "", nil, err
		}
		placeholders := strings.Repeat("?, ", len(tags)-1) + "?"
		conds = append(conds, `(
			SELECT COUNT(DISTINCT t.name)
			FROM entry_tags et
			JOIN tags t ON t.id = et.tag_id
			WHERE et.entry_id = e.id AND t.name IN (`+placeholders+`)
		) = ?`)
		for _, tag := range tags {
			args = append(args, tag.Name())
		}
		args = append(args, len(tags))
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
