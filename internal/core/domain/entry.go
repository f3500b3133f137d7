package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType indicates whether an entry records money coming in or going out.
type EntryType string

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

// ParseEntryType parses a string into an EntryType.
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: invalid entry type %q, expected %q or %q", apperrors.ErrValidation, s, Income, Expense)
	}
}

func (t EntryType) String() string { return string(t) }

// LedgerEntry is a single income or expense transaction. Entries are
// immutable once built; to change one, derive a builder from it, adjust the
// fields, and build a replacement value.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"` // non-negative; sign lives in EntryType
	Currency    Currency        `json:"currency"`
	EntryType   EntryType       `json:"entryType"`
	Description string          `json:"description,omitempty"`
	Tags        []Tag           `json:"tags,omitempty"` // deduplicated, sorted by name
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// HasTag reports whether the entry carries the given tag, after normalizing
// the name the same way NewTag does.
func (e LedgerEntry) HasTag(name string) bool {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, t := range e.Tags {
		if t.Name() == normalized {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the entry carries every one of the given tags.
func (e LedgerEntry) HasAllTags(names []string) bool {
	for _, n := range names {
		if !e.HasTag(n) {
			return false
		}
	}
	return true
}

// Summary renders a one-line human description of the entry.
func (e LedgerEntry) Summary() string {
	var tags string
	if len(e.Tags) > 0 {
		tags = " [" + strings.Join(TagNames(e.Tags), ", ") + "]"
	}
	return fmt.Sprintf("%s %s (%s %s)%s",
		e.Date.UTC().Format("2006-01-02"), e.Name, e.Currency.CurrencyCode, e.Amount.String(), tags)
}

func (e LedgerEntry) String() string { return e.Summary() }

// LedgerEntryBuilder accumulates entry fields and validates them all in
// Build. No partially valid entry can exist outside the builder.
type LedgerEntryBuilder struct {
	id           string
	date         time.Time
	name         string
	amount       decimal.Decimal
	amountSet    bool
	currencyCode string
	entryType    EntryType
	description  string
	tags         []string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewEntryBuilder creates an empty builder.
func NewEntryBuilder() *LedgerEntryBuilder {
	return &LedgerEntryBuilder{}
}

// BuilderFromEntry pre-populates a builder with an existing entry's fields,
// for building a modified replacement.
func BuilderFromEntry(e LedgerEntry) *LedgerEntryBuilder {
	return &LedgerEntryBuilder{
		id:           e.ID,
		date:         e.Date,
		name:         e.Name,
		amount:       e.Amount,
		amountSet:    true,
		currencyCode: e.Currency.CurrencyCode,
		entryType:    e.EntryType,
		description:  e.Description,
		tags:         TagNames(e.Tags),
		createdAt:    e.CreatedAt,
		updatedAt:    e.UpdatedAt,
	}
}

// WithID overrides the generated identity. Used when rehydrating stored rows.
func (b *LedgerEntryBuilder) WithID(id string) *LedgerEntryBuilder {
	b.id = id
	return b
}

// WithDate sets the transaction date. Defaults to the build time if unset.
func (b *LedgerEntryBuilder) WithDate(date time.Time) *LedgerEntryBuilder {
	b.date = date
	return b
}

func (b *LedgerEntryBuilder) WithName(name string) *LedgerEntryBuilder {
	b.name = name
	return b
}

func (b *LedgerEntryBuilder) WithAmount(amount decimal.Decimal) *LedgerEntryBuilder {
	b.amount = amount
	b.amountSet = true
	return b
}

func (b *LedgerEntryBuilder) WithCurrency(code string) *LedgerEntryBuilder {
	b.currencyCode = code
	return b
}

func (b *LedgerEntryBuilder) WithEntryType(t EntryType) *LedgerEntryBuilder {
	b.entryType = t
	return b
}

func (b *LedgerEntryBuilder) WithDescription(description string) *LedgerEntryBuilder {
	b.description = description
	return b
}

// WithTags replaces the accumulated tag names.
func (b *LedgerEntryBuilder) WithTags(names ...string) *LedgerEntryBuilder {
	b.tags = append([]string(nil), names...)
	return b
}

// AddTag appends a single tag name.
func (b *LedgerEntryBuilder) AddTag(name string) *LedgerEntryBuilder {
	b.tags = append(b.tags, name)
	return b
}

// WithAudit overrides audit timestamps. Used when rehydrating stored rows.
func (b *LedgerEntryBuilder) WithAudit(createdAt, updatedAt time.Time) *LedgerEntryBuilder {
	b.createdAt = createdAt
	b.updatedAt = updatedAt
	return b
}

// Build validates the accumulated fields and produces an immutable entry.
// Validation order is fixed (name, amount, currency, tags, date) so error
// messages are reproducible.
func (b *LedgerEntryBuilder) Build() (LedgerEntry, error) {
	if strings.TrimSpace(b.name) == "" {
		return LedgerEntry{}, fmt.Errorf("%w: entry name is required", apperrors.ErrValidation)
	}
	if !b.amountSet {
		return LedgerEntry{}, fmt.Errorf("%w: entry amount is required", apperrors.ErrValidation)
	}
	if b.amount.IsNegative() {
		return LedgerEntry{}, fmt.Errorf("%w: entry amount cannot be negative", apperrors.ErrValidation)
	}
	currency, err := NewCurrency(b.currencyCode)
	if err != nil {
		return LedgerEntry{}, err
	}
	tags, err := NewTags(b.tags)
	if err != nil {
		return LedgerEntry{}, err
	}
	if b.entryType != Income && b.entryType != Expense {
		return LedgerEntry{}, fmt.Errorf("%w: entry type is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	date := b.date
	if date.IsZero() {
		date = now
	}

	id := b.id
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := b.createdAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := b.updatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return LedgerEntry{
		ID:          id,
		Date:        date.UTC(),
		Name:        b.name,
		Amount:      b.amount,
		Currency:    currency,
		EntryType:   b.entryType,
		Description: b.description,
		Tags:        tags,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}
