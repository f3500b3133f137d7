package domain_test

import (
	"testing"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntryType(t *testing.T) {
	et, err := domain.ParseEntryType("income")
	require.NoError(t, err)
	assert.Equal(t, domain.Income, et)

	et, err = domain.ParseEntryType("  EXPENSE ")
	require.NoError(t, err)
	assert.Equal(t, domain.Expense, et)

	_, err = domain.ParseEntryType("transfer")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBuild_Success(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	entry, err := domain.NewEntryBuilder().
		WithName("Groceries").
		WithAmount(decimal.NewFromFloat(42.50)).
		WithCurrency("usd").
		WithEntryType(domain.Expense).
		WithDate(date).
		WithTags("Food", "weekly").
		WithDescription("weekly shop").
		Build()
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "Groceries", entry.Name)
	assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(42.50)))
	assert.Equal(t, "USD", entry.Currency.CurrencyCode)
	assert.Equal(t, domain.Expense, entry.EntryType)
	assert.Equal(t, date, entry.Date)
	assert.Equal(t, []string{"food", "weekly"}, domain.TagNames(entry.Tags))
	assert.False(t, entry.CreatedAt.IsZero())
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestBuild_DefaultsDateAndID(t *testing.T) {
	before := time.Now().UTC()
	entry, err := domain.NewEntryBuilder().
		WithName("Coffee").
		WithAmount(decimal.NewFromInt(4)).
		WithCurrency("EUR").
		WithEntryType(domain.Expense).
		Build()
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Date.Before(before))
}

func TestBuild_ValidationOrder(t *testing.T) {
	// Each case leaves earlier fields valid so the reported failure is the
	// first invalid one.
	tests := []struct {
		name    string
		builder *domain.LedgerEntryBuilder
		wantMsg string
	}{
		{
			name:    "missing name",
			builder: domain.NewEntryBuilder(),
			wantMsg: "entry name is required",
		},
		{
			name:    "missing amount",
			builder: domain.NewEntryBuilder().WithName("x"),
			wantMsg: "entry amount is required",
		},
		{
			name: "negative amount",
			builder: domain.NewEntryBuilder().WithName("x").
				WithAmount(decimal.NewFromInt(-1)),
			wantMsg: "entry amount cannot be negative",
		},
		{
			name: "bad currency",
			builder: domain.NewEntryBuilder().WithName("x").
				WithAmount(decimal.NewFromInt(1)).WithCurrency("ZZZ"),
			wantMsg: "unknown currency code",
		},
		{
			name: "bad tag",
			builder: domain.NewEntryBuilder().WithName("x").
				WithAmount(decimal.NewFromInt(1)).WithCurrency("USD").
				WithTags("no spaces allowed"),
			wantMsg: "tag name",
		},
		{
			name: "missing entry type",
			builder: domain.NewEntryBuilder().WithName("x").
				WithAmount(decimal.NewFromInt(1)).WithCurrency("USD"),
			wantMsg: "entry type is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBuild_ZeroAmountAllowed(t *testing.T) {
	entry, err := domain.NewEntryBuilder().
		WithName("Refund").
		WithAmount(decimal.Zero).
		WithCurrency("USD").
		WithEntryType(domain.Income).
		Build()
	require.NoError(t, err)
	assert.True(t, entry.Amount.IsZero())
}

func TestBuilderFromEntry_RoundTrip(t *testing.T) {
	original, err := domain.NewEntryBuilder().
		WithName("Rent").
		WithAmount(decimal.NewFromInt(1200)).
		WithCurrency("USD").
		WithEntryType(domain.Expense).
		WithTags("housing").
		Build()
	require.NoError(t, err)

	rebuilt, err := domain.BuilderFromEntry(original).Build()
	require.NoError(t, err)
	assert.Equal(t, original, rebuilt)
}

func TestBuilderFromEntry_Modify(t *testing.T) {
	original, err := domain.NewEntryBuilder().
		WithName("Rent").
		WithAmount(decimal.NewFromInt(1200)).
		WithCurrency("USD").
		WithEntryType(domain.Expense).
		Build()
	require.NoError(t, err)

	updated, err := domain.BuilderFromEntry(original).
		WithAmount(decimal.NewFromInt(1250)).
		Build()
	require.NoError(t, err)

	assert.Equal(t, original.ID, updated.ID)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(1250)))
}

func TestHasTag(t *testing.T) {
	entry, err := domain.NewEntryBuilder().
		WithName("Dinner").
		WithAmount(decimal.NewFromInt(30)).
		WithCurrency("USD").
		WithEntryType(domain.Expense).
		WithTags("food", "restaurant").
		Build()
	require.NoError(t, err)

	assert.True(t, entry.HasTag("food"))
	assert.True(t, entry.HasTag(" Food "))
	assert.False(t, entry.HasTag("travel"))
	assert.True(t, entry.HasAllTags([]string{"food", "restaurant"}))
	assert.False(t, entry.HasAllTags([]string{"food", "travel"}))
}

func TestSummary(t *testing.T) {
	entry, err := domain.NewEntryBuilder().
		WithName("Dinner").
		WithAmount(decimal.NewFromInt(30)).
		WithCurrency("USD").
		WithEntryType(domain.Expense).
		WithDate(time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)).
		WithTags("food").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "2024-03-15 Dinner (USD 30) [food]", entry.Summary())
}
