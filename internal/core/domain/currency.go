package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/beansapp/beans/internal/apperrors"
)

// Currency represents a supported currency. Equality is by code.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // ISO-4217 code, e.g. "USD"
	Symbol       string `json:"symbol"`       // e.g. "$"
	Name         string `json:"name"`         // e.g. "US Dollar"
}

// NewCurrency resolves a currency code against the ISO-4217 table.
// The code is trimmed and upper-cased before lookup; an unknown code is a
// validation error.
func NewCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return Currency{}, fmt.Errorf("%w: currency code must be 3 letters, got %q", apperrors.ErrValidation, code)
	}
	def := money.GetCurrency(code)
	if def == nil {
		return Currency{}, fmt.Errorf("%w: unknown currency code %q", apperrors.ErrValidation, code)
	}
	return Currency{
		CurrencyCode: def.Code,
		Symbol:       def.Grapheme,
		// go-money carries no display name, only code and grapheme.
		Name: def.Code,
	}, nil
}

// MustCurrency is a convenience for tests and static initialization with
// codes known to be valid. It panics on an unknown code.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// ValidCurrencyCode reports whether the given code resolves.
func ValidCurrencyCode(code string) bool {
	_, err := NewCurrency(code)
	return err == nil
}

func (c Currency) String() string { return c.CurrencyCode }

// Equal compares currencies by code only.
func (c Currency) Equal(other Currency) bool {
	return c.CurrencyCode == other.CurrencyCode
}
