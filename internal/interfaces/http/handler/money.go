package handler

import (
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// currencyAmounts converts a {"USD": "10.00"} body map; unknown codes are
// INVALID_INPUT
func currencyAmounts(in map[string]decimal.Decimal) (map[valueobject.Currency]decimal.Decimal, error) {
	out := make(map[valueobject.Currency]decimal.Decimal, len(in))
	for code, amount := range in {
		cur, err := valueobject.ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		out[cur] = amount
	}
	return out, nil
}

// PaymentLine is one tender/currency line of a request body
type PaymentLine struct {
	Tender   string          `json:"tender" binding:"required,tender"`
	Currency string          `json:"currency" binding:"required,currency"`
	Amount   decimal.Decimal `json:"amount"`
}

func (p PaymentLine) parse() (valueobject.Tender, valueobject.Currency, error) {
	tender, err := valueobject.ParseTender(p.Tender)
	if err != nil {
		return "", "", err
	}
	cur, err := valueobject.ParseCurrency(p.Currency)
	if err != nil {
		return "", "", err
	}
	return tender, cur, nil
}
