// Package fx provides the exchange-rate administration used to present
// multi-currency totals in a single display currency.
package fx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/fx"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RecordRateRequest records a rate effective from a date
type RecordRateRequest struct {
	ShopID        uuid.UUID
	Currency      valueobject.Currency
	PerUSD        decimal.Decimal
	EffectiveDate *time.Time
	RecordedBy    uuid.UUID
}

// RateResponse represents an exchange rate in API responses
type RateResponse struct {
	ID            uuid.UUID       `json:"id"`
	ShopID        uuid.UUID       `json:"shop_id"`
	Currency      string          `json:"currency"`
	PerUSD        decimal.Decimal `json:"per_usd"`
	EffectiveDate string          `json:"effective_date"`
	RecordedBy    *uuid.UUID      `json:"recorded_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToRateResponse converts a domain Rate
func ToRateResponse(r *fx.Rate) RateResponse {
	return RateResponse{
		ID:            r.ID,
		ShopID:        r.ShopID,
		Currency:      r.Currency.String(),
		PerUSD:        r.PerUSD,
		EffectiveDate: r.EffectiveDate.Format(time.DateOnly),
		RecordedBy:    r.RecordedBy,
		CreatedAt:     r.CreatedAt,
	}
}

// ConversionResponse is the result of a conversion
type ConversionResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
	AsOf      string          `json:"as_of"`
}

// ExchangeRateService records exchange rates and converts amounts
type ExchangeRateService struct {
	repo fx.RateRepository
	now  func() time.Time
}

// NewExchangeRateService creates a new ExchangeRateService
func NewExchangeRateService(repo fx.RateRepository) *ExchangeRateService {
	return &ExchangeRateService{repo: repo, now: time.Now}
}

// RecordRate stores a rate. Recording a second rate for the same currency
// and date replaces the first.
func (s *ExchangeRateService) RecordRate(ctx context.Context, req RecordRateRequest) (*RateResponse, error) {
	effective := s.now()
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}
	rate, err := fx.NewRate(req.ShopID, req.Currency, req.PerUSD, effective)
	if err != nil {
		return nil, err
	}
	if req.RecordedBy != uuid.Nil {
		by := req.RecordedBy
		rate.RecordedBy = &by
	}
	if err := s.repo.Save(ctx, rate); err != nil {
		return nil, err
	}
	resp := ToRateResponse(rate)
	return &resp, nil
}

// List returns the most recent rates of a shop
func (s *ExchangeRateService) List(ctx context.Context, shopID uuid.UUID, limit int) ([]RateResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rates, err := s.repo.List(ctx, shopID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RateResponse, len(rates))
	for i := range rates {
		out[i] = ToRateResponse(&rates[i])
	}
	return out, nil
}

// Table loads the rate table effective on a date
func (s *ExchangeRateService) Table(ctx context.Context, shopID uuid.UUID, asOf time.Time) (*fx.Table, error) {
	rates, err := s.repo.FindEffective(ctx, shopID, asOf)
	if err != nil {
		return nil, err
	}
	return fx.NewTable(rates), nil
}

// Convert converts an amount using the rates effective on asOf. Fails with
// NOT_FOUND when either currency has no rate by then.
func (s *ExchangeRateService) Convert(ctx context.Context, shopID uuid.UUID, amount decimal.Decimal, from, to valueobject.Currency, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	table, err := s.Table(ctx, shopID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return table.Convert(amount, from, to, asOf)
}

// Quote converts an amount and describes the conversion
func (s *ExchangeRateService) Quote(ctx context.Context, shopID uuid.UUID, amount decimal.Decimal, from, to valueobject.Currency, asOf time.Time) (*ConversionResponse, error) {
	converted, err := s.Convert(ctx, shopID, amount, from, to, asOf)
	if err != nil {
		return nil, err
	}
	return &ConversionResponse{
		Amount:    amount,
		From:      from.String(),
		To:        to.String(),
		Converted: converted,
		AsOf:      asOf.Format(time.DateOnly),
	}, nil
}
