package fx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/fx"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRateRepository is a mock implementation of fx.RateRepository
type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) Save(ctx context.Context, rate *fx.Rate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRateRepository) FindEffective(ctx context.Context, shopID uuid.UUID, asOf time.Time) ([]fx.Rate, error) {
	args := m.Called(ctx, shopID, asOf)
	return args.Get(0).([]fx.Rate), args.Error(1)
}

func (m *MockRateRepository) List(ctx context.Context, shopID uuid.UUID, limit int) ([]fx.Rate, error) {
	args := m.Called(ctx, shopID, limit)
	return args.Get(0).([]fx.Rate), args.Error(1)
}

func mustRate(t *testing.T, shopID uuid.UUID, c valueobject.Currency, perUSD string, effective time.Time) fx.Rate {
	t.Helper()
	r, err := fx.NewRate(shopID, c, decimal.RequireFromString(perUSD), effective)
	require.NoError(t, err)
	return *r
}

func TestExchangeRateService_RecordRate(t *testing.T) {
	ctx := context.Background()
	shopID := uuid.New()
	owner := uuid.New()
	effective := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("stores the rate", func(t *testing.T) {
		repo := new(MockRateRepository)
		svc := NewExchangeRateService(repo)
		repo.On("Save", ctx, mock.AnythingOfType("*fx.Rate")).Return(nil).Once()

		resp, err := svc.RecordRate(ctx, RecordRateRequest{
			ShopID:        shopID,
			Currency:      valueobject.ZIG,
			PerUSD:        decimal.RequireFromString("26.5"),
			EffectiveDate: &effective,
			RecordedBy:    owner,
		})

		require.NoError(t, err)
		assert.Equal(t, "ZIG", resp.Currency)
		assert.Equal(t, "2026-03-01", resp.EffectiveDate)
		assert.Equal(t, owner, *resp.RecordedBy)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a USD rate without saving", func(t *testing.T) {
		repo := new(MockRateRepository)
		svc := NewExchangeRateService(repo)

		_, err := svc.RecordRate(ctx, RecordRateRequest{
			ShopID:   shopID,
			Currency: valueobject.USD,
			PerUSD:   decimal.NewFromInt(1),
		})

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestExchangeRateService_Convert(t *testing.T) {
	ctx := context.Background()
	shopID := uuid.New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	repo := new(MockRateRepository)
	svc := NewExchangeRateService(repo)
	repo.On("FindEffective", ctx, shopID, day).Return([]fx.Rate{
		mustRate(t, shopID, valueobject.ZIG, "25", day.AddDate(0, 0, -3)),
		mustRate(t, shopID, valueobject.ZIG, "26", day.AddDate(0, 0, -1)),
		mustRate(t, shopID, valueobject.RAND, "18.5", day.AddDate(0, 0, -1)),
	}, nil)

	got, err := svc.Convert(ctx, shopID, decimal.RequireFromString("52"), valueobject.ZIG, valueobject.USD, day)
	require.NoError(t, err)
	assert.Equal(t, "2.00", got.StringFixed(2))

	got, err = svc.Convert(ctx, shopID, decimal.RequireFromString("26"), valueobject.ZIG, valueobject.RAND, day)
	require.NoError(t, err)
	assert.Equal(t, "18.50", got.StringFixed(2))

	same, err := svc.Convert(ctx, shopID, decimal.NewFromInt(7), valueobject.USD, valueobject.USD, day)
	require.NoError(t, err)
	assert.True(t, same.Equal(decimal.NewFromInt(7)))

	t.Run("missing rate is not found", func(t *testing.T) {
		empty := new(MockRateRepository)
		svc := NewExchangeRateService(empty)
		empty.On("FindEffective", ctx, shopID, day).Return([]fx.Rate{}, nil)

		_, err := svc.Convert(ctx, shopID, decimal.NewFromInt(10), valueobject.RAND, valueobject.USD, day)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
