package till

import (
	"fmt"

	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DenominationKind distinguishes notes from coins
type DenominationKind string

const (
	KindNote DenominationKind = "note"
	KindCoin DenominationKind = "coin"
)

// Denomination is one entry of a currency's fixed note and coin table.
// Code is unique across all currencies; face values are not (USD has a one
// dollar note and a one dollar coin).
type Denomination struct {
	Code      string
	Currency  valueobject.Currency
	FaceValue decimal.Decimal
	Kind      DenominationKind
}

func denom(code string, c valueobject.Currency, face string, kind DenominationKind) Denomination {
	return Denomination{Code: code, Currency: c, FaceValue: decimal.RequireFromString(face), Kind: kind}
}

var denominationTable = map[valueobject.Currency][]Denomination{
	valueobject.USD: {
		denom("USD_100", valueobject.USD, "100", KindNote),
		denom("USD_50", valueobject.USD, "50", KindNote),
		denom("USD_20", valueobject.USD, "20", KindNote),
		denom("USD_10", valueobject.USD, "10", KindNote),
		denom("USD_5", valueobject.USD, "5", KindNote),
		denom("USD_2", valueobject.USD, "2", KindNote),
		denom("USD_1", valueobject.USD, "1", KindNote),
		denom("USD_1_COIN", valueobject.USD, "1", KindCoin),
		denom("USD_0_50", valueobject.USD, "0.50", KindCoin),
		denom("USD_0_25", valueobject.USD, "0.25", KindCoin),
		denom("USD_0_10", valueobject.USD, "0.10", KindCoin),
		denom("USD_0_05", valueobject.USD, "0.05", KindCoin),
		denom("USD_0_01", valueobject.USD, "0.01", KindCoin),
	},
	valueobject.ZIG: {
		denom("ZIG_200", valueobject.ZIG, "200", KindNote),
		denom("ZIG_100", valueobject.ZIG, "100", KindNote),
		denom("ZIG_50", valueobject.ZIG, "50", KindNote),
		denom("ZIG_20", valueobject.ZIG, "20", KindNote),
		denom("ZIG_10", valueobject.ZIG, "10", KindNote),
		denom("ZIG_5", valueobject.ZIG, "5", KindNote),
		denom("ZIG_2", valueobject.ZIG, "2", KindNote),
		denom("ZIG_1", valueobject.ZIG, "1", KindNote),
	},
	valueobject.RAND: {
		denom("RAND_200", valueobject.RAND, "200", KindNote),
		denom("RAND_100", valueobject.RAND, "100", KindNote),
		denom("RAND_50", valueobject.RAND, "50", KindNote),
		denom("RAND_20", valueobject.RAND, "20", KindNote),
		denom("RAND_10", valueobject.RAND, "10", KindNote),
		denom("RAND_5", valueobject.RAND, "5", KindCoin),
		denom("RAND_2", valueobject.RAND, "2", KindCoin),
		denom("RAND_1", valueobject.RAND, "1", KindCoin),
		denom("RAND_0_50", valueobject.RAND, "0.50", KindCoin),
		denom("RAND_0_20", valueobject.RAND, "0.20", KindCoin),
		denom("RAND_0_10", valueobject.RAND, "0.10", KindCoin),
		denom("RAND_0_05", valueobject.RAND, "0.05", KindCoin),
	},
}

var denominationsByCode = func() map[string]Denomination {
	m := make(map[string]Denomination)
	for _, list := range denominationTable {
		for _, d := range list {
			m[d.Code] = d
		}
	}
	return m
}()

// Denominations returns the note and coin table of a currency, largest first
func Denominations(c valueobject.Currency) []Denomination {
	list := denominationTable[c]
	out := make([]Denomination, len(list))
	copy(out, list)
	return out
}

// LookupDenomination finds a denomination by code
func LookupDenomination(code string) (Denomination, error) {
	d, ok := denominationsByCode[code]
	if !ok {
		return Denomination{}, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown denomination: %q", code))
	}
	return d, nil
}
