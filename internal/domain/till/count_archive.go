package till

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ArchiveStatus tags an archived count by its cash variance
type ArchiveStatus string

const (
	ArchiveStatusBalanced ArchiveStatus = "BALANCED"
	ArchiveStatusShortage ArchiveStatus = "SHORTAGE"
	ArchiveStatusOver     ArchiveStatus = "OVER"
)

// DefaultBalanceEpsilon is the largest absolute variance still treated as
// balanced
var DefaultBalanceEpsilon = decimal.RequireFromString("0.005")

// ClassifyVariance tags a variance: |v| < eps is BALANCED, v < 0 SHORTAGE,
// otherwise OVER
func ClassifyVariance(v, eps decimal.Decimal) ArchiveStatus {
	switch {
	case v.Abs().LessThan(eps):
		return ArchiveStatusBalanced
	case v.IsNegative():
		return ArchiveStatusShortage
	default:
		return ArchiveStatusOver
	}
}

// ArchiveLine is the archived cash position of one currency
type ArchiveLine struct {
	Currency valueobject.Currency
	Expected decimal.Decimal
	Counted  decimal.Decimal
	Variance decimal.Decimal
	Status   ArchiveStatus
}

// CountArchive is the immutable copy of a count sheet taken when the day's
// reconciliation completes. It is the only record of the count after the
// day is purged; there is no way to update or delete it.
type CountArchive struct {
	shared.BaseEntity
	ShopID       uuid.UUID
	SessionID    uuid.UUID
	CountSheetID uuid.UUID
	CashierID    uuid.UUID
	BusinessDate time.Time
	SheetStatus  CountStatus
	Counts       []DenominationCount
	Electronic   valueobject.TenderTotals
	Expected     valueobject.TenderTotals
	Variance     valueobject.TenderTotals
	CashTotal    valueobject.CurrencyAmounts
	Lines        []ArchiveLine
	Status       ArchiveStatus
	ArchivedAt   time.Time
	ArchivedBy   uuid.UUID
}

// SnapshotSheet copies a count sheet into an archive record. The sheet is
// recalculated first so the archive always satisfies the totals invariant.
func SnapshotSheet(sheet *CountSheet, sessionID, by uuid.UUID, eps decimal.Decimal, now time.Time) *CountArchive {
	sheet.Recalculate()

	archive := &CountArchive{
		BaseEntity:   shared.NewBaseEntity(),
		ShopID:       sheet.ShopID,
		SessionID:    sessionID,
		CountSheetID: sheet.ID,
		CashierID:    sheet.CashierID,
		BusinessDate: sheet.BusinessDate,
		SheetStatus:  sheet.Status,
		Counts:       sheet.DenominationCounts(),
		Electronic:   sheet.Electronic,
		Expected:     sheet.Expected,
		Variance:     sheet.Variance,
		CashTotal:    sheet.CashTotal,
		ArchivedAt:   now,
		ArchivedBy:   by,
	}

	short, over := false, false
	for _, c := range valueobject.AllCurrencies() {
		v := sheet.Variance.Get(valueobject.TenderCash, c)
		status := ClassifyVariance(v, eps)
		switch status {
		case ArchiveStatusShortage:
			short = true
		case ArchiveStatusOver:
			over = true
		}
		archive.Lines = append(archive.Lines, ArchiveLine{
			Currency: c,
			Expected: sheet.Expected.Get(valueobject.TenderCash, c),
			Counted:  sheet.CashTotal.Get(c),
			Variance: v,
			Status:   status,
		})
	}

	switch {
	case short:
		archive.Status = ArchiveStatusShortage
	case over:
		archive.Status = ArchiveStatusOver
	default:
		archive.Status = ArchiveStatusBalanced
	}
	return archive
}

// Line returns the archived line of a currency
func (a *CountArchive) Line(c valueobject.Currency) ArchiveLine {
	for _, l := range a.Lines {
		if l.Currency == c {
			return l
		}
	}
	return ArchiveLine{Currency: c, Status: ArchiveStatusBalanced}
}
