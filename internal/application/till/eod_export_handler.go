package till

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/till"
	"go.uber.org/zap"
)

// ZReport is the end-of-day report exported after a reconciliation
// completes
type ZReport struct {
	ShopID       uuid.UUID                `json:"shop_id"`
	BusinessDate string                   `json:"business_date"`
	CompletedAt  time.Time                `json:"completed_at"`
	CompletedBy  uuid.UUID                `json:"completed_by"`
	Forced       bool                     `json:"forced"`
	Totals       []CurrencyTotalsResponse `json:"totals"`
	Archives     []ArchiveResponse        `json:"archives"`
}

// ZReportRenderer renders a Z-report as a PDF document
type ZReportRenderer interface {
	RenderPDF(ctx context.Context, report ZReport) ([]byte, error)
}

// ObjectStore stores exported documents
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// EODExportHandler exports the archive snapshot and the Z-report of a
// completed day to object storage. Export is best effort: the day is
// already closed and archived when it runs.
type EODExportHandler struct {
	scope    TransactionScope
	store    ObjectStore
	renderer ZReportRenderer
	logger   *zap.Logger
}

// NewEODExportHandler creates a new EODExportHandler. renderer may be nil to
// export JSON only.
func NewEODExportHandler(scope TransactionScope, store ObjectStore, renderer ZReportRenderer, logger *zap.Logger) *EODExportHandler {
	return &EODExportHandler{
		scope:    scope,
		store:    store,
		renderer: renderer,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *EODExportHandler) EventTypes() []string {
	return []string{till.EventTypeReconciliationComplete}
}

// Handle processes a ReconciliationCompletedEvent
func (h *EODExportHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*till.ReconciliationCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			till.EventTypeReconciliationComplete, event.EventType())
	}

	report, err := h.buildReport(ctx, completed)
	if err != nil {
		return err
	}
	prefix := ExportKeyPrefix(report.ShopID, completed.BusinessDate)

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive snapshot: %w", err)
	}
	if err := h.store.Put(ctx, prefix+"archive.json", body, "application/json"); err != nil {
		h.logger.Error("archive snapshot export failed",
			zap.String("shop_id", report.ShopID.String()),
			zap.String("business_date", report.BusinessDate),
			zap.Error(err),
		)
		return fmt.Errorf("upload archive snapshot: %w", err)
	}

	if h.renderer != nil {
		pdf, err := h.renderer.RenderPDF(ctx, *report)
		if err != nil {
			h.logger.Error("z-report rendering failed",
				zap.String("shop_id", report.ShopID.String()),
				zap.String("business_date", report.BusinessDate),
				zap.Error(err),
			)
			return fmt.Errorf("render z-report: %w", err)
		}
		if err := h.store.Put(ctx, prefix+"z-report.pdf", pdf, "application/pdf"); err != nil {
			return fmt.Errorf("upload z-report: %w", err)
		}
	}

	h.logger.Info("end of day exported",
		zap.String("shop_id", report.ShopID.String()),
		zap.String("business_date", report.BusinessDate),
		zap.Int("archives", len(report.Archives)),
	)
	return nil
}

func (h *EODExportHandler) buildReport(ctx context.Context, e *till.ReconciliationCompletedEvent) (*ZReport, error) {
	report := &ZReport{
		ShopID:       e.ShopID(),
		BusinessDate: formatDate(e.BusinessDate),
		CompletedAt:  e.OccurredAt(),
		CompletedBy:  e.CompletedBy,
		Forced:       e.Forced,
		Totals:       toCurrencyTotals(e.Totals),
	}
	err := h.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		archives, err := repos.ArchiveRepo().ListForDay(ctx, e.ShopID(), e.BusinessDate)
		if err != nil {
			return err
		}
		report.Archives = ToArchiveResponses(archives)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load archives: %w", err)
	}
	return report, nil
}

// ExportKeyPrefix is the object key prefix of a day's export
func ExportKeyPrefix(shopID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("eod/%s/%s/", shopID, formatDate(date))
}

// Ensure EODExportHandler implements EventHandler
var _ shared.EventHandler = (*EODExportHandler)(nil)
