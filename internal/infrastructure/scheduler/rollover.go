package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"go.uber.org/zap"
)

// DayRoller brings a shop's business day up to today
type DayRoller interface {
	CurrentFor(ctx context.Context, shopID uuid.UUID) (*apptill.BusinessDayResponse, error)
}

// RolloverExecutor runs rollover jobs
type RolloverExecutor struct {
	days   DayRoller
	logger *zap.Logger
}

// NewRolloverExecutor creates a new RolloverExecutor
func NewRolloverExecutor(days DayRoller, logger *zap.Logger) *RolloverExecutor {
	return &RolloverExecutor{days: days, logger: logger}
}

// Execute resolves today's business day for the job's shop. Resolving it
// performs the carry-forward when yesterday was left open.
func (e *RolloverExecutor) Execute(ctx context.Context, job *Job) error {
	if job.Kind != JobKindRollover {
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}
	day, err := e.days.CurrentFor(ctx, job.ShopID)
	if err != nil {
		return fmt.Errorf("roll over shop %s: %w", job.ShopID, err)
	}
	if day.CarriedForward {
		e.logger.Info("unclosed day carried forward",
			zap.String("shop_id", job.ShopID.String()),
			zap.String("date", day.Date))
	}
	return nil
}

var _ JobExecutor = (*RolloverExecutor)(nil)
