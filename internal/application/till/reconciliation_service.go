package till

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateConverter converts amounts between currencies for display
type RateConverter interface {
	Convert(ctx context.Context, shopID uuid.UUID, amount decimal.Decimal, from, to valueobject.Currency, asOf time.Time) (decimal.Decimal, error)
}

// ReconciliationService runs the shop-wide end-of-day workflow
type ReconciliationService struct {
	scope     TransactionScope
	days      *BusinessDayService
	converter RateConverter
	eventBus  shared.EventPublisher
	cfg       Config
}

// NewReconciliationService creates a new ReconciliationService. converter
// may be nil, in which case display conversion is unavailable.
func NewReconciliationService(
	scope TransactionScope,
	days *BusinessDayService,
	converter RateConverter,
	eventBus shared.EventPublisher,
	cfg Config,
) *ReconciliationService {
	return &ReconciliationService{
		scope:     scope,
		days:      days,
		converter: converter,
		eventBus:  eventBus,
		cfg:       cfg,
	}
}

// Get returns the session of a day. A day without a session reports
// NOT_STARTED. A nil date means today.
func (s *ReconciliationService) Get(ctx context.Context, shopID uuid.UUID, date *time.Time) (*SessionResponse, error) {
	businessDate := s.resolveDate(date)
	var resp SessionResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		session, err := findSession(ctx, repos, shopID, businessDate, false)
		if err != nil {
			return err
		}
		resp = ToSessionResponse(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// findSession loads the day's session, or returns an unsaved NOT_STARTED one
func findSession(ctx context.Context, repos TransactionalRepositories, shopID uuid.UUID, date time.Time, forUpdate bool) (*till.ReconciliationSession, error) {
	var session *till.ReconciliationSession
	var err error
	if forUpdate {
		session, err = repos.SessionRepo().FindForUpdate(ctx, shopID, date)
	} else {
		session, err = repos.SessionRepo().Find(ctx, shopID, date)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return till.NewReconciliationSession(shopID, date)
	}
	return session, err
}

func saveSession(ctx context.Context, repos TransactionalRepositories, session *till.ReconciliationSession, created bool) error {
	if created {
		return repos.SessionRepo().Create(ctx, session)
	}
	return repos.SessionRepo().Save(ctx, session)
}

// Start begins the end-of-day workflow for today
func (s *ReconciliationService) Start(ctx context.Context, shopID uuid.UUID, actor Actor) (*SessionResponse, error) {
	return s.advance(ctx, shopID, actor, func(session *till.ReconciliationSession, now time.Time) error {
		return session.Start(actor.UserID, now)
	})
}

// AwaitCounts moves today's session to AWAITING_COUNTS
func (s *ReconciliationService) AwaitCounts(ctx context.Context, shopID uuid.UUID, actor Actor) (*SessionResponse, error) {
	return s.advance(ctx, shopID, actor, func(session *till.ReconciliationSession, now time.Time) error {
		return session.AwaitCounts(now)
	})
}

func (s *ReconciliationService) advance(ctx context.Context, shopID uuid.UUID, actor Actor, step func(*till.ReconciliationSession, time.Time) error) (*SessionResponse, error) {
	if !actor.Role.CanReconcile() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "only the shop owner or an admin may run the end of day")
	}
	day, err := s.days.current(ctx, shopID)
	if err != nil {
		return nil, err
	}

	var resp SessionResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, shopID, day.Date, LockShared); err != nil {
			return err
		}
		session, err := findSession(ctx, repos, shopID, day.Date, true)
		if err != nil {
			return err
		}
		created := session.Status == till.SessionStatusNotStarted
		if err := step(session, s.cfg.now()); err != nil {
			return err
		}
		if err := saveSession(ctx, repos, session, created); err != nil {
			return err
		}
		resp = ToSessionResponse(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summary aggregates the day's count sheets without changing anything.
// Only completed sheets contribute; sheets still in progress are reported
// as pending. When display is set, the totals are also converted into that
// currency; a missing exchange rate leaves the display totals out with a
// warning rather than failing.
func (s *ReconciliationService) Summary(ctx context.Context, shopID uuid.UUID, date *time.Time, display *valueobject.Currency) (*SummaryResponse, error) {
	businessDate := s.resolveDate(date)

	var summary till.Summary
	status := till.SessionStatusNotStarted
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		sheets, err := repos.CountSheetRepo().ListForDay(ctx, shopID, businessDate)
		if err != nil {
			return err
		}
		session, err := findSession(ctx, repos, shopID, businessDate, false)
		if err != nil {
			return err
		}
		status = session.Status
		summary = till.Summarize(shopID, businessDate, sheets)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toSummaryResponse(summary, status)
	if display != nil {
		converted, err := s.convertTotals(ctx, shopID, summary, *display)
		if err != nil {
			resp.DisplayWarning = err.Error()
		} else {
			resp.Display = converted
		}
	}
	return &resp, nil
}

func (s *ReconciliationService) convertTotals(ctx context.Context, shopID uuid.UUID, summary till.Summary, to valueobject.Currency) (*CurrencyTotalsResponse, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("unsupported display currency %q", to)
	}
	if s.converter == nil {
		return nil, errors.New("exchange rates are not configured")
	}
	var expected, counted, variance decimal.Decimal
	for _, line := range summary.Totals {
		for _, pair := range []struct {
			sum *decimal.Decimal
			v   decimal.Decimal
		}{{&expected, line.Expected}, {&counted, line.Counted}, {&variance, line.Variance}} {
			if pair.v.IsZero() {
				continue
			}
			c, err := s.converter.Convert(ctx, shopID, pair.v, line.Currency, to, summary.BusinessDate)
			if err != nil {
				return nil, err
			}
			*pair.sum = pair.sum.Add(c)
		}
	}
	return &CurrencyTotalsResponse{
		Currency: to.String(),
		Expected: expected,
		Counted:  counted,
		Variance: variance,
	}, nil
}

// Complete finishes today's end of day. Under the exclusive day lock and in
// one transaction it archives every count sheet, marks the session
// COMPLETED and closes the business day, purging the day's sales. If
// archiving fails nothing is changed and the day stays OPEN. Without force,
// sheets still in progress fail the call with COUNTS_PENDING.
func (s *ReconciliationService) Complete(ctx context.Context, req CompleteReconciliationRequest) (*CompleteReconciliationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "complete")
	defer span.End()
	telemetry.SetAttributes(span,
		"shop_id", req.ShopID.String(),
		"force", req.Force,
	)

	if !req.Actor.Role.CanReconcile() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "only the shop owner or an admin may complete the end of day")
	}
	current, err := s.days.current(ctx, req.ShopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp CompleteReconciliationResponse
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		day, err := enterDay(ctx, repos, req.ShopID, current.Date, LockExclusive)
		if err != nil {
			return err
		}
		now := s.cfg.now()

		session, err := findSession(ctx, repos, req.ShopID, day.Date, true)
		if err != nil {
			return err
		}
		if !session.CanComplete() {
			return shared.NewDomainError(shared.CodeInvalidTransition,
				fmt.Sprintf("reconciliation for %s is %s; it must be started before it can be completed", day.Date.Format(time.DateOnly), session.Status))
		}

		sheets, err := repos.CountSheetRepo().ListForDay(ctx, req.ShopID, day.Date)
		if err != nil {
			return err
		}
		for i := range sheets {
			if err := applyLedgerExpectations(ctx, repos, &sheets[i]); err != nil {
				return err
			}
		}
		summary := till.Summarize(req.ShopID, day.Date, sheets)
		if summary.PendingSheets > 0 && !req.Force {
			return shared.NewDomainError(shared.CodeCountsPending,
				fmt.Sprintf("%d count sheet(s) not completed; complete them or force completion", summary.PendingSheets))
		}

		// archive before anything is purged
		archives := make([]*till.CountArchive, 0, len(sheets))
		for i := range sheets {
			archives = append(archives, till.SnapshotSheet(&sheets[i], session.ID, req.Actor.UserID, s.cfg.epsilon(), now))
		}
		if err := repos.ArchiveRepo().SnapshotAll(ctx, archives); err != nil {
			return shared.WrapDomainError(shared.CodeArchiveFailure,
				fmt.Sprintf("archiving count sheets for %s failed; business day remains %s", day.Date.Format(time.DateOnly), day.Status), err)
		}

		// forced sheets are archived, so they count toward the frozen totals
		frozen := summary
		if summary.PendingSheets > 0 {
			frozen = till.SummarizeAll(req.ShopID, day.Date, sheets)
		}
		if err := session.Complete(req.Actor.UserID, frozen, len(archives), req.Force, now); err != nil {
			return err
		}
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return err
		}
		if err := closeDay(ctx, repos, day, req.Actor.UserID, "closed by end-of-day reconciliation", now); err != nil {
			return err
		}

		resp.Session = ToSessionResponse(session)
		resp.Day = ToBusinessDayResponse(day)
		resp.Archives = make([]ArchiveResponse, 0, len(archives))
		for _, a := range archives {
			resp.Archives = append(resp.Archives, ToArchiveResponse(a))
		}
		events = drainEvents(session, day)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		logger.L(ctx).Warn("end of day completion failed",
			zap.String("shop_id", req.ShopID.String()),
			zap.String("code", shared.CodeOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	publish(ctx, s.eventBus, events)
	return &resp, nil
}

// MarkReconciled records the owner's audit of a completed day
func (s *ReconciliationService) MarkReconciled(ctx context.Context, shopID uuid.UUID, date time.Time, actor Actor) (*SessionResponse, error) {
	if !actor.Role.CanReconcile() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "only the shop owner or an admin may reconcile a day")
	}
	businessDate := till.DateOf(date)

	var resp SessionResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := repos.SessionRepo().FindForUpdate(ctx, shopID, businessDate)
		if err != nil {
			return err
		}
		if err := session.MarkReconciled(actor.UserID, s.cfg.now()); err != nil {
			return err
		}
		if err := repos.SessionRepo().Save(ctx, session); err != nil {
			return err
		}
		resp = ToSessionResponse(session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ArchivesForDay returns the archived counts of one day
func (s *ReconciliationService) ArchivesForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]ArchiveResponse, error) {
	var out []ArchiveResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		archives, err := repos.ArchiveRepo().ListForDay(ctx, shopID, till.DateOf(date))
		if err != nil {
			return err
		}
		out = ToArchiveResponses(archives)
		return nil
	})
	return out, err
}

// ListArchives queries archived counts, for example one cashier over a
// date range
func (s *ReconciliationService) ListArchives(ctx context.Context, shopID uuid.UUID, filter ArchiveListFilter) ([]ArchiveResponse, int64, error) {
	query := till.ArchiveQuery{
		CashierID: filter.CashierID,
		From:      filter.From,
		To:        filter.To,
		Status:    filter.Status,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}
	var out []ArchiveResponse
	var total int64
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		archives, n, err := repos.ArchiveRepo().Query(ctx, shopID, query)
		if err != nil {
			return err
		}
		out = ToArchiveResponses(archives)
		total = n
		return nil
	})
	return out, total, err
}

func (s *ReconciliationService) resolveDate(date *time.Time) time.Time {
	if date != nil {
		return till.DateOf(*date)
	}
	return s.cfg.today()
}
