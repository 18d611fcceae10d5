package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ShopLister lists the shops background jobs run for
type ShopLister interface {
	ShopIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TriggerConfig holds configuration for the daily rollover trigger
type TriggerConfig struct {
	// Schedule is a standard five-field cron expression evaluated in Location
	Schedule string
	Location *time.Location
	// CheckInterval is how often the clock is checked
	CheckInterval time.Duration
	// Now is the clock; nil means time.Now
	Now func() time.Time
}

// DefaultTriggerConfig runs five minutes past midnight UTC
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		Schedule:      "5 0 * * *",
		Location:      time.UTC,
		CheckInterval: 30 * time.Second,
	}
}

// ParseSchedule parses a standard cron expression ("5 0 * * *")
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("%w: cron expression %q: %v", ErrInvalidConfig, expr, err)
	}
	return schedule, nil
}

// RolloverTrigger submits a rollover job for every shop once a day, so an
// unclosed day is carried forward before the first sale of the morning
type RolloverTrigger struct {
	config    TriggerConfig
	schedule  cron.Schedule
	scheduler *Scheduler
	shops     ShopLister
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	next      time.Time
}

// NewRolloverTrigger creates a new trigger. It fails with ErrInvalidConfig
// when the schedule does not parse.
func NewRolloverTrigger(config TriggerConfig, scheduler *Scheduler, shops ShopLister, logger *zap.Logger) (*RolloverTrigger, error) {
	defaults := DefaultTriggerConfig()
	if config.Schedule == "" {
		config.Schedule = defaults.Schedule
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	schedule, err := ParseSchedule(config.Schedule)
	if err != nil {
		return nil, err
	}

	// the first due run is the first one of the current local day, so a
	// server started after the run time still rolls over that day
	now := config.Now().In(config.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, config.Location)

	return &RolloverTrigger{
		config:    config,
		schedule:  schedule,
		scheduler: scheduler,
		shops:     shops,
		logger:    logger,
		next:      schedule.Next(midnight.Add(-time.Second)),
	}, nil
}

// Start starts checking the clock
func (t *RolloverTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("rollover trigger started",
		zap.String("schedule", t.config.Schedule),
		zap.String("location", t.config.Location.String()),
		zap.Time("next", t.next),
	)
	return nil
}

// Stop stops the trigger
func (t *RolloverTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	t.cancel()
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *RolloverTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger fires on the first check at or after the next scheduled
// time. Missed runs collapse into one.
func (t *RolloverTrigger) checkAndTrigger(ctx context.Context) bool {
	now := t.config.Now().In(t.config.Location)

	t.mu.Lock()
	if now.Before(t.next) {
		t.mu.Unlock()
		return false
	}
	due := t.next
	t.next = t.schedule.Next(now)
	t.mu.Unlock()

	submitted, err := t.TriggerAll(ctx)
	if err != nil {
		t.logger.Error("rollover trigger failed", zap.Time("due", due), zap.Error(err))
		return true
	}
	t.logger.Info("rollover jobs submitted",
		zap.Time("due", due),
		zap.Int("shops", submitted),
		zap.Time("next", t.nextRun()),
	)
	return true
}

func (t *RolloverTrigger) nextRun() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// TriggerAll submits a rollover job for every shop and returns how many
// were queued
func (t *RolloverTrigger) TriggerAll(ctx context.Context) (int, error) {
	ids, err := t.shops.ShopIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list shops: %w", err)
	}
	submitted := 0
	for _, id := range ids {
		job := NewJob(id, JobKindRollover, t.scheduler.config.RetryAttempts)
		if err := t.scheduler.SubmitJob(job); err != nil {
			t.logger.Warn("rollover job not submitted", zap.String("shop_id", id.String()), zap.Error(err))
			continue
		}
		submitted++
	}
	return submitted, nil
}
