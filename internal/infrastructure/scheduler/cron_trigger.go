package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the daily trigger
type CronTriggerConfig struct {
	DailyHour   int
	DailyMinute int

	// CheckInterval is how often the clock is checked
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig runs daily tasks at 02:00
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyHour:     2,
		DailyMinute:   0,
		CheckInterval: time.Minute,
	}
}

// ParseDailyRunAt parses an HH:MM time of day into a trigger configuration
func ParseDailyRunAt(value string) (CronTriggerConfig, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return CronTriggerConfig{}, fmt.Errorf("%w: daily run time %q must be HH:MM", ErrInvalidConfig, value)
	}
	cfg := DefaultCronTriggerConfig()
	cfg.DailyHour = t.Hour()
	cfg.DailyMinute = t.Minute()
	return cfg, nil
}

// CronTrigger submits the registered daily tasks to the scheduler once a day
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
	tasks       []Task
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger.Named("cron"),
		now:       time.Now,
	}
}

// RegisterDaily adds a task that runs once per day
func (c *CronTrigger) RegisterDaily(task Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, task)
}

// Start starts the clock loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("cron trigger started",
		zap.Int("daily_hour", c.config.DailyHour),
		zap.Int("daily_minute", c.config.DailyMinute),
	)
	return nil
}

// Stop stops the clock loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the daily tasks when the configured minute is reached,
// at most once per calendar day
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	today := now.Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == today || now.Hour() != c.config.DailyHour || now.Minute() != c.config.DailyMinute {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = today
	tasks := append([]Task(nil), c.tasks...)
	c.mu.Unlock()

	c.submit(tasks)
	return true
}

// TriggerNow submits the named daily task, or all of them when name is empty
func (c *CronTrigger) TriggerNow(name string) error {
	c.mu.Lock()
	tasks := append([]Task(nil), c.tasks...)
	c.mu.Unlock()

	if name == "" {
		return c.submit(tasks)
	}
	for _, t := range tasks {
		if t.Name() == name {
			return c.submit([]Task{t})
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownTask, name)
}

func (c *CronTrigger) submit(tasks []Task) error {
	var firstErr error
	for _, t := range tasks {
		if _, err := c.scheduler.Submit(t); err != nil {
			c.logger.Error("failed to submit daily task", zap.String("task", t.Name()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
