package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// Scheduler runs recurring background jobs on cron schedules.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.Mutex
	jobs      map[string]gocron.Job
}

// NewScheduler creates a stopped scheduler
func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		jobs:      make(map[string]gocron.Job),
	}, nil
}

// ValidateCronExpression parses a standard 5-field cron expression and
// returns its next fire time.
func ValidateCronExpression(expression string) (time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return schedule.Next(time.Now()), nil
}

// AddCronJob registers a named task on the given cron schedule.
func (s *Scheduler) AddCronJob(name, expression string, task func()) error {
	nextRun, err := ValidateCronExpression(expression)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.scheduler.NewJob(
		gocron.CronJob(expression, false),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %q: %w", name, err)
	}

	s.jobs[name] = job
	log.Printf("📅 Registered job %q (cron: %s, next run: %s)",
		name, expression, nextRun.Format(time.RFC3339))
	return nil
}

// Start begins executing registered jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Printf("✅ Scheduler started with %d job(s)", len(s.jobs))
}

// Stop shuts the scheduler down and waits for running jobs
func (s *Scheduler) Stop() error {
	log.Println("⏹️ Stopping scheduler...")
	return s.scheduler.Shutdown()
}
