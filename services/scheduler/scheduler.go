package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"sjsage522/auctionwatcher/helpers"
	"sjsage522/auctionwatcher/internal/metrics"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	once     bool
	task     Task

	next    time.Time
	lastRun time.Time
	lastErr error
	runs    int
}

// Scheduler runs due tasks inline from a single polling loop. Tasks never run
// concurrently with each other.
type Scheduler struct {
	mu   sync.Mutex
	jobs []*job

	poll    time.Duration
	running atomic.Bool
	now     func() time.Time

	logger  helpers.LoggerInterface
	log     *logger.Logger
	metrics metrics.Recorder
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithMetrics records every task execution.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New creates a scheduler that checks for due tasks every poll. Task errors
// are reported to errLog.
func New(poll time.Duration, errLog helpers.LoggerInterface, opts ...Option) *Scheduler {
	if poll <= 0 {
		poll = time.Minute
	}
	log := logger.ForScheduler()
	if errLog == nil {
		errLog = log
	}
	s := &Scheduler{
		poll:    poll,
		now:     time.Now,
		logger:  errLog,
		log:     log,
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Every registers task to run every interval, first after one interval.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.add(&job{name: name, interval: interval, task: task})
}

// Once registers task to run after delay. It is removed after its first
// successful run; a failed run is retried delay later.
func (s *Scheduler) Once(name string, delay time.Duration, task Task) {
	s.add(&job{name: name, interval: delay, once: true, task: task})
}

func (s *Scheduler) add(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.next = s.now().Add(j.interval)
	s.jobs = append(s.jobs, j)
}

// Start runs the polling loop until ctx is done or Stop is called. An
// in-flight task always runs to completion.
func (s *Scheduler) Start(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	s.log.Info().Dur("poll", s.poll).Int("jobs", s.jobCount()).Msg("Scheduler started")
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for s.running.Load() {
		s.RunPending(ctx)

		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scheduler stopping")
			return
		case <-ticker.C:
		}
	}
	s.log.Info().Msg("Scheduler stopped")
}

// Stop asks the loop to exit on its next wake.
func (s *Scheduler) Stop() {
	s.running.Store(false)
}

// RunPending runs every task that is due, in registration order.
func (s *Scheduler) RunPending(ctx context.Context) {
	for _, j := range s.due() {
		if ctx.Err() != nil {
			return
		}
		s.run(ctx, j)
	}
}

func (s *Scheduler) due() []*job {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []*job
	for _, j := range s.jobs {
		if !j.next.After(now) {
			out = append(out, j)
		}
	}
	return out
}

func (s *Scheduler) run(ctx context.Context, j *job) {
	start := s.now()
	err := safeRun(ctx, j.task)
	elapsed := s.now().Sub(start)
	s.metrics.RecordTask(j.name, err)

	if err != nil {
		s.logger.LogError(j.name, apperrors.NewSchedulerTask(j.name, err))
	} else {
		s.log.Debug().Str("task", j.name).Dur("elapsed", elapsed).Msg("Task finished")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	j.runs++
	j.lastRun = start
	j.lastErr = err
	j.next = s.now().Add(j.interval)
	if j.once && err == nil {
		s.remove(j)
	}
}

func (s *Scheduler) remove(target *job) {
	for i, j := range s.jobs {
		if j == target {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return
		}
	}
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}

func (s *Scheduler) jobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// TaskStatus describes one registered task.
type TaskStatus struct {
	Name      string     `json:"name"`
	Interval  string     `json:"interval"`
	Once      bool       `json:"once,omitempty"`
	NextRun   time.Time  `json:"next_run"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Runs      int        `json:"runs"`
}

// Status is a snapshot of the scheduler.
type Status struct {
	Running bool         `json:"running"`
	Jobs    int          `json:"scheduled_jobs"`
	NextRun *time.Time   `json:"next_run,omitempty"`
	Tasks   []TaskStatus `json:"tasks"`
}

// Status reports the registered tasks and the soonest next run.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.running.Load(), Jobs: len(s.jobs), Tasks: make([]TaskStatus, 0, len(s.jobs))}
	for _, j := range s.jobs {
		ts := TaskStatus{
			Name:     j.name,
			Interval: j.interval.String(),
			Once:     j.once,
			NextRun:  j.next,
			Runs:     j.runs,
		}
		if !j.lastRun.IsZero() {
			last := j.lastRun
			ts.LastRun = &last
		}
		if j.lastErr != nil {
			ts.LastError = j.lastErr.Error()
		}
		st.Tasks = append(st.Tasks, ts)

		if st.NextRun == nil || j.next.Before(*st.NextRun) {
			next := j.next
			st.NextRun = &next
		}
	}
	return st
}
