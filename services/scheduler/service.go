package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/robfig/cron/v3"
)

var (
	ErrAlreadyRunning = errors.New("task is already running")
	ErrTaskNotFound   = errors.New("task not found")
)

// FeedRefresher refetches the browse feeds from the external catalogs.
type FeedRefresher interface {
	RefreshFeeds(ctx context.Context) error
}

// SessionCleaner drops expired sessions, returning how many were removed.
type SessionCleaner interface {
	Cleanup() int
}

// TaskStatus is the last known outcome of a scheduled task.
type TaskStatus struct {
	Name      string     `json:"name"`
	Running   bool       `json:"running"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

const (
	TaskFeedRefresh    = "feed-refresh"
	TaskSessionCleanup = "session-cleanup"

	// feedRefreshSpec runs nightly at 04:30, after the external catalogs
	// have rolled over their daily lists.
	feedRefreshSpec = "30 4 * * *"
	// sessionCleanupSpec runs hourly.
	sessionCleanupSpec = "15 * * * *"

	refreshAttempts = 3
	refreshTimeout  = 5 * time.Minute
)

// Service runs the recurring maintenance tasks on a cron schedule: the
// nightly feed refresh and the hourly session cleanup.
type Service struct {
	feeds    FeedRefresher
	sessions SessionCleaner

	cron *cron.Cron
	// retryDelay is the base backoff between refresh attempts.
	retryDelay time.Duration

	mu      sync.Mutex
	running map[string]bool
	status  map[string]*TaskStatus
}

// NewService wires the cron runner. Start must be called to begin scheduling.
func NewService(feeds FeedRefresher, sessions SessionCleaner) *Service {
	return &Service{
		feeds:      feeds,
		sessions:   sessions,
		cron:       cron.New(),
		retryDelay: 30 * time.Second,
		running:    make(map[string]bool),
		status: map[string]*TaskStatus{
			TaskFeedRefresh:    {Name: TaskFeedRefresh},
			TaskSessionCleanup: {Name: TaskSessionCleanup},
		},
	}
}

// Start registers the cron entries and begins the scheduler.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(feedRefreshSpec, func() { s.run(TaskFeedRefresh) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(sessionCleanupSpec, func() { s.run(TaskSessionCleanup) }); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[scheduler] started")
	return nil
}

// Stop halts the scheduler and waits for any in-flight task, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		log.Println("[scheduler] stopped")
	case <-ctx.Done():
		log.Println("[scheduler] stopped (timeout waiting for tasks)")
	}
}

// RunTaskNow triggers a task outside its schedule.
func (s *Service) RunTaskNow(name string) error {
	s.mu.Lock()
	if _, ok := s.status[name]; !ok {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	if s.running[name] {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.mu.Unlock()

	go s.run(name)
	return nil
}

// Status reports every task with its current state.
func (s *Service) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.status))
	for name, st := range s.status {
		entry := *st
		entry.Running = s.running[name]
		out = append(out, entry)
	}
	return out
}

func (s *Service) run(name string) {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	log.Printf("[scheduler] executing task=%s", name)

	var err error
	switch name {
	case TaskFeedRefresh:
		err = s.refreshFeeds()
	case TaskSessionCleanup:
		removed := s.sessions.Cleanup()
		log.Printf("[scheduler] session cleanup removed=%d", removed)
	default:
		err = ErrTaskNotFound
	}

	now := time.Now().UTC()
	s.mu.Lock()
	st := s.status[name]
	st.LastRunAt = &now
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("[scheduler] task failed name=%s err=%v", name, err)
	}
}

// refreshFeeds retries a few times with backoff; the external catalogs have
// transient bad minutes at night.
func (s *Service) refreshFeeds() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	return retry.Do(
		func() error { return s.feeds.RefreshFeeds(ctx) },
		retry.Attempts(refreshAttempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}
