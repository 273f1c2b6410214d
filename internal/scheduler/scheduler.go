package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"remindbot/internal/models"
	"remindbot/internal/utils"
)

// NotifyFunc delivers a reminder once its time has come.
type NotifyFunc func(ctx context.Context, rc models.ReminderContext)

// PendingStore lists reminders that still have to be delivered.
type PendingStore interface {
	ListReminders(ctx context.Context, f models.ReminderFilter) ([]models.Reminder, error)
}

// Scheduler arms one-time notification jobs on gocron. At most one job is
// armed per reminder key.
type Scheduler struct {
	cron   gocron.Scheduler
	clock  clockwork.Clock
	notify NotifyFunc
	log    *slog.Logger

	mu    sync.Mutex
	armed map[string]uuid.UUID
}

func New(clock clockwork.Clock, notify NotifyFunc, log *slog.Logger) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(time.UTC),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithError(func(jobID uuid.UUID, jobName string, err error) {
					log.Error("job failed", "job", jobName, "id", jobID, "err", err)
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{
		cron:   s,
		clock:  clock,
		notify: notify,
		log:    log,
		armed:  map[string]uuid.UUID{},
	}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}

// Schedule arms a notification for rc at the given instant. Instants that
// already passed fire as soon as the scheduler runs.
func (s *Scheduler) Schedule(at time.Time, rc models.ReminderContext) (uuid.UUID, error) {
	if err := rc.ValidateScheduled(); err != nil {
		return uuid.Nil, err
	}
	key := rc.Key()

	start := gocron.OneTimeJobStartImmediately()
	if at.After(s.clock.Now()) {
		start = gocron.OneTimeJobStartDateTime(at)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.armed[key]; ok {
		_ = s.cron.RemoveJob(old)
		delete(s.armed, key)
	}

	j, err := s.cron.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(s.fire, rc),
		gocron.WithName("remind "+key),
		gocron.WithTags("reminder"),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("arm reminder %q: %w", key, err)
	}
	s.armed[key] = j.ID()
	s.log.Info("reminder armed", "key", key, "at", at.UTC())
	return j.ID(), nil
}

func (s *Scheduler) fire(rc models.ReminderContext) {
	s.mu.Lock()
	delete(s.armed, rc.Key())
	s.mu.Unlock()

	s.notify(context.Background(), rc)
}

// Cancel disarms the notification armed for key, reporting whether one was.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.armed[key]
	if !ok {
		return false
	}
	delete(s.armed, key)
	if err := s.cron.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		s.log.Warn("remove job", "key", key, "err", err)
	}
	return true
}

// Armed is the number of notifications waiting to fire.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed)
}

// Every runs fn on a fixed interval.
func (s *Scheduler) Every(d time.Duration, name string, fn func()) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(d),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

// Recover re-arms every reminder that has not been delivered yet; armed
// jobs do not survive a restart. Rows whose stored context cannot be
// decoded are skipped.
func (s *Scheduler) Recover(ctx context.Context, store PendingStore) (int, error) {
	pending := false
	reminders, err := store.ListReminders(ctx, models.ReminderFilter{Expired: &pending})
	if err != nil {
		return 0, fmt.Errorf("list pending reminders: %w", err)
	}

	recovered := 0
	seen := make(map[string]bool, len(reminders))
	for _, r := range reminders {
		rc, err := r.Context()
		if err != nil {
			s.log.Warn("skipping reminder with malformed context", "id", r.ID, "err", err)
			continue
		}
		at, err := utils.ParseISO(rc.RemindDateISO)
		if err != nil {
			s.log.Warn("skipping reminder with malformed time", "id", r.ID, "err", err)
			continue
		}
		if seen[rc.Key()] {
			s.log.Warn("skipping duplicate reminder", "id", r.ID, "key", rc.Key())
			continue
		}
		if _, err := s.Schedule(at, rc); err != nil {
			s.log.Warn("skipping reminder", "id", r.ID, "err", err)
			continue
		}
		seen[rc.Key()] = true
		recovered++
	}
	s.log.Info("recovered reminders", "count", recovered)
	return recovered, nil
}
