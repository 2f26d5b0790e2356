// Package scheduler runs the background jobs of the cabinet: retrying slots whose last
// write failed, and the daily backup of the data directory.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/cabinet/entities"
	"github.com/giygas/cabinet/interfaces"
	"github.com/giygas/cabinet/logging"
	"github.com/giygas/cabinet/metrics"
	"github.com/giygas/cabinet/store"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Syncer is the part of the controller the resync job drives.
type Syncer interface {
	PendingWrites() []entities.Slot
	Sync() error
}

// Config tells the scheduler when to run each job.
type Config struct {
	SyncInterval time.Duration
	BackupAt     string // HH:MM
	BackupDir    string
	BackupKeep   int
}

// Scheduler wraps gocron with the resync and backup jobs.
type Scheduler struct {
	syncer    Syncer
	backupper interfaces.Backupper
	cfg       Config
	scheduler *gocron.Scheduler
	now       func() time.Time

	mu sync.Mutex // serializes backups
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(syncer Syncer, backupper interfaces.Backupper, cfg Config) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()
	return &Scheduler{
		syncer:    syncer,
		backupper: backupper,
		cfg:       cfg,
		scheduler: s,
		now:       time.Now,
	}
}

// Start registers both jobs and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.SyncInterval).WaitForSchedule().Do(s.resync); err != nil {
		logging.Error("Failed to schedule resync", "error", err)
		return fmt.Errorf("failed to schedule resync: %w", err)
	}

	if _, err := s.scheduler.Every(1).Day().At(s.cfg.BackupAt).Do(func() {
		if _, err := s.RunBackup(); err != nil {
			logging.Error("Scheduled backup failed", "error", err)
		}
	}); err != nil {
		logging.Error("Failed to schedule backup", "error", err)
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "sync_interval", s.cfg.SyncInterval.String(), "backup_at", s.cfg.BackupAt)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// resync retries the pending slots, if any.
func (s *Scheduler) resync() {
	pending := s.syncer.PendingWrites()
	if len(pending) == 0 {
		return
	}

	logging.Info("Retrying pending slots", "slots", pending)
	if err := s.syncer.Sync(); err != nil {
		logging.Warn("Slots still pending after retry", "error", err)
	}
}

// RunBackup copies the slots to a new backup directory and prunes old ones.
func (s *Scheduler) RunBackup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.backupper.Backup(s.cfg.BackupDir, s.now())
	if err != nil {
		metrics.BackupsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("backup failed: %w", err)
	}
	metrics.BackupsTotal.WithLabelValues("ok").Inc()

	removed, err := store.PruneBackups(s.cfg.BackupDir, s.cfg.BackupKeep)
	if err != nil {
		return dir, fmt.Errorf("backup written but pruning failed: %w", err)
	}
	if removed > 0 {
		logging.Info("Old backups pruned", "removed", removed, "keep", s.cfg.BackupKeep)
	}
	return dir, nil
}
