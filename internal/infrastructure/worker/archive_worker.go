package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

// Archiver stores a settlement register and returns where it went
type Archiver interface {
	ArchiveRegister(ctx context.Context, module entity.Module, status workflow.State) (string, error)
}

// ArchiveWorker periodically archives the register of every module
type ArchiveWorker struct {
	archiver Archiver
	interval time.Duration
	status   workflow.State
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	runs     int
	failures int
}

// NewArchiveWorker creates an archive worker. status filters the registers ("" for all requests).
func NewArchiveWorker(archiver Archiver, interval time.Duration, status workflow.State, logger *zap.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		archiver: archiver,
		interval: interval,
		status:   status,
		logger:   logger,
	}
}

// Name returns the worker name for identification
func (w *ArchiveWorker) Name() string {
	return "ArchiveWorker"
}

// Start launches the archive loop
func (w *ArchiveWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("archive interval must be positive")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("archive worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	w.logger.Info("ArchiveWorker started", zap.Duration("interval", w.interval))
	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight archive run to finish
func (w *ArchiveWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("ArchiveWorker stopped", zap.Int("runs", w.runs), zap.Int("failures", w.failures))
	return nil
}

func (w *ArchiveWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.archiveAll(ctx)
		}
	}
}

// archiveAll runs one pass over every module; a failing module does not stop the others
func (w *ArchiveWorker) archiveAll(ctx context.Context) {
	for _, module := range entity.Modules() {
		if ctx.Err() != nil {
			return
		}
		path, err := w.archiver.ArchiveRegister(ctx, module, w.status)

		w.mu.Lock()
		w.runs++
		if err != nil {
			w.failures++
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Error("Scheduled register archive failed",
				zap.String("module", string(module)),
				zap.Error(err))
			continue
		}
		w.logger.Info("Register archived", zap.String("module", string(module)), zap.String("path", path))
	}
}
