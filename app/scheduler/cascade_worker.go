// Package scheduler runs the background workers of the pricing service
package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/amirphl/Kusanagi/app/services"
	businessflow "github.com/amirphl/Kusanagi/business_flow"
	"github.com/amirphl/Kusanagi/config"
	"github.com/amirphl/Kusanagi/models"
	"gopkg.in/natefinch/lumberjack.v2"
)

const consumeRetryDelay = time.Second

// CascadeWorker consumes change events and runs the recalculation cascade for each
type CascadeWorker struct {
	bus     services.EventBus
	cascade businessflow.CascadeFlow
	timeout time.Duration
	logger  *log.Logger
	logFile io.Closer

	processed int
	mu        sync.Mutex
}

// NewCascadeWorker creates a worker logging to stdout and, when a cascade log path
// is configured, to a rotating file
func NewCascadeWorker(bus services.EventBus, cascade businessflow.CascadeFlow, timeout time.Duration, logCfg config.LoggingConfig) *CascadeWorker {
	w := NewCascadeWorkerWithLogger(bus, cascade, timeout, nil)
	w.initWorkerLogger(logCfg)
	return w
}

// NewCascadeWorkerWithLogger creates a worker with an explicit logger
func NewCascadeWorkerWithLogger(bus services.EventBus, cascade businessflow.CascadeFlow, timeout time.Duration, logger *log.Logger) *CascadeWorker {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = log.New(os.Stdout, "cascade ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
	}
	return &CascadeWorker{
		bus:     bus,
		cascade: cascade,
		timeout: timeout,
		logger:  logger,
	}
}

func (w *CascadeWorker) initWorkerLogger(cfg config.LoggingConfig) {
	if cfg.CascadeLogPath == "" || cfg.Output == "stdout" {
		return
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.CascadeLogPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	w.logFile = rotating

	var out io.Writer = rotating
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotating)
	}
	w.logger = log.New(out, "cascade ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the consume loop in a background goroutine and returns a stop
// function that waits for the in-flight cascade to finish
func (w *CascadeWorker) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			err := w.bus.Consume(ctx, w.Handle)
			if ctx.Err() != nil || errors.Is(err, services.ErrEventBusClosed) {
				w.logger.Printf("cascade worker: stopped after %d events", w.Processed())
				return
			}
			w.logger.Printf("cascade worker: consume failed, retrying in %s: %v", consumeRetryDelay, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(consumeRetryDelay):
			}
		}
	}()

	return func() {
		cancel()
		<-done
		if w.logFile != nil {
			_ = w.logFile.Close()
		}
	}
}

// Handle runs one cascade. Partial failures are logged; only a cascade that
// could not start is returned as an error.
func (w *CascadeWorker) Handle(ctx context.Context, event models.ChangeEvent) error {
	cctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	res, err := w.cascade.CascadeFrom(cctx, event)
	w.mu.Lock()
	w.processed++
	w.mu.Unlock()
	if err != nil {
		w.logger.Printf("cascade worker: %s (%s) failed: %v", event.Key(), event.ID, err)
		return err
	}

	w.logger.Printf("cascade worker: %s (%s) recalculated=%d failed=%d waves=%d in %s",
		event.Key(), event.ID, res.Recalculated, res.Failed, res.Waves, time.Since(start).Round(time.Millisecond))
	if res.Failed > 0 {
		w.logger.Printf("cascade worker: %s failed records: %v", event.Key(), res.FailedRecordIDs)
	}
	return nil
}

// Processed returns the number of events handled so far
func (w *CascadeWorker) Processed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processed
}
