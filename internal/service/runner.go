package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTickInterval = 1 * time.Second
	defaultConcurrency  = 8
)

// RunResult summarizes one pass of the runner over all agents.
type RunResult struct {
	Agents   int `json:"agents"`
	Executed int `json:"executed"`
	Achieved int `json:"achieved"`
	Failures int `json:"failures"`
}

// Runner ticks every registered agent on a fixed interval. Agents share no state, so
// a pass ticks them in parallel; the registry's per-agent lock keeps API calls from
// interleaving with a tick.
type Runner struct {
	registry    *Registry
	logger      *zap.Logger
	interval    time.Duration
	concurrency int

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	totals RunnerStats
}

// RunnerStats accumulates pass results since the runner was created.
type RunnerStats struct {
	Passes   int64 `json:"passes"`
	Executed int64 `json:"executed"`
	Achieved int64 `json:"achieved"`
	Failures int64 `json:"failures"`
}

func NewRunner(reg *Registry, logger *zap.Logger) *Runner {
	return &Runner{
		registry:    reg,
		logger:      logger,
		interval:    DefaultTickInterval,
		concurrency: defaultConcurrency,
		stopCh:      make(chan struct{}),
	}
}

func (r *Runner) SetInterval(d time.Duration) {
	if d > 0 {
		r.interval = d
	}
}

// SetConcurrency bounds how many agents tick at once.
func (r *Runner) SetConcurrency(n int) {
	if n > 0 {
		r.concurrency = n
	}
}

func (r *Runner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info("tick runner started", zap.Duration("interval", r.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), r.passTimeout())
				r.RunOnce(ctx)
				cancel()
			case <-r.stopCh:
				r.logger.Info("tick runner stopped")
				return
			}
		}
	}()
}

func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Runner) Stats() RunnerStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals
}

// passTimeout keeps a slow pass from overlapping the next one by much.
func (r *Runner) passTimeout() time.Duration {
	return max(r.interval*4, DefaultActionTimeout)
}

// RunOnce ticks every registered agent once.
func (r *Runner) RunOnce(ctx context.Context) *RunResult {
	ids := r.registry.IDs()
	result := &RunResult{Agents: len(ids)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			report, err := r.registry.Tick(gctx, id)
			if err != nil {
				if !errors.Is(err, ErrAgentNotFound) {
					r.logger.Error("tick failed",
						zap.String("agent_id", id.String()),
						zap.Error(err))
				}
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if report.Executed != "" {
				result.Executed++
			}
			result.Achieved += len(report.Achieved)
			for _, e := range report.Events {
				if e.Error != "" {
					result.Failures++
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	r.totals.Passes++
	r.totals.Executed += int64(result.Executed)
	r.totals.Achieved += int64(result.Achieved)
	r.totals.Failures += int64(result.Failures)
	r.mu.Unlock()

	if result.Executed > 0 || result.Achieved > 0 || result.Failures > 0 {
		r.logger.Debug("tick pass complete",
			zap.Int("agents", result.Agents),
			zap.Int("executed", result.Executed),
			zap.Int("achieved", result.Achieved),
			zap.Int("failures", result.Failures))
	}
	return result
}
