/*
Package scheduler drives periodic evaluation of grant schedules.

PURPOSE:
  Runs the recurring-grant pass on a cron cadence: list every tracker
  row that is due today, call the evaluator on each, and forward
  emitted grants to the grant log. The engine itself decides whether a
  row fires; this package only supplies the heartbeat.

DESIGN:
  - robfig/cron with SkipIfStillRunning: a slow pass is never overlapped
    by the next tick
  - Per-row isolation: one bad row is logged and skipped, the pass
    continues; an invariant violation is operator-visible, never
    surfaced to employees
  - ErrConcurrentModification counts as a skip: another worker process
    won the row, which is expected when passes run distributed

USAGE:
  s := scheduler.New(policies, evaluator)
  s.Start("@hourly")
  // ... later
  s.Stop()

SEE ALSO:
  - vacation/tracker.go: EvaluateAndAdvance semantics
*/
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/warp/vacation-engine/vacation"
)

// Scheduler periodically evaluates due grant schedules.
type Scheduler struct {
	Policies  vacation.PolicyStore
	Evaluator *vacation.Evaluator

	// TodayFn supplies the evaluation date; tests pin it.
	TodayFn func() vacation.TimePoint

	mu   sync.Mutex
	cron *cron.Cron
}

// PassSummary reports one scheduler pass for logs and the admin API.
type PassSummary struct {
	Evaluated int `json:"evaluated"`
	Granted   int `json:"granted"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func New(policies vacation.PolicyStore, evaluator *vacation.Evaluator) *Scheduler {
	return &Scheduler{
		Policies:  policies,
		Evaluator: evaluator,
		TodayFn:   vacation.Today,
	}
}

// Start begins periodic passes on the given cron spec (e.g. "@hourly").
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := c.AddFunc(spec, func() {
		s.RunPass(context.Background())
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c

	log.Printf("[Scheduler] Started with spec %q", spec)
	return nil
}

// Stop halts the cron loop, waiting for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
		log.Println("[Scheduler] Stopped")
	}
}

// RunPass evaluates every due tracker row once. Safe to call directly
// (admin trigger) as well as from the cron loop.
func (s *Scheduler) RunPass(ctx context.Context) PassSummary {
	today := s.TodayFn()
	var summary PassSummary

	due, err := s.Evaluator.Schedules.ListDue(ctx, today)
	if err != nil {
		log.Printf("[Scheduler] Error listing due schedules: %v", err)
		summary.Failed++
		return summary
	}

	for _, row := range due {
		summary.Evaluated++

		policy, err := s.Policies.Get(ctx, row.PolicyID)
		if err != nil {
			log.Printf("[Scheduler] Error loading policy %s for %s: %v", row.PolicyID, row.EmployeeID, err)
			summary.Failed++
			continue
		}

		grant, err := s.Evaluator.EvaluateAndAdvance(ctx, policy, row, today)
		switch {
		case errors.Is(err, vacation.ErrConcurrentModification):
			// Another worker advanced this row first.
			summary.Skipped++
		case vacation.IsInvariantViolation(err):
			// Bug upstream; the row is untouched for inspection.
			log.Printf("[Scheduler] INVARIANT VIOLATION for %s/%s: %v", row.EmployeeID, row.PolicyID, err)
			summary.Failed++
		case err != nil:
			log.Printf("[Scheduler] Error evaluating %s/%s: %v", row.EmployeeID, row.PolicyID, err)
			summary.Failed++
		case grant == nil:
			summary.Skipped++
		default:
			summary.Granted++
		}
	}

	if summary.Evaluated > 0 {
		log.Printf("[Scheduler] Pass complete: %d evaluated, %d granted, %d skipped, %d failed",
			summary.Evaluated, summary.Granted, summary.Skipped, summary.Failed)
	}
	return summary
}
