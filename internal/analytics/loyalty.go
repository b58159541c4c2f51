package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/google/uuid"
)

type Tier string

const (
	TierFrequent Tier = "frecuente"
	TierRegular  Tier = "regular"
)

const DefaultStepDelay = 100 * time.Millisecond

type CustomerTier struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Purchases  int    `json:"purchases"`
	Tier       Tier   `json:"tier"`
}

type LoyaltyResult struct {
	RunID      string         `json:"run_id"`
	Customers  []CustomerTier `json:"customers"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Listener receives run notifications on the run's goroutine. Nil fields are
// skipped. Exactly one of Complete, Cancel or Error is called per run.
type Listener struct {
	Progress func(percent int)
	Complete func(result LoyaltyResult)
	Cancel   func()
	Error    func(err error)
}

type LoyaltyOptions struct {
	StepDelay         time.Duration
	FrequentThreshold int
}

// LoyaltyTask recalculates customer tiers from invoiced orders.
type LoyaltyTask struct {
	customers CustomerLister
	orders    OrderLister
	clock     clock.Clock
	stepDelay time.Duration
	threshold int
}

func NewLoyaltyTask(customers CustomerLister, orders OrderLister, clk clock.Clock, opts LoyaltyOptions) *LoyaltyTask {
	if opts.StepDelay < 0 {
		opts.StepDelay = 0
	}
	if opts.FrequentThreshold <= 0 {
		opts.FrequentThreshold = DefaultFrequentThreshold
	}
	return &LoyaltyTask{
		customers: customers,
		orders:    orders,
		clock:     clk,
		stepDelay: opts.StepDelay,
		threshold: opts.FrequentThreshold,
	}
}

// Run is a handle on one recalculation started by LoyaltyTask.Start.
type Run struct {
	ID     string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result LoyaltyResult
	err    error
}

// Cancel stops the run at its next step. Calling it after the run ended has no effect.
func (r *Run) Cancel() {
	r.cancel()
}

func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run ends. A cancelled run returns context.Canceled
// or the deadline error of the parent context.
func (r *Run) Wait() (LoyaltyResult, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}

// Start launches a recalculation in the background.
func (t *LoyaltyTask) Start(ctx context.Context, listener Listener) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(run.done)
		defer cancel()

		result, err := t.execute(runCtx, run.ID, listener.Progress)

		run.mu.Lock()
		run.result, run.err = result, err
		run.mu.Unlock()

		switch {
		case err == nil:
			if listener.Complete != nil {
				listener.Complete(result)
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			if listener.Cancel != nil {
				listener.Cancel()
			}
		default:
			if listener.Error != nil {
				listener.Error(err)
			}
		}
	}()

	return run
}

func (t *LoyaltyTask) execute(ctx context.Context, runID string, progress func(int)) (LoyaltyResult, error) {
	result := LoyaltyResult{RunID: runID, StartedAt: t.clock.Now()}
	report := func(percent int) {
		if progress != nil {
			progress(percent)
		}
	}

	people, err := t.customers.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list customers: %w", err)
	}
	invoiced, err := invoicedOrders(ctx, t.orders)
	if err != nil {
		return result, err
	}
	counts, _ := purchaseCounts(invoiced)

	result.Customers = make([]CustomerTier, 0, len(people))
	total := len(people)
	if total == 0 {
		report(100)
		result.FinishedAt = t.clock.Now()
		return result, nil
	}

	for i, c := range people {
		if err := t.wait(ctx); err != nil {
			return result, err
		}

		n := counts[c.ID]
		tier := TierRegular
		if n >= t.threshold {
			tier = TierFrequent
		}
		result.Customers = append(result.Customers, CustomerTier{CustomerID: c.ID, Name: c.Name, Purchases: n, Tier: tier})

		report((i + 1) * 100 / total)
	}

	result.FinishedAt = t.clock.Now()
	return result, nil
}

func (t *LoyaltyTask) wait(ctx context.Context) error {
	if t.stepDelay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.stepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
