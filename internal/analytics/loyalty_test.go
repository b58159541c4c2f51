package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dejobratic/puravida/internal/analytics"
	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/clock"
	customers "github.com/dejobratic/puravida/internal/customers/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	progress  []int
	completed []analytics.LoyaltyResult
	cancelled int
	errs      []error
}

func (r *recorder) listener() analytics.Listener {
	return analytics.Listener{
		Progress: func(p int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.progress = append(r.progress, p)
		},
		Complete: func(res analytics.LoyaltyResult) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed = append(r.completed, res)
		},
		Cancel: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.cancelled++
		},
		Error: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func TestLoyaltyTask_Completes(t *testing.T) {
	f := newFixture(t)
	f.customer(t, "1", "Ana")
	f.customer(t, "2", "Luis")
	f.customer(t, "3", "Marta")
	f.customer(t, "4", "Pedro")
	for range 3 {
		f.order(t, "1", "Ana", true, map[catalog.Product]int{cafe: 1})
	}
	f.order(t, "2", "Luis", true, map[catalog.Product]int{cafe: 1})

	task := analytics.NewLoyaltyTask(f.customers, f.orders, clock.NewSystem(), analytics.LoyaltyOptions{})
	rec := &recorder{}

	run := task.Start(context.Background(), rec.listener())
	result, err := run.Wait()
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, run.ID, result.RunID)
	assert.Equal(t, []int{25, 50, 75, 100}, rec.progress)
	require.Len(t, rec.completed, 1)
	assert.Zero(t, rec.cancelled)
	assert.Empty(t, rec.errs)

	require.Len(t, result.Customers, 4)
	assert.Equal(t, analytics.CustomerTier{CustomerID: "1", Name: "Ana", Purchases: 3, Tier: analytics.TierFrequent}, result.Customers[0])
	assert.Equal(t, analytics.TierRegular, result.Customers[1].Tier)
	assert.Equal(t, 1, result.Customers[1].Purchases)
}

func TestLoyaltyTask_NoCustomersReportsFullProgress(t *testing.T) {
	f := newFixture(t)
	task := analytics.NewLoyaltyTask(f.customers, f.orders, clock.NewSystem(), analytics.LoyaltyOptions{StepDelay: time.Hour})
	rec := &recorder{}

	result, err := task.Start(context.Background(), rec.listener()).Wait()
	require.NoError(t, err)

	assert.Equal(t, []int{100}, rec.progress)
	assert.Empty(t, result.Customers)
	assert.Len(t, rec.completed, 1)
}

func TestLoyaltyTask_Cancel(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"1", "2", "3"} {
		f.customer(t, id, "Cliente "+id)
	}

	task := analytics.NewLoyaltyTask(f.customers, f.orders, clock.NewSystem(), analytics.LoyaltyOptions{StepDelay: time.Hour})
	rec := &recorder{}

	run := task.Start(context.Background(), rec.listener())
	run.Cancel()

	_, err := run.Wait()
	assert.ErrorIs(t, err, context.Canceled)

	run.Cancel()
	assert.Equal(t, 1, rec.cancelled)
	assert.Empty(t, rec.completed)
	assert.Empty(t, rec.progress)
}

func TestLoyaltyTask_ParentContextCancels(t *testing.T) {
	f := newFixture(t)
	f.customer(t, "1", "Ana")

	ctx, cancel := context.WithCancel(context.Background())
	task := analytics.NewLoyaltyTask(f.customers, f.orders, clock.NewSystem(), analytics.LoyaltyOptions{StepDelay: time.Hour})
	rec := &recorder{}

	run := task.Start(ctx, rec.listener())
	cancel()

	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after parent cancellation")
	}
	assert.Equal(t, 1, rec.cancelled)
}

type failingCustomers struct{}

func (failingCustomers) List(context.Context) ([]customers.Customer, error) {
	return nil, errors.New("registry offline")
}

func TestLoyaltyTask_ReportsErrors(t *testing.T) {
	f := newFixture(t)
	task := analytics.NewLoyaltyTask(failingCustomers{}, f.orders, clock.NewSystem(), analytics.LoyaltyOptions{})
	rec := &recorder{}

	_, err := task.Start(context.Background(), rec.listener()).Wait()
	require.Error(t, err)

	assert.Len(t, rec.errs, 1)
	assert.Empty(t, rec.completed)
	assert.Zero(t, rec.cancelled)
}
