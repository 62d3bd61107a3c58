/*
scheduler.go - Automated balance maintenance scheduler

PURPOSE:
  Periodically replays mortgage amortization schedules against recorded
  payments so the persisted remaining balances track the month roll
  without waiting for the next payment write.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips obligations that are not mortgages or carry no initial balance
  - Skips mortgages whose replayed balance already matches storage

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBalanceScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: recomputeBalance (the same replay, payment-write path)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// BalanceScheduler keeps persisted mortgage balances in step with
// recorded payments.
type BalanceScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBalanceScheduler creates a new scheduler.
func NewBalanceScheduler(handler *Handler) *BalanceScheduler {
	return &BalanceScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BalanceScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BalanceScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BalanceScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.checkAndProcess()

	for {
		select {
		case <-bs.ticker.C:
			bs.checkAndProcess()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BalanceScheduler) checkAndProcess() {
	ctx := context.Background()

	obligations, err := bs.Handler.Store.ListObligations(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing obligations: %v", err)
		return
	}

	processed := 0
	for _, o := range obligations {
		if !o.IsMortgage() || !o.InitialBalance.IsPositive() {
			continue
		}

		before := o.RemainingBalance
		if err := bs.Handler.recomputeBalance(ctx, o); err != nil {
			log.Printf("[Scheduler] Error replaying %s: %v", o.ID, err)
			continue
		}

		after, err := bs.Handler.Store.GetObligation(ctx, o.ID)
		if err != nil {
			continue
		}
		if !after.RemainingBalance.Equal(before) {
			log.Printf("[Scheduler] Replayed %s: balance %s -> %s",
				o.ID, before.StringFixed(2), after.RemainingBalance.StringFixed(2))
			processed++
		}
	}

	if processed > 0 {
		log.Printf("[Scheduler] Completed: %d balance(s) updated", processed)
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (bs *BalanceScheduler) RunNow() {
	bs.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (bs *BalanceScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(bs.CheckInterval)
}
