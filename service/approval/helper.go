package approval

import (
	"context"
	"time"
)

// DecisionFunc decides what to do with a pending action.
// Return (true,  "") to approve
//
//	(false, "…") to reject with reason.
type DecisionFunc func(a *PendingAction) (approved bool, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every action.  It returns stop() – call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context,
	svc Service,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				actions, _ := svc.ListPending(ctx)
				for _, a := range actions {
					ok, reason := fn(a)
					_, _ = svc.Decide(ctx, a.ID, ok, "auto", reason)
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending actions.
func AutoApprove(ctx context.Context,
	svc Service,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*PendingAction) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending actions with the given reason.
func AutoReject(ctx context.Context,
	svc Service,
	reason string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*PendingAction) (bool, string) { return false, reason }, interval)
}

// AutoExpire periodically persists the expired status on overdue pending
// actions. Expiry normally happens lazily on read; this poller is for
// deployments that want eager normalization. Nothing starts it by default.
func AutoExpire(ctx context.Context, svc Service, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Minute
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_, _ = svc.ExpireOverdue(ctx)
			}
		}
	}()
	return func() { close(done) }
}
