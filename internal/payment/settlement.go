package payment

import (
	"context"
	"errors"
	"sync"
	"time"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var ErrSettleTimeout = errors.New("payment not settled in time")

type settled struct {
	status Status
	at     time.Time
}

// Settlements hands webhook results to whoever waits on an intent. A signal
// that arrives before anyone waits is kept until Forget or Prune.
type Settlements struct {
	mu      sync.Mutex
	done    map[string]settled
	waiters map[string][]chan Status
	timeout time.Duration
	now     func() time.Time
}

func NewSettlements(timeout time.Duration) *Settlements {
	return &Settlements{
		done:    make(map[string]settled),
		waiters: make(map[string][]chan Status),
		timeout: timeout,
		now:     time.Now,
	}
}

// Signal records the outcome for intentID and wakes every waiter. Later
// signals for the same intent overwrite the stored status.
func (s *Settlements) Signal(intentID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[intentID] = settled{status: status, at: s.now()}
	for _, ch := range s.waiters[intentID] {
		ch <- status
	}
	delete(s.waiters, intentID)
}

// Wait blocks until intentID is signalled, the timeout passes or ctx ends.
func (s *Settlements) Wait(ctx context.Context, intentID string) (Status, error) {
	s.mu.Lock()
	if d, ok := s.done[intentID]; ok {
		s.mu.Unlock()
		return d.status, nil
	}
	ch := make(chan Status, 1)
	s.waiters[intentID] = append(s.waiters[intentID], ch)
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		s.drop(intentID, ch)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrSettleTimeout
		}
		return "", ctx.Err()
	}
}

func (s *Settlements) drop(intentID string, ch chan Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.waiters[intentID]
	for i, c := range list {
		if c == ch {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(s.waiters, intentID)
	} else {
		s.waiters[intentID] = list
	}
}

// Forget discards a stored outcome once it has been consumed.
func (s *Settlements) Forget(intentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.done, intentID)
}

// Prune drops outcomes recorded before cutoff and reports how many went.
func (s *Settlements) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, d := range s.done {
		if d.at.Before(cutoff) {
			delete(s.done, id)
			n++
		}
	}
	return n
}
