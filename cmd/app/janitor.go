package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront/internal/cart"
	"github.com/wichananm65/storefront/internal/idempotency"
	"github.com/wichananm65/storefront/internal/payment"
)

const (
	janitorInterval = time.Hour
	guestCartTTL    = 30 * 24 * time.Hour
	settlementTTL   = 24 * time.Hour
)

// runJanitor drops abandoned guest carts, the merge records that went with
// them and settlement signals nobody waited for. guests may be nil when carts
// are kept in memory.
func runJanitor(ctx context.Context, log *logrus.Logger, guests *cart.PostgresGuestStore, keys idempotency.Purger, settlements *payment.Settlements) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if guests != nil {
				n, err := guests.PurgeBefore(ctx, now.Add(-guestCartTTL))
				if err != nil {
					log.WithError(err).Error("purging guest carts")
				} else if n > 0 {
					log.WithField("count", n).Info("purged stale guest carts")
				}
			}
			// a purged guest row restarts its revision, so its merge keys go too
			if n, err := keys.PurgeBefore(ctx, idempotency.ScopeCartMerge, now.Add(-guestCartTTL)); err != nil {
				log.WithError(err).Error("purging merge records")
			} else if n > 0 {
				log.WithField("count", n).Info("purged stale merge records")
			}
			if n := settlements.Prune(now.Add(-settlementTTL)); n > 0 {
				log.WithField("count", n).Debug("pruned settlement signals")
			}
		}
	}
}
