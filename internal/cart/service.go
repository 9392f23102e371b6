package cart

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/wichananm65/storefront/internal/idempotency"
	"github.com/wichananm65/storefront/internal/pricing"
)

// Service resolves and mutates carts for guests and signed-in users.
type Service struct {
	guests   GuestStore
	remote   RemoteStore
	hydrator *Hydrator
	pricing  pricing.Calculator
	keys     idempotency.Store
	flight   singleflight.Group
	log      *logrus.Logger
}

func NewService(guests GuestStore, remote RemoteStore, hydrator *Hydrator, calc pricing.Calculator, keys idempotency.Store, log *logrus.Logger) *Service {
	return &Service{guests: guests, remote: remote, hydrator: hydrator, pricing: calc, keys: keys, log: log}
}

// repositoryFor selects the backend from the authentication state.
func (s *Service) repositoryFor(o Owner) (Repository, error) {
	if o.Authenticated() {
		return &remoteRepository{store: s.remote, userID: o.UserID}, nil
	}
	if o.GuestID == "" {
		return nil, ErrNoOwner
	}
	return &guestRepository{store: s.guests, guestID: o.GuestID}, nil
}

// Reconcile produces the single cart view for o. For a signed-in user with a
// non-empty guest cart the guest lines are added to the server cart first and
// the guest cart is cleared; the view is built only after that completes.
func (s *Service) Reconcile(ctx context.Context, o Owner) (View, error) {
	if !o.Authenticated() {
		if o.GuestID == "" {
			return s.view(ctx, guestCart(nil), true), nil
		}
		lines, err := s.guests.Load(ctx, o.GuestID)
		if err != nil {
			s.log.WithError(err).WithField("guest_id", o.GuestID).Error("loading guest cart failed")
			return View{}, err
		}
		return s.view(ctx, guestCart(lines), true), nil
	}

	var (
		guestLines []Line
		rev        int64
	)
	if o.GuestID != "" {
		lines, r, err := s.guests.Snapshot(ctx, o.GuestID)
		if err != nil {
			s.log.WithError(err).WithField("guest_id", o.GuestID).Warn("guest cart unreadable, skipping merge")
		} else {
			guestLines, rev = lines, r
		}
	}

	var (
		c   *Cart
		err error
	)
	if len(guestLines) > 0 {
		c, err = s.merge(ctx, o, guestLines, rev)
	} else {
		c, err = s.remote.Cart(ctx)
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", o.UserID).Error("resolving server cart failed")
		return View{}, err
	}
	return s.view(ctx, c, false), nil
}

// merge applies the guest lines to the server cart additively. The key is a
// function of user, guest id, guest cart revision and the exact lines, so a
// retry of the same merge (or a concurrent duplicate) is not applied twice
// while a later guest cart with the same lines is merged again.
func (s *Service) merge(ctx context.Context, o Owner, lines []Line, rev int64) (*Cart, error) {
	key := idempotency.Derive(idempotency.ScopeCartMerge, o.UserID, o.GuestID, strconv.FormatInt(rev, 10), encodeLines(lines))
	log := s.log.WithFields(logrus.Fields{"user_id": o.UserID, "guest_id": o.GuestID, "op": "merge"})

	v, err, _ := s.flight.Do(key, func() (any, error) {
		if _, done, err := s.keys.Get(ctx, idempotency.ScopeCartMerge, key); err != nil {
			log.WithError(err).Warn("idempotency lookup failed")
		} else if done {
			log.Info("guest cart already merged, clearing leftover")
			s.clearGuest(ctx, o.GuestID)
			return s.remote.Cart(ctx)
		}

		c, err := s.remote.AddToCart(ctx, o.UserID, lines, key)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(c); err == nil {
			if err := s.keys.Put(ctx, idempotency.ScopeCartMerge, key, raw); err != nil {
				log.WithError(err).Warn("recording merge failed")
			}
		}
		s.clearGuest(ctx, o.GuestID)
		log.WithField("lines", len(lines)).Info("guest cart merged")
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Cart), nil
}

func (s *Service) clearGuest(ctx context.Context, guestID string) {
	if err := s.guests.Clear(ctx, guestID); err != nil {
		s.log.WithError(err).WithField("guest_id", guestID).Error("clearing guest cart failed")
	}
}

// Add puts lines into o's cart and returns the refreshed view.
func (s *Service) Add(ctx context.Context, o Owner, lines ...Line) (View, error) {
	return s.mutate(ctx, o, "add", func(r Repository) (*Cart, error) { return r.Add(ctx, lines...) })
}

// Reduce lowers a line's quantity by n, removing it at zero.
func (s *Service) Reduce(ctx context.Context, o Owner, productID string, n int) (View, error) {
	return s.mutate(ctx, o, "reduce", func(r Repository) (*Cart, error) { return r.Reduce(ctx, productID, n) })
}

// Remove drops a line outright.
func (s *Service) Remove(ctx context.Context, o Owner, productID string) (View, error) {
	return s.mutate(ctx, o, "remove", func(r Repository) (*Cart, error) { return r.Remove(ctx, productID) })
}

func (s *Service) mutate(ctx context.Context, o Owner, op string, fn func(Repository) (*Cart, error)) (View, error) {
	repo, err := s.repositoryFor(o)
	if err != nil {
		return View{}, err
	}
	c, err := fn(repo)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": o.UserID, "guest_id": o.GuestID, "op": op}).Error("cart mutation failed")
		return View{}, err
	}
	return s.view(ctx, c, !o.Authenticated()), nil
}

// Totals recomputes totals for already hydrated items.
func (s *Service) Totals(items []Item) pricing.Totals {
	return s.pricing.Compute(pricedLines(items))
}

func (s *Service) view(ctx context.Context, c *Cart, guest bool) View {
	items := s.hydrator.Hydrate(ctx, c.Products)
	return View{
		CartID: c.ID,
		Guest:  guest,
		Items:  items,
		Totals: s.Totals(items),
	}
}

func encodeLines(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.ProductID+"="+strconv.Itoa(l.Quantity))
	}
	return strings.Join(parts, ",")
}
