package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/storefront/internal/product"
)

// Hydrator resolves product details and a display image for each line. Lines
// are resolved in parallel; a failure on one line never affects another.
type Hydrator struct {
	catalog     product.Catalog
	placeholder string
	limit       int
	log         *logrus.Logger
}

func NewHydrator(catalog product.Catalog, placeholderURL string, limit int, log *logrus.Logger) *Hydrator {
	if limit <= 0 {
		limit = 1
	}
	return &Hydrator{catalog: catalog, placeholder: placeholderURL, limit: limit, log: log}
}

// Hydrate returns one Item per resolvable line, in input order. Lines whose
// product lookup fails are dropped; a missing or failing image falls back to
// the placeholder URL. A non-zero price on a server line wins over the
// catalog price so the view matches the persisted cart; guest lines carry no
// price and use the catalog.
func (h *Hydrator) Hydrate(ctx context.Context, lines []ServerLine) []Item {
	resolved := make([]*Item, len(lines))

	var g errgroup.Group
	g.SetLimit(h.limit)
	for i, line := range lines {
		g.Go(func() error {
			resolved[i] = h.hydrateLine(ctx, line)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Item, 0, len(lines))
	for _, it := range resolved {
		if it != nil {
			out = append(out, *it)
		}
	}
	return out
}

func (h *Hydrator) hydrateLine(ctx context.Context, line ServerLine) *Item {
	p, err := h.catalog.Product(ctx, line.ProductID)
	if err != nil {
		h.log.WithError(err).WithField("product_id", line.ProductID).Warn("dropping cart line, product lookup failed")
		return nil
	}

	image := h.placeholder
	if p.ImageID != "" {
		url, err := h.catalog.ImageURL(ctx, p.ImageID)
		if err != nil {
			h.log.WithError(err).WithField("product_id", line.ProductID).Debug("image lookup failed, using placeholder")
		} else {
			image = url
		}
	}

	price := p.Price
	if !line.Price.IsZero() {
		price = line.Price
	}

	return &Item{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Name:      p.Name,
		Price:     price,
		LineTotal: price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		ImageURL:  image,
		Stock:     p.Stock,
	}
}
