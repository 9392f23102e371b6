package cart

// AddLines merges adds into lines, summing quantities for products already
// present. New products are appended in the order they are added; zero
// quantities are ignored. The input slice is not modified.
func AddLines(lines []Line, adds ...Line) ([]Line, error) {
	for _, a := range adds {
		if err := validate(a.ProductID, a.Quantity); err != nil {
			return nil, err
		}
	}
	out := cloneLines(lines)
	for _, a := range adds {
		if a.Quantity == 0 {
			continue
		}
		if i := indexOf(out, a.ProductID); i >= 0 {
			out[i].Quantity += a.Quantity
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ReduceLine lowers the quantity of productID by n. If the result would be
// zero or less the line is removed. Reducing a product that is not in the
// cart is a no-op.
func ReduceLine(lines []Line, productID string, n int) ([]Line, error) {
	if err := validate(productID, n); err != nil {
		return nil, err
	}
	out := cloneLines(lines)
	i := indexOf(out, productID)
	if i < 0 || n == 0 {
		return out, nil
	}
	if out[i].Quantity <= n {
		return append(out[:i], out[i+1:]...), nil
	}
	out[i].Quantity -= n
	return out, nil
}

// RemoveLine drops productID from the cart.
func RemoveLine(lines []Line, productID string) ([]Line, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	out := cloneLines(lines)
	if i := indexOf(out, productID); i >= 0 {
		out = append(out[:i], out[i+1:]...)
	}
	return out, nil
}

// Normalize collapses duplicate products and drops lines with a quantity
// below one. Guest data is read back through it since nothing guards its shape.
func Normalize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if i := indexOf(out, l.ProductID); i >= 0 {
			out[i].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}

func validate(productID string, qty int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if qty < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func indexOf(lines []Line, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
