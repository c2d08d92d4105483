package model

import "time"

// CartLine is one entry in the cart. It owns its Product by value so a later
// catalogue refresh cannot silently mutate a line that is already in the cart.
type CartLine struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`

	// LookupFailed marks a line whose catalogue enrichment failed during
	// the last sync; such a line carries placeholder product attributes.
	LookupFailed bool `json:"lookupFailed,omitempty"`
}

// SavedLine is a product set aside for later.
type SavedLine struct {
	Product Product   `json:"product"`
	SavedAt time.Time `json:"savedAt"`
}

// Location is a user-selected delivery location.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// CartState is the aggregate cart view. The engine owns the only mutable
// instance; everyone else works with deep copies obtained via Clone.
//
// Invariants: line quantities are always >= 1, there is at most one line per
// product ID, a product is in at most one of Lines/Saved, and CouponDiscount
// is zero whenever CouponCode is empty.
type CartState struct {
	Lines             []CartLine  `json:"items"`
	Saved             []SavedLine `json:"savedForLater"`
	CouponCode        string      `json:"couponCode"`
	CouponDiscount    int         `json:"couponDiscount"`
	Pincode           string      `json:"pincode"`
	DeliveryAvailable bool        `json:"deliveryAvailable"`
	Location          *Location   `json:"location,omitempty"`
}

// LineIndex returns the index of the cart line for the given product ID,
// or -1 if the product is not in the cart.
func (s *CartState) LineIndex(productID string) int {
	for i := range s.Lines {
		if s.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// SavedIndex returns the index of the saved line for the given product ID,
// or -1 if the product is not saved for later.
func (s *CartState) SavedIndex(productID string) int {
	for i := range s.Saved {
		if s.Saved[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// TotalQuantity returns the sum of all line quantities.
func (s *CartState) TotalQuantity() int {
	total := 0
	for i := range s.Lines {
		total += s.Lines[i].Quantity
	}
	return total
}

// Subtotal returns the cart subtotal: discounted unit price times quantity,
// summed over all lines.
func (s *CartState) Subtotal() int {
	subtotal := 0
	for i := range s.Lines {
		subtotal += s.Lines[i].Product.EffectivePrice() * s.Lines[i].Quantity
	}
	return subtotal
}

// Total returns the subtotal minus the applied coupon discount, floored at 0.
func (s *CartState) Total() int {
	total := s.Subtotal() - s.CouponDiscount
	if total < 0 {
		return 0
	}
	return total
}

// Clone returns a deep copy of the state. Slices and the optional location
// are copied so the caller can hold the result across later mutations.
func (s *CartState) Clone() CartState {
	out := *s
	if s.Lines != nil {
		out.Lines = make([]CartLine, len(s.Lines))
		copy(out.Lines, s.Lines)
	}
	if s.Saved != nil {
		out.Saved = make([]SavedLine, len(s.Saved))
		copy(out.Saved, s.Saved)
	}
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	return out
}
