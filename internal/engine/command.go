package engine

import (
	"time"

	"cartsync/internal/model"
)

// command is a single atomic transition over the cart state. Commands run to
// completion under the engine lock, so each observes and produces a
// consistent state and no two commands ever interleave.
type command interface {
	apply(s *model.CartState)
}

type addItem struct {
	product model.Product
	now     time.Time
}

// apply inserts a new line with quantity 1, or increments the existing line.
// A product never occupies two lines.
func (c addItem) apply(s *model.CartState) {
	if i := s.LineIndex(c.product.ID); i >= 0 {
		s.Lines[i].Quantity++
		return
	}
	s.Lines = append(s.Lines, model.CartLine{
		Product:  c.product,
		Quantity: 1,
		AddedAt:  c.now,
	})
}

type removeItem struct {
	productID string
}

func (c removeItem) apply(s *model.CartState) {
	if i := s.LineIndex(c.productID); i >= 0 {
		s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
	}
}

type setQuantity struct {
	productID string
	quantity  int
}

// apply sets the line quantity. A quantity of 0 or below removes the line
// instead of leaving a zero-quantity entry; an absent product is a no-op.
func (c setQuantity) apply(s *model.CartState) {
	i := s.LineIndex(c.productID)
	if i < 0 {
		return
	}
	if c.quantity < 1 {
		s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
		return
	}
	s.Lines[i].Quantity = c.quantity
}

type upsertLine struct {
	product  model.Product
	quantity int
	now      time.Time
}

// apply replaces the quantity of an existing line or appends a new one with
// the given quantity.
func (c upsertLine) apply(s *model.CartState) {
	if c.quantity < 1 {
		removeItem{productID: c.product.ID}.apply(s)
		return
	}
	if i := s.LineIndex(c.product.ID); i >= 0 {
		s.Lines[i].Quantity = c.quantity
		return
	}
	s.Lines = append(s.Lines, model.CartLine{
		Product:  c.product,
		Quantity: c.quantity,
		AddedAt:  c.now,
	})
}

type saveForLater struct {
	productID string
	now       time.Time
}

// apply moves a product from the cart lines to the saved list. The transfer
// is atomic: the product is never present in both lists.
func (c saveForLater) apply(s *model.CartState) {
	i := s.LineIndex(c.productID)
	if i < 0 {
		return
	}
	line := s.Lines[i]
	s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
	if s.SavedIndex(c.productID) < 0 {
		s.Saved = append(s.Saved, model.SavedLine{
			Product: line.Product,
			SavedAt: c.now,
		})
	}
}

type moveToCart struct {
	productID string
	now       time.Time
}

// apply moves a saved product back into the cart with quantity 1.
func (c moveToCart) apply(s *model.CartState) {
	i := s.SavedIndex(c.productID)
	if i < 0 {
		return
	}
	saved := s.Saved[i]
	s.Saved = append(s.Saved[:i], s.Saved[i+1:]...)
	if s.LineIndex(c.productID) < 0 {
		s.Lines = append(s.Lines, model.CartLine{
			Product:  saved.Product,
			Quantity: 1,
			AddedAt:  c.now,
		})
	}
}

type applyCoupon struct {
	code     string
	discount int
}

// apply records the coupon pair as given. Validation happens upstream; the
// engine only guards the non-negativity of the discount.
func (c applyCoupon) apply(s *model.CartState) {
	s.CouponCode = c.code
	if c.discount < 0 {
		s.CouponDiscount = 0
		return
	}
	s.CouponDiscount = c.discount
}

type removeCoupon struct{}

func (c removeCoupon) apply(s *model.CartState) {
	s.CouponCode = ""
	s.CouponDiscount = 0
}

type setPincode struct {
	pincode   string
	available bool
}

func (c setPincode) apply(s *model.CartState) {
	s.Pincode = c.pincode
	s.DeliveryAvailable = c.available
}

type setLocation struct {
	location *model.Location
}

func (c setLocation) apply(s *model.CartState) {
	if c.location == nil {
		s.Location = nil
		return
	}
	loc := *c.location
	s.Location = &loc
}

type clearCart struct{}

// apply empties the cart, the saved list and the coupon fields. Pincode and
// location survive a clear.
func (c clearCart) apply(s *model.CartState) {
	s.Lines = nil
	s.Saved = nil
	s.CouponCode = ""
	s.CouponDiscount = 0
}

type replaceLines struct {
	lines []model.CartLine
}

// apply wholesale-replaces the cart lines after a sync pass. Saved lines,
// coupon and delivery fields are never touched by a sync.
func (c replaceLines) apply(s *model.CartState) {
	s.Lines = c.lines
}

type restoreState struct {
	state model.CartState
}

// apply adopts a hydrated snapshot wholesale.
func (c restoreState) apply(s *model.CartState) {
	*s = c.state
}
