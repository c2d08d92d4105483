package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"cartsync/internal/coupon"
	"cartsync/internal/engine"
	"cartsync/internal/model"

	"github.com/rs/zerolog"
)

// CartHandler exposes the cart engine's operation set to the UI shell.
type CartHandler struct {
	engine    *engine.Engine
	validator coupon.Validator
	logger    zerolog.Logger
}

// NewCartHandler creates a new cart handler. The coupon validator may be nil,
// in which case codes are recorded without validation.
func NewCartHandler(eng *engine.Engine, validator coupon.Validator, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		engine:    eng,
		validator: validator,
		logger:    logger.With().Str("handler", "cart").Logger(),
	}
}

// cartResponse is the cart snapshot as rendered to the UI shell.
type cartResponse struct {
	Items             []model.CartLine  `json:"items"`
	SavedForLater     []model.SavedLine `json:"savedForLater"`
	CouponCode        string            `json:"couponCode"`
	CouponDiscount    int               `json:"couponDiscount"`
	Pincode           string            `json:"pincode"`
	DeliveryAvailable bool              `json:"deliveryAvailable"`
	Location          *model.Location   `json:"location,omitempty"`
	Subtotal          int               `json:"subtotal"`
	Total             int               `json:"total"`
	TotalQuantity     int               `json:"totalQuantity"`
	Syncing           bool              `json:"syncing"`
}

func (h *CartHandler) snapshotResponse() cartResponse {
	state := h.engine.Snapshot()
	items := state.Lines
	if items == nil {
		items = []model.CartLine{}
	}
	saved := state.Saved
	if saved == nil {
		saved = []model.SavedLine{}
	}
	return cartResponse{
		Items:             items,
		SavedForLater:     saved,
		CouponCode:        state.CouponCode,
		CouponDiscount:    state.CouponDiscount,
		Pincode:           state.Pincode,
		DeliveryAvailable: state.DeliveryAvailable,
		Location:          state.Location,
		Subtotal:          state.Subtotal(),
		Total:             state.Total(),
		TotalQuantity:     state.TotalQuantity(),
		Syncing:           h.engine.Syncing(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// AddItem handles POST /api/cart/items requests. The body carries the full
// product payload; the engine inserts it or increments the existing line.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if product.ID == "" {
		writeError(w, http.StatusBadRequest, "product id is required", h.logger)
		return
	}

	h.engine.Add(product)
	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// updateItemRequest is the body of a quantity update.
type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// Item handles PUT and DELETE /api/cart/items/{id} plus the save/move
// sub-resources.
func (h *CartHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/cart/items/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "product id is required", h.logger)
		return
	}

	productID, action, _ := strings.Cut(rest, "/")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product id is required", h.logger)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPut:
		var req updateItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
			return
		}
		h.engine.SetQuantity(productID, req.Quantity)
	case action == "" && r.Method == http.MethodDelete:
		h.engine.Remove(productID)
	case action == "save" && r.Method == http.MethodPost:
		h.engine.SaveForLater(productID)
	case action == "move" && r.Method == http.MethodPost:
		h.engine.MoveToCart(productID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// couponRequest is the body of a coupon application.
type couponRequest struct {
	Code     string `json:"code"`
	Discount int    `json:"discount"`
}

// Coupon handles POST and DELETE /api/cart/coupon requests. POST validates
// the code through the coupon collaborator before recording it.
func (h *CartHandler) Coupon(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req couponRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
			return
		}
		if req.Code == "" {
			writeError(w, http.StatusBadRequest, "coupon code is required", h.logger)
			return
		}
		if req.Discount < 0 {
			writeError(w, http.StatusBadRequest, "discount cannot be negative", h.logger)
			return
		}

		if h.validator != nil {
			if err := h.validator.Validate(r.Context(), req.Code); err != nil {
				h.logger.Warn().
					Str("coupon_code", req.Code).
					Err(err).
					Msg("invalid coupon code")
				writeError(w, http.StatusBadRequest, err.Error(), h.logger)
				return
			}
		}

		h.engine.ApplyCoupon(req.Code, req.Discount)
	case http.MethodDelete:
		h.engine.RemoveCoupon()
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// pincodeRequest is the body of a delivery pincode update. The availability
// verdict comes from the caller; the engine performs no postal-code logic.
type pincodeRequest struct {
	Pincode   string `json:"pincode"`
	Available bool   `json:"available"`
}

// Pincode handles PUT /api/cart/pincode requests.
func (h *CartHandler) Pincode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req pincodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	h.engine.SetDeliveryPincode(req.Pincode, req.Available)
	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// Location handles PUT and DELETE /api/cart/location requests.
func (h *CartHandler) Location(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var loc model.Location
		if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
			return
		}
		h.engine.SetUserLocation(&loc)
	case http.MethodDelete:
		h.engine.SetUserLocation(nil)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// Clear handles POST /api/cart/clear requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	h.engine.Clear()
	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// Sync handles POST /api/cart/sync requests. The call blocks until the sync
// pass settles; a pass already in flight makes this a no-op.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	h.engine.Sync(r.Context())
	writeJSON(w, http.StatusOK, h.snapshotResponse())
}

// remoteUpsertRequest is the body of a remote cart upsert.
type remoteUpsertRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// remoteUpsertResponse reports whether the remote upsert succeeded alongside
// the resulting snapshot.
type remoteUpsertResponse struct {
	Success bool         `json:"success"`
	Cart    cartResponse `json:"cart"`
}

// Remote handles POST /api/cart/remote requests.
func (h *CartHandler) Remote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req remoteUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product id is required", h.logger)
		return
	}

	ok := h.engine.AddOrUpdateRemote(r.Context(), req.ProductID, req.Quantity)
	writeJSON(w, http.StatusOK, remoteUpsertResponse{
		Success: ok,
		Cart:    h.snapshotResponse(),
	})
}
