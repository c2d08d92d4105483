package persist

import (
	"encoding/json"
	"fmt"
	"time"

	"cartsync/internal/model"
)

// snapshotVersion guards against future layout changes of the stored blob.
const snapshotVersion = 1

// snapshot is the stored form of the cart. Timestamps are serialized as
// RFC3339 strings and re-parsed on load, so the blob survives storage
// backends that do not preserve native time types.
type snapshot struct {
	Version           int             `json:"version"`
	SavedAt           string          `json:"savedAt"`
	Items             []itemSnapshot  `json:"items"`
	SavedForLater     []savedSnapshot `json:"savedForLater"`
	CouponCode        string          `json:"couponCode,omitempty"`
	CouponDiscount    int             `json:"couponDiscount,omitempty"`
	Pincode           string          `json:"pincode,omitempty"`
	DeliveryAvailable bool            `json:"deliveryAvailable,omitempty"`
	Location          *model.Location `json:"location,omitempty"`
}

type itemSnapshot struct {
	Product      model.Product `json:"product"`
	Quantity     int           `json:"quantity"`
	AddedAt      string        `json:"addedAt"`
	LookupFailed bool          `json:"lookupFailed,omitempty"`
}

type savedSnapshot struct {
	Product model.Product `json:"product"`
	SavedAt string        `json:"savedAt"`
}

// Encode serializes the cart state into the stored blob form.
func Encode(state model.CartState) (string, error) {
	snap := snapshot{
		Version:           snapshotVersion,
		SavedAt:           time.Now().UTC().Format(time.RFC3339Nano),
		Items:             make([]itemSnapshot, 0, len(state.Lines)),
		SavedForLater:     make([]savedSnapshot, 0, len(state.Saved)),
		CouponCode:        state.CouponCode,
		CouponDiscount:    state.CouponDiscount,
		Pincode:           state.Pincode,
		DeliveryAvailable: state.DeliveryAvailable,
		Location:          state.Location,
	}

	for _, line := range state.Lines {
		snap.Items = append(snap.Items, itemSnapshot{
			Product:      line.Product,
			Quantity:     line.Quantity,
			AddedAt:      line.AddedAt.UTC().Format(time.RFC3339Nano),
			LookupFailed: line.LookupFailed,
		})
	}

	for _, saved := range state.Saved {
		snap.SavedForLater = append(snap.SavedForLater, savedSnapshot{
			Product: saved.Product,
			SavedAt: saved.SavedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored blob back into cart state, re-parsing the embedded
// timestamp strings. A malformed blob is an error; the caller falls back to
// an empty state.
func Decode(raw string) (model.CartState, error) {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return model.CartState{}, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}

	state := model.CartState{
		CouponCode:        snap.CouponCode,
		CouponDiscount:    snap.CouponDiscount,
		Pincode:           snap.Pincode,
		DeliveryAvailable: snap.DeliveryAvailable,
		Location:          snap.Location,
	}

	for _, item := range snap.Items {
		if item.Product.ID == "" || item.Quantity < 1 {
			continue
		}
		state.Lines = append(state.Lines, model.CartLine{
			Product:      item.Product,
			Quantity:     item.Quantity,
			AddedAt:      parseTimestamp(item.AddedAt),
			LookupFailed: item.LookupFailed,
		})
	}

	for _, saved := range snap.SavedForLater {
		if saved.Product.ID == "" {
			continue
		}
		state.Saved = append(state.Saved, model.SavedLine{
			Product: saved.Product,
			SavedAt: parseTimestamp(saved.SavedAt),
		})
	}

	if state.CouponCode == "" {
		state.CouponDiscount = 0
	}

	return state, nil
}

// parseTimestamp re-parses a stored timestamp string. Unparsable values fall
// back to the zero time rather than discarding the line.
func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
