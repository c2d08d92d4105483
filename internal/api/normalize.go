package api

import (
	"encoding/json"
	"time"
)

// wireItem is a server-side cart line as it appears on the wire.
type wireItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	AddedAt   string `json:"addedAt,omitempty"`
}

// The backend has served the cart item list under several different nestings
// over time: a bare list, an {items: [...]} wrapper, a doubly-nested
// {data: {items: [...]}} wrapper and a {data: [...]} wrapper. Each shape is
// probed in order and the first one that yields a list is authoritative.
// If none match, the cart is treated as empty.
//
// TODO: drop the legacy wrappers once the backend settles on a single shape.
func normalizeCartPayload(data json.RawMessage) []RemoteItem {
	if len(data) == 0 {
		return nil
	}

	probes := []func(json.RawMessage) ([]wireItem, bool){
		probeBareList,
		probeItemsWrapper,
		probeNestedItemsWrapper,
		probeNestedList,
	}

	for _, probe := range probes {
		if items, ok := probe(data); ok {
			return convertWireItems(items)
		}
	}

	return nil
}

func probeBareList(data json.RawMessage) ([]wireItem, bool) {
	var items []wireItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, items != nil
}

func probeItemsWrapper(data json.RawMessage) ([]wireItem, bool) {
	var wrapper struct {
		Items []wireItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, false
	}
	return wrapper.Items, wrapper.Items != nil
}

func probeNestedItemsWrapper(data json.RawMessage) ([]wireItem, bool) {
	var wrapper struct {
		Data struct {
			Items []wireItem `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, false
	}
	return wrapper.Data.Items, wrapper.Data.Items != nil
}

func probeNestedList(data json.RawMessage) ([]wireItem, bool) {
	var wrapper struct {
		Data []wireItem `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, false
	}
	return wrapper.Data, wrapper.Data != nil
}

// convertWireItems drops malformed entries and parses timestamps. Items
// without a product ID or with a non-positive quantity cannot form a valid
// cart line and are excluded.
func convertWireItems(items []wireItem) []RemoteItem {
	out := make([]RemoteItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		out = append(out, RemoteItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   parseTimestamp(item.AddedAt),
		})
	}
	return out
}

// parseTimestamp parses the addedAt string leniently; the backend is not
// consistent about subsecond precision. An absent or unparsable value falls
// back to the current time.
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Now().UTC()
}
