// internal/search/external/codec.go
package external

import (
	"encoding/json"

	"github.com/AlphaGL/Finda-backend-sub000/internal/search/normalize"
)

type cachedItem struct {
	normalize.ProviderItem
	HasPrice bool `json:"hasPrice"`
}

func encodeItems(items []normalize.ProviderItem) (string, error) {
	wrapped := make([]cachedItem, len(items))
	for i, item := range items {
		wrapped[i] = cachedItem{ProviderItem: item, HasPrice: item.HasPrice}
	}
	raw, err := json.Marshal(wrapped)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeItems(raw string) ([]normalize.ProviderItem, error) {
	var wrapped []cachedItem
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, err
	}
	items := make([]normalize.ProviderItem, len(wrapped))
	for i, w := range wrapped {
		items[i] = w.ProviderItem
		items[i].HasPrice = w.HasPrice
	}
	return items, nil
}
