package pricing

import (
	"context"
	"strings"
)

type Price struct {
	PricePerHour float64
	CurrencyCode string
}

// Store resolves the approximate hourly on-demand price of a worker
// node type. Unknown node types resolve to no price so the heuristic
// tier reports a null savings estimate instead of a fabricated one.
type Store interface {
	GetNodeTypePrice(ctx context.Context, nodeTypeID string) (Price, bool)
}

type staticStore struct {
	rates map[string]float64
}

func NewStore() Store {
	return &staticStore{
		// Hourly USD list prices per instance family, keyed by node
		// type prefix. Longest prefix wins.
		rates: map[string]float64{
			"m5d.xlarge":      0.226,
			"m5d.2xlarge":     0.452,
			"m5d.4xlarge":     0.904,
			"m5.xlarge":       0.192,
			"m5.2xlarge":      0.384,
			"i3.xlarge":       0.312,
			"i3.2xlarge":      0.624,
			"i3.4xlarge":      1.248,
			"r5d.xlarge":      0.288,
			"r5d.2xlarge":     0.576,
			"c5.2xlarge":      0.340,
			"c5.4xlarge":      0.680,
			"Standard_DS3_v2": 0.229,
			"Standard_DS4_v2": 0.458,
			"Standard_E8s_v3": 0.504,
			"Standard_L8s_v2": 0.624,
		},
	}
}

func (s *staticStore) GetNodeTypePrice(_ context.Context, nodeTypeID string) (Price, bool) {
	if nodeTypeID == "" {
		return Price{}, false
	}
	if rate, ok := s.rates[nodeTypeID]; ok {
		return Price{PricePerHour: rate, CurrencyCode: "USD"}, true
	}

	var (
		bestLen  int
		bestRate float64
		found    bool
	)
	for prefix, rate := range s.rates {
		if strings.HasPrefix(nodeTypeID, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			bestRate = rate
			found = true
		}
	}
	if !found {
		return Price{}, false
	}
	return Price{PricePerHour: bestRate, CurrencyCode: "USD"}, true
}
