package model

import (
	"math"
	"testing"
)

func TestProductQueryNormalized(t *testing.T) {
	tests := []struct {
		name       string
		in         ProductQuery
		wantPage   int
		wantLimit  int
		wantOffset int
		wantStock  StockStatus
	}{
		{"zero values", ProductQuery{}, 1, DefaultPageLimit, 0, ""},
		{"negative page", ProductQuery{Page: -3, Limit: 5}, 1, 5, 0, ""},
		{"second page", ProductQuery{Page: 2, Limit: 5}, 2, 5, 5, ""},
		{"limit capped", ProductQuery{Page: 3, Limit: 1000}, 3, MaxPageLimit, 200, ""},
		{"page capped", ProductQuery{Page: math.MaxInt, Limit: MaxPageLimit}, MaxPage, MaxPageLimit, (MaxPage - 1) * MaxPageLimit, ""},
		{"page capped small limit", ProductQuery{Page: math.MaxInt / 5, Limit: 10}, MaxPage, 10, (MaxPage - 1) * 10, ""},
		{"in stock kept", ProductQuery{Filter: ProductFilter{StockStatus: StockInStock}}, 1, 10, 0, StockInStock},
		{"out of stock kept", ProductQuery{Filter: ProductFilter{StockStatus: StockOutOfStock}}, 1, 10, 0, StockOutOfStock},
		{"unknown stock dropped", ProductQuery{Filter: ProductFilter{StockStatus: "low"}}, 1, 10, 0, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalized()
			if got.Page != tc.wantPage {
				t.Errorf("Page = %d, want %d", got.Page, tc.wantPage)
			}
			if got.Limit != tc.wantLimit {
				t.Errorf("Limit = %d, want %d", got.Limit, tc.wantLimit)
			}
			if got.Offset() != tc.wantOffset {
				t.Errorf("Offset() = %d, want %d", got.Offset(), tc.wantOffset)
			}
			if got.Filter.StockStatus != tc.wantStock {
				t.Errorf("StockStatus = %q, want %q", got.Filter.StockStatus, tc.wantStock)
			}
		})
	}
}
