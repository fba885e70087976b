package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stockpile/stockpile-go/internal/model"
)

func TestProductFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter model.ProductFilter
		want   bson.D
	}{
		{"empty", model.ProductFilter{}, bson.D{}},
		{
			"name quotes regex metacharacters",
			model.ProductFilter{Name: "a.b*"},
			bson.D{{Key: "name", Value: bson.D{{Key: "$regex", Value: `a\.b\*`}, {Key: "$options", Value: "i"}}}},
		},
		{
			"category and in stock",
			model.ProductFilter{Category: "tools", StockStatus: model.StockInStock},
			bson.D{
				{Key: "category", Value: "tools"},
				{Key: "quantity", Value: bson.D{{Key: "$gt", Value: 0}}},
			},
		},
		{
			"out of stock",
			model.ProductFilter{StockStatus: model.StockOutOfStock},
			bson.D{{Key: "quantity", Value: 0}},
		},
		{"unknown stock status", model.ProductFilter{StockStatus: "low"}, bson.D{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, productFilter(tc.filter))
		})
	}
}

func TestPatchUpdate(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got := patchUpdate(model.ProductPatch{Name: ptr("Saw"), Quantity: ptr(0), Image: ptr("uploads/a.png")}, now)
	assert.Equal(t, bson.D{{Key: "$set", Value: bson.D{
		{Key: "updated_at", Value: now},
		{Key: "name", Value: "Saw"},
		{Key: "quantity", Value: 0},
		{Key: "image", Value: "uploads/a.png"},
	}}}, got)

	got = patchUpdate(model.ProductPatch{Image: ptr("")}, now)
	assert.Equal(t, bson.D{
		{Key: "$unset", Value: bson.D{{Key: "image", Value: ""}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}, got)
}
