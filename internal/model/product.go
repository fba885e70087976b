package model

import (
	"math"
	"time"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// MaxPage keeps Offset within int for every limit up to MaxPageLimit.
	MaxPage = math.MaxInt/MaxPageLimit + 1
)

// StockStatus is the derived in-stock / out-of-stock classification used for filtering.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// Product is an inventory item. Image holds the relative path of the
// product's current image, or "" when it has none.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Price       float64   `json:"price" bson:"price"`
	Category    string    `json:"category" bson:"category"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// ProductInput is the validated payload for creating a product.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Quantity    int     `json:"quantity" validate:"min=0"`
	Price       float64 `json:"price" validate:"gt=0"`
	Category    string  `json:"category" validate:"required,max=100"`
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string  `json:"description" validate:"omitnil,max=2000"`
	Quantity    *int     `json:"quantity" validate:"omitnil,min=0"`
	Price       *float64 `json:"price" validate:"omitnil,gt=0"`
	Category    *string  `json:"category" validate:"omitnil,min=1,max=100"`
	Image       *string  `json:"image"`
}

// ProductFilter narrows a product listing. Zero values mean "no constraint".
type ProductFilter struct {
	Name        string
	Category    string
	StockStatus StockStatus
}

// ProductQuery is a filtered, paginated listing request. Page is 1-based.
type ProductQuery struct {
	Filter ProductFilter
	Page   int
	Limit  int
}

// Normalized returns a copy with page and limit clamped to usable values:
// page < 1 becomes 1 and page is capped at MaxPage; limit < 1 becomes
// DefaultPageLimit and limit is capped at MaxPageLimit. Unknown stock
// statuses are dropped.
func (q ProductQuery) Normalized() ProductQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	switch q.Filter.StockStatus {
	case StockInStock, StockOutOfStock:
	default:
		q.Filter.StockStatus = ""
	}
	return q
}

// Offset is the number of matching records skipped before this page.
func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ProductPage is one page of a listing plus the metadata needed to page through it.
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// Upload is an image file received from a client, not yet stored.
type Upload struct {
	Filename string
	Data     []byte
}
