package listing

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("listing not found")
	ErrInvalidPrice = errors.New("price must be between 0 and 999999.99")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	MaxImages       = 5
	MaxImageBytes   = 5 << 20

	// MaxCreateBodyBytes bounds a create request: every image plus 1 MiB of fields.
	MaxCreateBodyBytes = MaxImages*MaxImageBytes + 1<<20

	// MaxPrice stays well below the processor's per-charge ceiling.
	MaxPrice = 999999.99
)

type Listing struct {
	ID                 string     `json:"id"`
	SellerID           string     `json:"sellerId"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	PriceCents         int64      `json:"priceCents"`
	Category           *string    `json:"category,omitempty"`
	PostDate           time.Time  `json:"postDate"`
	RentalDurationDays *int       `json:"rentalDurationDays,omitempty"`
	RentalStart        *time.Time `json:"rentalStart,omitempty"`
	Images             []Image    `json:"images,omitempty"`
}

// IsRental reports whether the listing is offered for rent rather than sale.
func (l Listing) IsRental() bool {
	return l.RentalDurationDays != nil && *l.RentalDurationDays > 0
}

type Image struct {
	ID          string `json:"id"`
	ListingID   string `json:"listingId"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Encoded     string `json:"encoded"` // base64 (std encoding)
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Query    *string
	Category *string
	MinPrice *int64
	MaxPrice *int64
	Rentable *bool
	SellerID *string
	Page     int
	PageSize int
}

// Offset is the row offset of the (1-based) page.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

type CreateListingRequest struct {
	Name               string     `json:"name" form:"name" binding:"required,min=2,max=120"`
	Description        string     `json:"description" form:"description" binding:"omitempty,max=2000"`
	Price              float64    `json:"price" form:"price" binding:"gte=0,lte=999999.99"`
	Category           string     `json:"category" form:"category" binding:"omitempty,max=60"`
	RentalDurationDays *int       `json:"rentalDurationDays" form:"rental_duration_days" binding:"omitempty,min=1,max=365"`
	RentalStart        *time.Time `json:"rentalStart" form:"rental_start" time_format:"2006-01-02"`
}

// NewImage is an uploaded image before it is assigned to a listing.
type NewImage struct {
	Name        string
	ContentType string
	Data        []byte
}
