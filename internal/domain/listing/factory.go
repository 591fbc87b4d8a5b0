package listing

import (
	"encoding/base64"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PriceToCents converts a major-unit price in [0, MaxPrice] to minor units,
// rounding half away from zero.
func PriceToCents(price float64) (int64, error) {
	if math.IsNaN(price) || price < 0 || price > MaxPrice {
		return 0, ErrInvalidPrice
	}
	return int64(math.Round(price * 100)), nil
}

func NewFromCreateRequest(sellerID string, req CreateListingRequest, images []NewImage) (Listing, error) {
	cents, err := PriceToCents(req.Price)
	if err != nil {
		return Listing{}, err
	}

	l := Listing{
		ID:                 uuid.NewString(),
		SellerID:           sellerID,
		Name:               strings.TrimSpace(req.Name),
		Description:        strings.TrimSpace(req.Description),
		PriceCents:         cents,
		PostDate:           time.Now().UTC(),
		RentalDurationDays: req.RentalDurationDays,
		RentalStart:        req.RentalStart,
	}

	if c := strings.ToLower(strings.TrimSpace(req.Category)); c != "" {
		l.Category = &c
	}

	for _, img := range images {
		l.Images = append(l.Images, Image{
			ID:          uuid.NewString(),
			ListingID:   l.ID,
			Name:        img.Name,
			ContentType: img.ContentType,
			Encoded:     base64.StdEncoding.EncodeToString(img.Data),
		})
	}

	return l, nil
}
