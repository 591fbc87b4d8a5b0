package utils

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
	"github.com/google/uuid"
)

const (
	ListingsListPrefix   = "listings:list:"
	ListingsDetailPrefix = "listings:detail:"
)

// BuildListingsListCacheKey normalizes a filter so equivalent queries share
// one cache entry. Values are query-escaped, so free text cannot forge
// another filter's key.
func BuildListingsListCacheKey(f listing.ListFilter) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("size", strconv.Itoa(f.PageSize))

	if f.Query != nil {
		v.Set("q", strings.ToLower(strings.TrimSpace(*f.Query)))
	}
	if f.Category != nil {
		v.Set("cat", strings.ToLower(strings.TrimSpace(*f.Category)))
	}
	if f.MinPrice != nil {
		v.Set("min", strconv.FormatInt(*f.MinPrice, 10))
	}
	if f.MaxPrice != nil {
		v.Set("max", strconv.FormatInt(*f.MaxPrice, 10))
	}
	if f.Rentable != nil {
		v.Set("rent", strconv.FormatBool(*f.Rentable))
	}
	if f.SellerID != nil {
		v.Set("seller", strings.ToLower(*f.SellerID))
	}

	// Encode sorts by key
	return ListingsListPrefix + "v2:" + v.Encode()
}

func BuildListingDetailCacheKey(id string) string {
	return ListingsDetailPrefix + strings.ToLower(id)
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
