package postgres

import (
	"strings"
	"testing"

	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
)

func TestBuildListQuery_NoFilters(t *testing.T) {
	q, args := buildListQuery(listing.ListFilter{Page: 1, PageSize: 10})

	if strings.Contains(q, "WHERE") {
		t.Fatalf("unexpected WHERE clause: %s", q)
	}
	if !strings.Contains(q, "ORDER BY post_date DESC, id DESC LIMIT $1 OFFSET $2") {
		t.Fatalf("missing ordering/paging: %s", q)
	}
	if len(args) != 2 || args[0] != 10 || args[1] != 0 {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildListQuery_TwoPredicates(t *testing.T) {
	category := "books"
	maxPrice := int64(2500)

	q, args := buildListQuery(listing.ListFilter{
		Category: &category,
		MaxPrice: &maxPrice,
		Page:     2,
		PageSize: 10,
	})

	if !strings.Contains(q, "WHERE category = $1 AND price_cents <= $2") {
		t.Fatalf("predicates not AND-ed in order: %s", q)
	}
	if !strings.HasSuffix(q, "LIMIT $3 OFFSET $4") {
		t.Fatalf("paging placeholders wrong: %s", q)
	}

	want := []interface{}{"books", int64(2500), 10, 10}
	if len(args) != len(want) {
		t.Fatalf("got %d args, want %d", len(args), len(want))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d = %#v, want %#v", i, args[i], want[i])
		}
	}
}

func TestBuildListQuery_SearchAndRentable(t *testing.T) {
	query := "50%_off"
	rentable := true
	seller := "7b1f8c9e-2b7d-4a55-9d5c-5b9a8f0b3c11"

	q, args := buildListQuery(listing.ListFilter{
		Query:    &query,
		Rentable: &rentable,
		SellerID: &seller,
		Page:     1,
		PageSize: 10,
	})

	if !strings.Contains(q, "(name ILIKE $1 OR description ILIKE $1)") {
		t.Fatalf("search predicate missing: %s", q)
	}
	if !strings.Contains(q, "rental_duration_days IS NOT NULL") {
		t.Fatalf("rentable predicate missing: %s", q)
	}
	if !strings.Contains(q, "seller_id = $2") {
		t.Fatalf("seller predicate should take the next placeholder: %s", q)
	}
	if args[0] != `%50\%\_off%` {
		t.Fatalf("search term not escaped: %#v", args[0])
	}
}
