package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/cache"
	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
	"github.com/UVMHacks2025/BashProShop/internal/utils"
	"github.com/gin-gonic/gin"
)

type ListingStore interface {
	Create(ctx context.Context, l listing.Listing) (listing.Listing, error)
	GetByID(ctx context.Context, id string) (listing.Listing, error)
	List(ctx context.Context, f listing.ListFilter) ([]listing.Listing, int, error)
}

type ListingsHandler struct {
	repo  ListingStore
	cache *cache.Cache
	log   *slog.Logger
}

// NewListingsHandler caches list pages and details in c; a nil cache disables caching.
func NewListingsHandler(repo ListingStore, c *cache.Cache, log *slog.Logger) *ListingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ListingsHandler{repo: repo, cache: c, log: log}
}

type listingsPage struct {
	Items    []listing.Listing `json:"items"`
	Count    int               `json:"count"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// Index is the public listing browser behind GET /.
func (h *ListingsHandler) Index(ctx *gin.Context) {
	f, ok := parseListFilter(ctx)
	if !ok {
		return
	}
	h.respondList(ctx, f)
}

// MyListings is Index scoped to the caller as seller.
func (h *ListingsHandler) MyListings(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	f, ok := parseListFilter(ctx)
	if !ok {
		return
	}
	f.SellerID = &userID

	h.respondList(ctx, f)
}

func (h *ListingsHandler) respondList(ctx *gin.Context, f listing.ListFilter) {
	key := utils.BuildListingsListCacheKey(f)

	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			if page, ok := v.(listingsPage); ok {
				ctx.Header("X-Cache", "HIT")
				RespondJSONWithETag(ctx, http.StatusOK, page)
				return
			}
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, f)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "listings.list failed", "err", err)
		RespondInternal(ctx, "Could not list listings")
		return
	}

	if items == nil {
		items = []listing.Listing{}
	}

	page := listingsPage{
		Items:    items,
		Count:    len(items),
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
	}

	if h.cache != nil {
		h.cache.Set(key, page)
		ctx.Header("X-Cache", "MISS")
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

// CreateListingForm describes the fields POST /create-listing accepts.
func (h *ListingsHandler) CreateListingForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"action":  "/create-listing",
		"method":  http.MethodPost,
		"enctype": "multipart/form-data",
		"fields": []gin.H{
			{"name": "name", "type": "text", "required": true},
			{"name": "description", "type": "textarea", "required": false},
			{"name": "price", "type": "number", "required": true, "min": 0, "step": "0.01"},
			{"name": "category", "type": "text", "required": false},
			{"name": "rental_duration_days", "type": "number", "required": false},
			{"name": "rental_start", "type": "date", "required": false},
			{"name": "images", "type": "file", "multiple": true, "maxFiles": listing.MaxImages, "maxBytes": listing.MaxImageBytes},
		},
	})
}

func (h *ListingsHandler) CreateListing(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req listing.CreateListingRequest
	if !Bind(ctx, &req) {
		return
	}

	images, ok := readUploadedImages(ctx)
	if !ok {
		return
	}

	l, err := listing.NewFromCreateRequest(userID, req, images)
	if err != nil {
		if errors.Is(err, listing.ErrInvalidPrice) {
			RespondBadRequest(ctx, "Invalid price", gin.H{"field": "price"})
			return
		}
		RespondInternal(ctx, "Could not create listing")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, l)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "listings.create failed", "err", err)
		RespondInternal(ctx, "Could not create listing")
		return
	}

	if h.cache != nil {
		h.cache.DeletePrefix(utils.ListingsListPrefix)
	}

	h.log.InfoContext(ctx.Request.Context(), "listing created", "listing_id", created.ID, "images", len(created.Images))

	ctx.JSON(http.StatusCreated, created)
}

// ListingDetail serves GET /listing-detail?id=.
func (h *ListingsHandler) ListingDetail(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Query("id"))
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid listing id", gin.H{"field": "id"})
		return
	}

	key := utils.BuildListingDetailCacheKey(id)
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			if l, ok := v.(listing.Listing); ok {
				ctx.Header("X-Cache", "HIT")
				RespondJSONWithETag(ctx, http.StatusOK, l)
				return
			}
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	l, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "listings.get failed", "listing_id", id, "err", err)
		RespondInternal(ctx, "Could not fetch listing")
		return
	}

	if h.cache != nil {
		h.cache.Set(key, l)
		ctx.Header("X-Cache", "MISS")
	}

	RespondJSONWithETag(ctx, http.StatusOK, l)
}

// parseListFilter reads the query string; malformed values answer 400.
func parseListFilter(ctx *gin.Context) (listing.ListFilter, bool) {
	f := listing.ListFilter{Page: 1, PageSize: listing.DefaultPageSize}

	if v := ctx.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": "page", "rule": "min", "param": "1"})
			return f, false
		}
		f.Page = n
	}

	if v := ctx.Query("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > listing.MaxPageSize {
			RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": "pageSize", "rule": "range", "param": "1-" + strconv.Itoa(listing.MaxPageSize)})
			return f, false
		}
		f.PageSize = n
	}

	if v := strings.TrimSpace(ctx.Query("q")); v != "" {
		f.Query = &v
	}

	if v := strings.ToLower(strings.TrimSpace(ctx.Query("category"))); v != "" {
		f.Category = &v
	}

	for _, p := range []struct {
		name string
		dst  **int64
	}{
		{"minPrice", &f.MinPrice},
		{"maxPrice", &f.MaxPrice},
	} {
		v := ctx.Query(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": p.name, "rule": "gte", "param": "0"})
			return f, false
		}
		*p.dst = &n
	}

	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		RespondBadRequest(ctx, "minPrice must not exceed maxPrice", gin.H{"field": "minPrice"})
		return f, false
	}

	if v := ctx.Query("rentable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": "rentable", "rule": "boolean"})
			return f, false
		}
		f.Rentable = &b
	}

	if v := strings.TrimSpace(ctx.Query("sellerId")); v != "" {
		if !utils.IsUUID(v) {
			RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": "sellerId", "rule": "uuid"})
			return f, false
		}
		f.SellerID = &v
	}

	return f, true
}

// readUploadedImages collects the "images" parts of a multipart body.
// JSON and urlencoded bodies carry no images.
func readUploadedImages(ctx *gin.Context) ([]listing.NewImage, bool) {
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return nil, true
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		RespondBadRequest(ctx, "Invalid multipart body", nil)
		return nil, false
	}

	files := form.File["images"]
	if len(files) > listing.MaxImages {
		RespondBadRequest(ctx, "Too many images", gin.H{"field": "images", "rule": "max", "param": strconv.Itoa(listing.MaxImages)})
		return nil, false
	}

	out := make([]listing.NewImage, 0, len(files))
	for _, fh := range files {
		img, err := readImage(fh)
		if err != nil {
			RespondBadRequest(ctx, "Invalid image", gin.H{"field": "images", "file": fh.Filename, "reason": err.Error()})
			return nil, false
		}
		out = append(out, img)
	}

	return out, true
}

var errImageTooLarge = errors.New("image exceeds size limit")

func readImage(fh *multipart.FileHeader) (listing.NewImage, error) {
	if fh.Size > listing.MaxImageBytes {
		return listing.NewImage{}, errImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return listing.NewImage{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, listing.MaxImageBytes+1))
	if err != nil {
		return listing.NewImage{}, err
	}
	if len(data) > listing.MaxImageBytes {
		return listing.NewImage{}, errImageTooLarge
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return listing.NewImage{}, errors.New("not an image")
	}

	return listing.NewImage{Name: fh.Filename, ContentType: ct, Data: data}, nil
}
