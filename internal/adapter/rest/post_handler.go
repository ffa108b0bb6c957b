package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/adapter/rest/middleware"
	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/metrics"
	"github.com/ElHadji11/farmconnect-backend/internal/usecase"
	"github.com/go-chi/chi/v5"
)

const maxMultipartMemory = 10 << 20 // 10 MiB

// PostService is the post lifecycle surface the handlers depend on.
type PostService interface {
	CreatePost(ctx context.Context, externalID string, input usecase.CreatePostInput) (*domain.Post, error)
	UpdatePost(ctx context.Context, externalID, postID string, patch domain.PostPatch) (*domain.Post, error)
	ArchivePost(ctx context.Context, externalID, postID string) error
	DeletePost(ctx context.Context, externalID, postID string) error
	GetPost(ctx context.Context, postID string) (*domain.PostWithOwner, error)
	ListPosts(ctx context.Context) ([]*domain.PostWithOwner, error)
	SearchPosts(ctx context.Context, filter domain.PostFilter) ([]*domain.PostWithOwner, error)
	HomepagePosts(ctx context.Context) ([]*domain.PostWithOwner, error)
	CompanyPosts(ctx context.Context, companyName string) ([]*domain.PostWithOwner, error)
}

// ReviewService appends reviews to posts.
type ReviewService interface {
	AddReview(ctx context.Context, externalID, postID, comment string, rating int32) (*domain.Post, error)
}

// FavoriteService maintains the caller's favorite set.
type FavoriteService interface {
	AddFavorite(ctx context.Context, externalID, postID string) error
	RemoveFavorite(ctx context.Context, externalID, postID string) error
	ListFavorites(ctx context.Context, externalID string) ([]*domain.PostWithOwner, error)
}

// PostHandler serves the /api/posts routes.
type PostHandler struct {
	posts     PostService
	reviews   ReviewService
	favorites FavoriteService
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
}

func NewPostHandler(posts PostService, reviews ReviewService, favorites FavoriteService, mm *metrics.MetricsManager, log *logger.Logger) *PostHandler {
	return &PostHandler{
		posts:     posts,
		reviews:   reviews,
		favorites: favorites,
		metrics:   mm,
		logger:    log.Named("PostHandler"),
	}
}

// Create handles the multipart post creation form: scalar fields plus one
// to three files under the "photos" field.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: expected multipart form: %v", domain.ErrValidation, err))
		return
	}

	input, err := parseCreateForm(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), externalID, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.PostsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, toPostView(post, nil))
}

func parseCreateForm(r *http.Request) (usecase.CreatePostInput, error) {
	var input usecase.CreatePostInput

	input.Product = r.FormValue("product")
	input.Description = r.FormValue("description")
	input.Region = r.FormValue("region")
	input.Unit = domain.Unit(r.FormValue("unit"))

	if v := r.FormValue("quantity"); v != "" {
		quantity, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, fmt.Errorf("%w: quantity must be a number", domain.ErrValidation)
		}
		input.Quantity = quantity
	}
	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return input, fmt.Errorf("%w: price must be a number", domain.ErrValidation)
		}
		input.Price = price
	}
	if v := r.FormValue("availabilityDate"); v != "" {
		date, err := parseDate(v)
		if err != nil {
			return input, fmt.Errorf("%w: availabilityDate must be an RFC 3339 date", domain.ErrValidation)
		}
		input.AvailabilityDate = date
	}

	if r.MultipartForm == nil {
		return input, fmt.Errorf("%w: photos are required", domain.ErrValidation)
	}
	for _, header := range r.MultipartForm.File["photos"] {
		file, err := header.Open()
		if err != nil {
			return input, fmt.Errorf("%w: cannot read photo %s", domain.ErrValidation, header.Filename)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return input, fmt.Errorf("%w: cannot read photo %s", domain.ErrValidation, header.Filename)
		}
		input.Photos = append(input.Photos, usecase.PhotoUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return input, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// Get serves a single active post with its owner.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	item, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostView(item.Post, item.Owner))
}

// List serves all active posts, newest first.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.posts.ListPosts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostViews(items))
}

// Search serves filtered active posts from query parameters.
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.PostFilter{
		Query:        q.Get("query"),
		ActivityType: domain.ActivityType(q.Get("activityType")),
		Region:       q.Get("region"),
		Availability: q.Get("availability"),
	}
	if v := q.Get("minPrice"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = price
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = price
		}
	}

	items, err := h.posts.SearchPosts(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostViews(items))
}

// Homepage serves the newest active posts for the landing page.
func (h *PostHandler) Homepage(w http.ResponseWriter, r *http.Request) {
	items, err := h.posts.HomepagePosts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostViews(items))
}

// ByCompany serves a company's active posts by its unique name.
func (h *PostHandler) ByCompany(w http.ResponseWriter, r *http.Request) {
	companyName := chi.URLParam(r, "companyName")

	items, err := h.posts.CompanyPosts(r.Context(), companyName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostViews(items))
}

type updatePostRequest struct {
	Product          *string  `json:"product"`
	Quantity         *float64 `json:"quantity"`
	Price            *float64 `json:"price"`
	Unit             *string  `json:"unit"`
	AvailabilityDate *string  `json:"availabilityDate"`
	Description      *string  `json:"description"`
	Region           *string  `json:"region"`
}

// Update applies a partial update to an owned post.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	patch := domain.PostPatch{
		Product:     req.Product,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Description: req.Description,
		Region:      req.Region,
	}
	if req.Unit != nil {
		unit := domain.Unit(*req.Unit)
		patch.Unit = &unit
	}
	if req.AvailabilityDate != nil {
		date, err := parseDate(*req.AvailabilityDate)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: availabilityDate must be an RFC 3339 date", domain.ErrValidation))
			return
		}
		patch.AvailabilityDate = &date
	}

	post, err := h.posts.UpdatePost(r.Context(), externalID, postID, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostView(post, nil))
}

// Archive hides a post from all public reads.
func (h *PostHandler) Archive(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	if err := h.posts.ArchivePost(r.Context(), externalID, postID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.PostsArchivedTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "post archived"})
}

// Delete permanently removes a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	if err := h.posts.DeletePost(r.Context(), externalID, postID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

type addReviewRequest struct {
	Comment string `json:"comment"`
	Rating  int32  `json:"rating"`
}

// AddReview appends a review to a post and returns the updated post.
func (h *PostHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	var req addReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.reviews.AddReview(r.Context(), externalID, postID, req.Comment, req.Rating)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.ReviewsAddedTotal.Inc()
	writeJSON(w, http.StatusCreated, toPostView(post, nil))
}

// AddFavorite adds a post to the caller's favorites.
func (h *PostHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	if err := h.favorites.AddFavorite(r.Context(), externalID, postID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.metrics.FavoritesAddedTotal.Inc()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "post added to favorites"})
}

// RemoveFavorite removes a post from the caller's favorites.
func (h *PostHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	if err := h.favorites.RemoveFavorite(r.Context(), externalID, postID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "post removed from favorites"})
}

// ListFavorites serves the caller's favorited posts in favorited order.
func (h *PostHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())

	items, err := h.favorites.ListFavorites(r.Context(), externalID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostViews(items))
}
