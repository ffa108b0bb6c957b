package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ElHadji11/farmconnect-backend/internal/adapter/rest/middleware"
	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/ElHadji11/farmconnect-backend/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// UserService is the user directory surface the handlers depend on.
type UserService interface {
	SyncUser(ctx context.Context, externalID string) (*domain.User, error)
	GetCurrentUser(ctx context.Context, externalID string) (*domain.User, error)
	GetPublicProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, externalID string, patch domain.UserPatch) (*domain.User, error)
	BecomeSeller(ctx context.Context, externalID string, input usecase.BecomeSellerInput) (*domain.User, error)
	GetSellerPosts(ctx context.Context, userID string) ([]*domain.Post, error)
}

// UserHandler serves the /api/users routes.
type UserHandler struct {
	users  UserService
	logger *logger.Logger
}

func NewUserHandler(users UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: log.Named("UserHandler"),
	}
}

// Sync mirrors the caller's external identity into the directory.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())

	user, err := h.users.SyncUser(r.Context(), externalID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

// Me serves the caller's own full profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())

	user, err := h.users.GetCurrentUser(r.Context(), externalID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

// PublicProfile serves a user's public profile; private fields are never
// included.
func (h *UserHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.users.GetPublicProfile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPublicProfileView(user))
}

type updateProfileRequest struct {
	Username         *string `json:"username"`
	FirstName        *string `json:"firstName"`
	LastName         *string `json:"lastName"`
	CompanyName      *string `json:"companyName"`
	ActivityType     *string `json:"activityType"`
	CompanySize      *string `json:"companySize"`
	CompanyCreatedAt *string `json:"companyCreatedAt"`
	Region           *string `json:"region"`
	Bio              *string `json:"bio"`
	AvatarURL        *string `json:"avatarUrl"`
}

// UpdateProfile applies a partial update to the caller's profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	patch := domain.UserPatch{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		CompanySize: req.CompanySize,
		Region:      req.Region,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	}
	if req.ActivityType != nil {
		at := domain.ActivityType(*req.ActivityType)
		patch.ActivityType = &at
	}
	if req.CompanyCreatedAt != nil {
		date, err := parseDate(*req.CompanyCreatedAt)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: companyCreatedAt must be an RFC 3339 date", domain.ErrValidation))
			return
		}
		patch.CompanyCreatedAt = &date
	}

	user, err := h.users.UpdateProfile(r.Context(), externalID, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

type becomeSellerRequest struct {
	CompanyName  string `json:"companyName"`
	ActivityType string `json:"activityType"`
	CompanySize  string `json:"companySize"`
	Region       string `json:"region"`
}

// BecomeSeller upgrades the caller to a seller.
func (h *UserHandler) BecomeSeller(w http.ResponseWriter, r *http.Request) {
	externalID, _ := middleware.ExternalIDFromContext(r.Context())

	var req becomeSellerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.BecomeSeller(r.Context(), externalID, usecase.BecomeSellerInput{
		CompanyName:  req.CompanyName,
		ActivityType: domain.ActivityType(req.ActivityType),
		CompanySize:  req.CompanySize,
		Region:       req.Region,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

// SellerPosts serves a seller's active posts for their public page.
func (h *UserHandler) SellerPosts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	posts, err := h.users.GetSellerPosts(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		views = append(views, toPostView(post, nil))
	}
	writeJSON(w, http.StatusOK, views)
}
