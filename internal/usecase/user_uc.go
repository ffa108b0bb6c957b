package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"go.uber.org/zap"
)

const SubjectUserBecameSeller = "user.became_seller"

// BecomeSellerInput carries the company fields required to upgrade a user
// to a seller.
type BecomeSellerInput struct {
	CompanyName  string
	ActivityType domain.ActivityType
	CompanySize  string
	Region       string
}

// UserUsecase manages the internal user directory mirrored from the
// external identity provider, and the user-to-seller upgrade.
type UserUsecase struct {
	users    domain.UserRepository
	posts    domain.PostRepository
	identity domain.IdentityProvider
	events   domain.EventPublisher
	logger   *logger.Logger
}

func NewUserUsecase(users domain.UserRepository, posts domain.PostRepository, identity domain.IdentityProvider, events domain.EventPublisher, log *logger.Logger) *UserUsecase {
	return &UserUsecase{
		users:    users,
		posts:    posts,
		identity: identity,
		events:   events,
		logger:   log.Named("UserUsecase"),
	}
}

// SyncUser mirrors the external identity into the directory. First call
// creates the record; later calls refresh the identity-owned fields and
// leave role, favorites and company data untouched. Idempotent.
func (uc *UserUsecase) SyncUser(ctx context.Context, externalID string) (*domain.User, error) {
	profile, err := uc.identity.FetchProfile(ctx, externalID)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.UpsertByExternalID(ctx, &domain.User{
		ExternalID: profile.ExternalID,
		Email:      profile.Email,
		Username:   profile.Username,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		AvatarURL:  profile.AvatarURL,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("User synced from identity provider", zap.String("external_id", externalID), zap.String("user_id", user.ID))
	return user, nil
}

// GetCurrentUser returns the caller's own full profile.
func (uc *UserUsecase) GetCurrentUser(ctx context.Context, externalID string) (*domain.User, error) {
	return uc.users.FindByExternalID(ctx, externalID)
}

// GetPublicProfile returns a user's profile for public display. The
// transport layer strips the private fields.
func (uc *UserUsecase) GetPublicProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.FindByID(ctx, userID)
}

// UpdateProfile applies a partial profile update to the caller's record.
// Identity-owned fields are not expressible in the patch.
func (uc *UserUsecase) UpdateProfile(ctx context.Context, externalID string, patch domain.UserPatch) (*domain.User, error) {
	user, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		user.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.CompanyName != nil {
		name := strings.TrimSpace(*patch.CompanyName)
		if name == "" {
			return nil, fmt.Errorf("%w: company name cannot be empty", domain.ErrValidation)
		}
		user.CompanyName = name
	}
	if patch.ActivityType != nil {
		if !patch.ActivityType.IsValid() {
			return nil, fmt.Errorf("%w: unknown activity type %q", domain.ErrValidation, *patch.ActivityType)
		}
		user.ActivityType = *patch.ActivityType
	}
	if patch.CompanySize != nil {
		user.CompanySize = *patch.CompanySize
	}
	if patch.CompanyCreatedAt != nil {
		user.CompanyCreatedAt = patch.CompanyCreatedAt.UTC()
	}
	if patch.Region != nil {
		user.Region = *patch.Region
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BecomeSeller upgrades the caller to a seller. The identity provider must
// report a verified phone number; the upgrade is one-way and a second
// attempt conflicts.
func (uc *UserUsecase) BecomeSeller(ctx context.Context, externalID string, input BecomeSellerInput) (*domain.User, error) {
	user, err := uc.users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if user.IsSeller() {
		return nil, fmt.Errorf("%w: already a seller", domain.ErrConflict)
	}

	if strings.TrimSpace(input.CompanyName) == "" {
		return nil, fmt.Errorf("%w: company name is required", domain.ErrValidation)
	}
	if !input.ActivityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", domain.ErrValidation, input.ActivityType)
	}
	if strings.TrimSpace(input.CompanySize) == "" {
		return nil, fmt.Errorf("%w: company size is required", domain.ErrValidation)
	}
	if strings.TrimSpace(input.Region) == "" {
		return nil, fmt.Errorf("%w: region is required", domain.ErrValidation)
	}

	profile, err := uc.identity.FetchProfile(ctx, externalID)
	if err != nil {
		return nil, err
	}
	phone, verified := profile.VerifiedPhone()
	if !verified {
		return nil, fmt.Errorf("%w: a verified phone number is required to sell", domain.ErrValidation)
	}

	user.Role = domain.RoleSeller
	user.CompanyName = strings.TrimSpace(input.CompanyName)
	user.ActivityType = input.ActivityType
	user.CompanySize = input.CompanySize
	user.Region = input.Region
	user.PhoneNumber = phone
	user.VerifiedSeller = true

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}

	uc.publish(ctx, SubjectUserBecameSeller, map[string]string{
		"user_id":      user.ID,
		"company_name": user.CompanyName,
	})
	uc.logger.Info("User upgraded to seller", zap.String("user_id", user.ID), zap.String("company_name", user.CompanyName))
	return user, nil
}

// GetSellerPosts returns a seller's active posts for their public page.
// A user who is not a seller has no public page.
func (uc *UserUsecase) GetSellerPosts(ctx context.Context, userID string) ([]*domain.Post, error) {
	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsSeller() {
		return nil, fmt.Errorf("%w: user %s is not a seller", domain.ErrNotFound, userID)
	}
	return uc.posts.FindActiveByOwner(ctx, userID)
}

func (uc *UserUsecase) publish(ctx context.Context, subject string, payload interface{}) {
	if err := uc.events.Publish(ctx, subject, payload); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
