package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const userCollectionName = "users"

// UserRepository implements domain.UserRepository using MongoDB.
// Favorites live as an array on the user document, so membership-guarded
// add/remove are single-document atomic writes.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewUserRepository creates the repository and ensures its indexes.
func NewUserRepository(db *mongo.Database, log *logger.Logger) (*UserRepository, error) {
	collection := db.Collection(userCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "company_name", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for users collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for users collection")
	}

	return &UserRepository{
		collection: collection,
		logger:     log.Named("UserRepository"),
	}, nil
}

// FindByID loads a user by internal id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get user by id from DB", zap.Error(err), zap.String("user_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainUser(), nil
}

// FindByIDs loads multiple users by internal id.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		r.logger.Error("Failed to find users by ids from DB", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toDomainUser())
	}
	return users, nil
}

// FindByExternalID loads a user by identity-provider id.
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get user by external id from DB", zap.Error(err), zap.String("external_id", externalID))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainUser(), nil
}

// FindByCompanyName loads a user by unique company name.
func (r *UserRepository) FindByCompanyName(ctx context.Context, companyName string) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"company_name": companyName}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get user by company name from DB", zap.Error(err), zap.String("company_name", companyName))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainUser(), nil
}

// Update persists mutable profile fields. The favorites set is NOT written
// here; it only moves through AddFavorite/RemoveFavorite.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	doc, err := fromDomainUser(user)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return errors.New("cannot update user without id")
	}

	now := time.Now().UTC()
	set := bson.M{
		"username":           doc.Username,
		"first_name":         doc.FirstName,
		"last_name":          doc.LastName,
		"role":               doc.Role,
		"phone_number":       doc.PhoneNumber,
		"activity_type":      doc.ActivityType,
		"company_size":       doc.CompanySize,
		"company_created_at": doc.CompanyCreatedAt,
		"region":             doc.Region,
		"bio":                doc.Bio,
		"avatar_url":         doc.AvatarURL,
		"verified_seller":    doc.VerifiedSeller,
		"updated_at":         now,
	}
	update := bson.M{"$set": set}
	// The company_name index is unique+sparse; an empty string is still an
	// indexed value, so writing "" would make two company-less users
	// collide. Keep the field absent instead.
	if doc.CompanyName != "" {
		set["company_name"] = doc.CompanyName
	} else {
		update["$unset"] = bson.M{"company_name": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: company name already taken", domain.ErrConflict)
		}
		r.logger.Error("Failed to update user in DB", zap.Error(err), zap.String("user_id", user.ID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	user.UpdatedAt = now
	return nil
}

// UpsertByExternalID creates the user on first sync and refreshes the
// identity-mirrored fields on later ones. Role and favorites are only set
// on insert so a re-sync can never demote a seller or drop bookmarks.
func (r *UserRepository) UpsertByExternalID(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.logger.Info("Upserting user by external id", zap.String("external_id", user.ExternalID))

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"email":      user.Email,
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"avatar_url": user.AvatarURL,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"external_id":     user.ExternalID,
			"role":            domain.RoleUser,
			"favorites":       []string{},
			"verified_seller": false,
			"created_at":      now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc userDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"external_id": user.ExternalID}, update, opts).Decode(&doc); err != nil {
		r.logger.Error("Failed to upsert user in DB", zap.Error(err), zap.String("external_id", user.ExternalID))
		return nil, fmt.Errorf("db upsert failed: %w", err)
	}
	return doc.toDomainUser(), nil
}

// AddFavorite adds postID to the favorite set in one guarded write. The
// filter excludes users that already hold the id, so a zero match means
// either a duplicate or a user deleted since the caller resolved it; a
// follow-up existence check tells the two apart.
func (r *UserRepository) AddFavorite(ctx context.Context, userID, postID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}

	filter := bson.M{"_id": oid, "favorites": bson.M{"$ne": postID}}
	update := bson.M{
		"$addToSet": bson.M{"favorites": postID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to add favorite in DB", zap.Error(err), zap.String("user_id", userID), zap.String("post_id", postID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
		if countErr != nil {
			r.logger.Error("Failed to check user existence in DB", zap.Error(countErr), zap.String("user_id", userID))
			return fmt.Errorf("db count failed: %w", countErr)
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: post already in favorites", domain.ErrConflict)
	}
	return nil
}

// RemoveFavorite removes postID from the favorite set in one guarded
// write. A zero match means the user is absent or the id was never a
// favorite; both are absence to the caller.
func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, postID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}

	filter := bson.M{"_id": oid, "favorites": postID}
	update := bson.M{
		"$pull": bson.M{"favorites": postID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to remove favorite in DB", zap.Error(err), zap.String("user_id", userID), zap.String("post_id", postID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: post not found in favorites", domain.ErrNotFound)
	}
	return nil
}
