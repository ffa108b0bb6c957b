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

const postCollectionName = "posts"

// PostRepository implements domain.PostRepository using MongoDB.
type PostRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewPostRepository creates the repository and ensures its indexes.
func NewPostRepository(db *mongo.Database, log *logger.Logger) (*PostRepository, error) {
	collection := db.Collection(postCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "activity_type", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for posts collection", zap.Error(err))
		// Indexes may already exist or be created out of band; not fatal.
	} else {
		log.Info("Successfully ensured indexes for posts collection")
	}

	return &PostRepository{
		collection: collection,
		logger:     log.Named("PostRepository"),
	}, nil
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	r.logger.Info("Creating post in DB", zap.String("user_id", post.UserID), zap.String("product", post.Product))

	doc, err := fromDomainPost(post)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Reviews == nil {
		doc.Reviews = []reviewDocument{}
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert post into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}

	post.ID = doc.ID.Hex()
	post.CreatedAt = doc.CreatedAt
	post.UpdatedAt = doc.UpdatedAt
	post.Version = doc.Version
	return nil
}

// FindByID returns the post regardless of status.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot reference anything; report absence.
		return nil, domain.ErrNotFound
	}

	var doc postDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get post by id from DB", zap.Error(err), zap.String("post_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainPost(), nil
}

// FindActiveByID returns ErrNotFound for absent and archived posts alike.
func (r *PostRepository) FindActiveByID(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc postDocument
	filter := bson.M{"_id": oid, "status": domain.StatusActive}
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get active post by id from DB", zap.Error(err), zap.String("post_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainPost(), nil
}

// FindActiveByIDs returns the active subset of the given ids.
func (r *PostRepository) FindActiveByIDs(ctx context.Context, ids []string) ([]*domain.Post, error) {
	if len(ids) == 0 {
		return []*domain.Post{}, nil
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	filter := bson.M{"_id": bson.M{"$in": oids}, "status": domain.StatusActive}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to find posts by ids from DB", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	return toDomainPosts(docs), nil
}

// Update persists the whole post guarded by its version. The review
// sequence and the derived aggregate fields always commit together here,
// which is what keeps count and average consistent under concurrency.
func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	r.logger.Debug("Updating post in DB", zap.String("post_id", post.ID), zap.Int64("version", post.Version))

	doc, err := fromDomainPost(post)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return errors.New("cannot update post without id")
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"product":           doc.Product,
			"quantity":          doc.Quantity,
			"price":             doc.Price,
			"unit":              doc.Unit,
			"availability_date": doc.AvailabilityDate,
			"description":       doc.Description,
			"region":            doc.Region,
			"status":            doc.Status,
			"reviews":           doc.Reviews,
			"average_rating":    doc.AverageRating,
			"review_count":      doc.ReviewCount,
			"version":           doc.Version + 1,
			"updated_at":        now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID, "version": doc.Version}, update)
	if err != nil {
		r.logger.Error("Failed to update post in DB", zap.Error(err), zap.String("post_id", post.ID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("Post version mismatch on update", zap.String("post_id", post.ID), zap.Int64("version", post.Version))
		return domain.ErrOptimisticLock
	}

	post.Version++
	post.UpdatedAt = now
	return nil
}

// Delete removes the post permanently.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("Failed to delete post from DB", zap.Error(err), zap.String("post_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("Post deleted from DB", zap.String("post_id", id))
	return nil
}

// FindActive returns active posts matching the filter, newest first.
func (r *PostRepository) FindActive(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	query := bson.M{"status": domain.StatusActive}

	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: filter.Query, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"product": pattern},
			bson.M{"description": pattern},
		}
	}
	if filter.ActivityType != "" {
		query["activity_type"] = filter.ActivityType
	}
	if filter.Region != "" {
		query["region"] = filter.Region
	}
	if filter.MinPrice > 0 || filter.MaxPrice > 0 {
		price := bson.M{}
		if filter.MinPrice > 0 {
			price["$gte"] = filter.MinPrice
		}
		if filter.MaxPrice > 0 {
			price["$lte"] = filter.MaxPrice
		}
		query["price"] = price
	}
	switch filter.Availability {
	case domain.AvailabilityNow:
		query["availability_date"] = bson.M{"$lte": time.Now().UTC()}
	case domain.AvailabilityFuture:
		query["availability_date"] = bson.M{"$gt": time.Now().UTC()}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		r.logger.Error("Failed to find posts by filter from DB", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	return toDomainPosts(docs), nil
}

// FindActiveByOwner returns the owner's active posts, newest first.
func (r *PostRepository) FindActiveByOwner(ctx context.Context, userID string) ([]*domain.Post, error) {
	filter := bson.M{"user_id": userID, "status": domain.StatusActive}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		r.logger.Error("Failed to find posts by owner from DB", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	return toDomainPosts(docs), nil
}
