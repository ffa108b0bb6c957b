package mongodb

import (
	"fmt"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// reviewDocument is the embedded storage shape of a review.
type reviewDocument struct {
	UserID    string    `bson:"user_id"`
	Comment   string    `bson:"comment"`
	Rating    int32     `bson:"rating"`
	CreatedAt time.Time `bson:"created_at"`
}

// postDocument is the storage shape of a post in MongoDB.
type postDocument struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"`
	UserID           string              `bson:"user_id"`
	Product          string              `bson:"product"`
	ActivityType     domain.ActivityType `bson:"activity_type"`
	Quantity         float64             `bson:"quantity"`
	Price            float64             `bson:"price"`
	Unit             domain.Unit         `bson:"unit"`
	AvailabilityDate time.Time           `bson:"availability_date"`
	Description      string              `bson:"description,omitempty"`
	Region           string              `bson:"region,omitempty"`
	Photos           []string            `bson:"photos"`
	Status           domain.PostStatus   `bson:"status"`
	Reviews          []reviewDocument    `bson:"reviews"`
	AverageRating    float64             `bson:"average_rating"`
	ReviewCount      int32               `bson:"review_count"`
	Version          int64               `bson:"version"`
	CreatedAt        time.Time           `bson:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at"`
}

// userDocument is the storage shape of a user in MongoDB.
type userDocument struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"`
	ExternalID       string              `bson:"external_id"`
	Email            string              `bson:"email,omitempty"`
	Username         string              `bson:"username,omitempty"`
	FirstName        string              `bson:"first_name,omitempty"`
	LastName         string              `bson:"last_name,omitempty"`
	Role             domain.Role         `bson:"role"`
	PhoneNumber      string              `bson:"phone_number,omitempty"`
	CompanyName      string              `bson:"company_name,omitempty"`
	ActivityType     domain.ActivityType `bson:"activity_type,omitempty"`
	CompanySize      string              `bson:"company_size,omitempty"`
	CompanyCreatedAt time.Time           `bson:"company_created_at,omitempty"`
	Region           string              `bson:"region,omitempty"`
	Bio              string              `bson:"bio,omitempty"`
	AvatarURL        string              `bson:"avatar_url,omitempty"`
	VerifiedSeller   bool                `bson:"verified_seller"`
	Favorites        []string            `bson:"favorites"`
	CreatedAt        time.Time           `bson:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at"`
}

func fromDomainPost(p *domain.Post) (*postDocument, error) {
	if p == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if p.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, fmt.Errorf("fromDomainPost: invalid id %q: %w", p.ID, err)
		}
	}

	reviews := make([]reviewDocument, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, reviewDocument{
			UserID:    r.UserID,
			Comment:   r.Comment,
			Rating:    r.Rating,
			CreatedAt: r.CreatedAt,
		})
	}

	return &postDocument{
		ID:               docID,
		UserID:           p.UserID,
		Product:          p.Product,
		ActivityType:     p.ActivityType,
		Quantity:         p.Quantity,
		Price:            p.Price,
		Unit:             p.Unit,
		AvailabilityDate: p.AvailabilityDate,
		Description:      p.Description,
		Region:           p.Region,
		Photos:           p.Photos,
		Status:           p.Status,
		Reviews:          reviews,
		AverageRating:    p.AverageRating,
		ReviewCount:      p.ReviewCount,
		Version:          p.Version,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}, nil
}

func (d *postDocument) toDomainPost() *domain.Post {
	if d == nil {
		return nil
	}
	reviews := make([]domain.Review, 0, len(d.Reviews))
	for _, r := range d.Reviews {
		reviews = append(reviews, domain.Review{
			UserID:    r.UserID,
			Comment:   r.Comment,
			Rating:    r.Rating,
			CreatedAt: r.CreatedAt,
		})
	}
	return &domain.Post{
		ID:               d.ID.Hex(),
		UserID:           d.UserID,
		Product:          d.Product,
		ActivityType:     d.ActivityType,
		Quantity:         d.Quantity,
		Price:            d.Price,
		Unit:             d.Unit,
		AvailabilityDate: d.AvailabilityDate,
		Description:      d.Description,
		Region:           d.Region,
		Photos:           d.Photos,
		Status:           d.Status,
		Reviews:          reviews,
		AverageRating:    d.AverageRating,
		ReviewCount:      d.ReviewCount,
		Version:          d.Version,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func toDomainPosts(docs []*postDocument) []*domain.Post {
	posts := make([]*domain.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toDomainPost())
	}
	return posts
}

func fromDomainUser(u *domain.User) (*userDocument, error) {
	if u == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if u.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			return nil, fmt.Errorf("fromDomainUser: invalid id %q: %w", u.ID, err)
		}
	}

	return &userDocument{
		ID:               docID,
		ExternalID:       u.ExternalID,
		Email:            u.Email,
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Role:             u.Role,
		PhoneNumber:      u.PhoneNumber,
		CompanyName:      u.CompanyName,
		ActivityType:     u.ActivityType,
		CompanySize:      u.CompanySize,
		CompanyCreatedAt: u.CompanyCreatedAt,
		Region:           u.Region,
		Bio:              u.Bio,
		AvatarURL:        u.AvatarURL,
		VerifiedSeller:   u.VerifiedSeller,
		Favorites:        u.Favorites,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}, nil
}

func (d *userDocument) toDomainUser() *domain.User {
	if d == nil {
		return nil
	}
	favorites := d.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return &domain.User{
		ID:               d.ID.Hex(),
		ExternalID:       d.ExternalID,
		Email:            d.Email,
		Username:         d.Username,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Role:             d.Role,
		PhoneNumber:      d.PhoneNumber,
		CompanyName:      d.CompanyName,
		ActivityType:     d.ActivityType,
		CompanySize:      d.CompanySize,
		CompanyCreatedAt: d.CompanyCreatedAt,
		Region:           d.Region,
		Bio:              d.Bio,
		AvatarURL:        d.AvatarURL,
		VerifiedSeller:   d.VerifiedSeller,
		Favorites:        favorites,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
