package rest

import (
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
)

// ownerView is the owner summary embedded in post responses. Only public
// seller fields are exposed.
type ownerView struct {
	ID           string `json:"id"`
	CompanyName  string `json:"companyName,omitempty"`
	Region       string `json:"region,omitempty"`
	ActivityType string `json:"activityType,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
}

type reviewView struct {
	UserID    string    `json:"userId"`
	Comment   string    `json:"comment"`
	Rating    int32     `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

type postView struct {
	ID               string       `json:"id"`
	UserID           string       `json:"userId"`
	Product          string       `json:"product"`
	ActivityType     string       `json:"activityType"`
	Quantity         float64      `json:"quantity"`
	Price            float64      `json:"price"`
	Unit             string       `json:"unit"`
	AvailabilityDate time.Time    `json:"availabilityDate"`
	Description      string       `json:"description,omitempty"`
	Region           string       `json:"region,omitempty"`
	Photos           []string     `json:"photos"`
	Status           string       `json:"status"`
	Reviews          []reviewView `json:"reviews"`
	AverageRating    float64      `json:"averageRating"`
	ReviewCount      int32        `json:"reviewCount"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	Owner            *ownerView   `json:"owner,omitempty"`
}

// userView is the caller's own profile, private fields included.
type userView struct {
	ID               string     `json:"id"`
	Email            string     `json:"email,omitempty"`
	Username         string     `json:"username,omitempty"`
	FirstName        string     `json:"firstName,omitempty"`
	LastName         string     `json:"lastName,omitempty"`
	Role             string     `json:"role"`
	PhoneNumber      string     `json:"phoneNumber,omitempty"`
	CompanyName      string     `json:"companyName,omitempty"`
	ActivityType     string     `json:"activityType,omitempty"`
	CompanySize      string     `json:"companySize,omitempty"`
	CompanyCreatedAt *time.Time `json:"companyCreatedAt,omitempty"`
	Region           string     `json:"region,omitempty"`
	Bio              string     `json:"bio,omitempty"`
	AvatarURL        string     `json:"avatarUrl,omitempty"`
	VerifiedSeller   bool       `json:"verifiedSeller"`
	Favorites        []string   `json:"favorites"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// publicProfileView is a user's profile as shown to other users. Email and
// phone number stay private.
type publicProfileView struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	CompanyName  string    `json:"companyName,omitempty"`
	ActivityType string    `json:"activityType,omitempty"`
	Region       string    `json:"region,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toOwnerView(u *domain.User) *ownerView {
	if u == nil {
		return nil
	}
	return &ownerView{
		ID:           u.ID,
		CompanyName:  u.CompanyName,
		Region:       u.Region,
		ActivityType: string(u.ActivityType),
		AvatarURL:    u.AvatarURL,
	}
}

func toPostView(post *domain.Post, owner *domain.User) postView {
	reviews := make([]reviewView, 0, len(post.Reviews))
	for _, r := range post.Reviews {
		reviews = append(reviews, reviewView{
			UserID:    r.UserID,
			Comment:   r.Comment,
			Rating:    r.Rating,
			CreatedAt: r.CreatedAt,
		})
	}
	photos := post.Photos
	if photos == nil {
		photos = []string{}
	}
	return postView{
		ID:               post.ID,
		UserID:           post.UserID,
		Product:          post.Product,
		ActivityType:     string(post.ActivityType),
		Quantity:         post.Quantity,
		Price:            post.Price,
		Unit:             string(post.Unit),
		AvailabilityDate: post.AvailabilityDate,
		Description:      post.Description,
		Region:           post.Region,
		Photos:           photos,
		Status:           string(post.Status),
		Reviews:          reviews,
		AverageRating:    post.AverageRating,
		ReviewCount:      post.ReviewCount,
		CreatedAt:        post.CreatedAt,
		UpdatedAt:        post.UpdatedAt,
		Owner:            toOwnerView(owner),
	}
}

func toPostViews(items []*domain.PostWithOwner) []postView {
	views := make([]postView, 0, len(items))
	for _, item := range items {
		views = append(views, toPostView(item.Post, item.Owner))
	}
	return views
}

func toUserView(u *domain.User) userView {
	favorites := u.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	view := userView{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           string(u.Role),
		PhoneNumber:    u.PhoneNumber,
		CompanyName:    u.CompanyName,
		ActivityType:   string(u.ActivityType),
		CompanySize:    u.CompanySize,
		Region:         u.Region,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		VerifiedSeller: u.VerifiedSeller,
		Favorites:      favorites,
		CreatedAt:      u.CreatedAt,
	}
	if !u.CompanyCreatedAt.IsZero() {
		t := u.CompanyCreatedAt
		view.CompanyCreatedAt = &t
	}
	return view
}

func toPublicProfileView(u *domain.User) publicProfileView {
	return publicProfileView{
		ID:           u.ID,
		Username:     u.Username,
		CompanyName:  u.CompanyName,
		ActivityType: string(u.ActivityType),
		Region:       u.Region,
		Bio:          u.Bio,
		AvatarURL:    u.AvatarURL,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}
