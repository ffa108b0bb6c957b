package domain

import "time"

// PostStatus represents the lifecycle state of a post.
type PostStatus string

const (
	StatusActive   PostStatus = "active"
	StatusArchived PostStatus = "archived"
)

// ActivityType is the fixed taxonomy of seller activities. It is set at
// post creation and never updated afterwards.
type ActivityType string

const (
	ActivityAgriculture ActivityType = "agriculture"
	ActivityBreeder     ActivityType = "breeder"
	ActivityProcessor   ActivityType = "processor"
)

// IsValid checks the ActivityType against the closed enum.
func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityAgriculture, ActivityBreeder, ActivityProcessor:
		return true
	}
	return false
}

// Unit is the fixed set of quantity units a post may be priced in.
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitTonne Unit = "tonne"
	UnitPiece Unit = "unit"
	UnitSack  Unit = "sack"
	UnitLitre Unit = "litre"
	UnitMl    Unit = "ml"
	UnitGram  Unit = "g"
)

// IsValid checks the Unit against the closed enum.
func (u Unit) IsValid() bool {
	switch u {
	case UnitKg, UnitTonne, UnitPiece, UnitSack, UnitLitre, UnitMl, UnitGram:
		return true
	}
	return false
}

// Review is a bounded, immutable rating+comment appended to a post.
// Reviews are embedded in their post and not independently addressable.
type Review struct {
	UserID    string
	Comment   string
	Rating    int32
	CreatedAt time.Time
}

// Post is a marketplace listing created by a seller.
type Post struct {
	ID               string
	UserID           string // owner, immutable after creation
	Product          string
	ActivityType     ActivityType // immutable after creation
	Quantity         float64
	Price            float64
	Unit             Unit
	AvailabilityDate time.Time
	Description      string
	Region           string
	Photos           []string // 1-3 URLs, fixed at creation
	Status           PostStatus
	Reviews          []Review
	AverageRating    float64
	ReviewCount      int32
	Version          int64 // optimistic concurrency
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasReviewBy reports whether the given user already reviewed this post.
func (p *Post) HasReviewBy(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// RecomputeRating recalculates AverageRating and ReviewCount from the
// review sequence. Both fields are zero when no reviews exist.
func (p *Post) RecomputeRating() {
	p.ReviewCount = int32(len(p.Reviews))
	if p.ReviewCount == 0 {
		p.AverageRating = 0
		return
	}
	var sum int64
	for _, r := range p.Reviews {
		sum += int64(r.Rating)
	}
	p.AverageRating = float64(sum) / float64(p.ReviewCount)
}

// PostPatch carries a partial update to a post. Owner and activity type are
// deliberately not representable here: whatever a caller sends for them is
// stripped before the patch exists.
type PostPatch struct {
	Product          *string
	Quantity         *float64
	Price            *float64
	Unit             *Unit
	AvailabilityDate *time.Time
	Description      *string
	Region           *string
}

// Availability filter values for searching by availability date.
const (
	AvailabilityNow    = "now"
	AvailabilityFuture = "future"
)

// Projection caps.
const (
	SearchPageSize   = 20
	HomepagePageSize = 10
)

// PostFilter holds search parameters over active posts.
type PostFilter struct {
	Query        string
	ActivityType ActivityType
	Region       string
	MinPrice     float64
	MaxPrice     float64
	Availability string
	Limit        int64
}

// PostWithOwner pairs a post with its owner record for read projections.
// The transport layer decides which owner fields are exposed.
type PostWithOwner struct {
	Post  *Post
	Owner *User
}
