package domain

import "time"

// Role is the closed set of user roles. Transitions only ever go
// user -> seller, through the become-seller operation.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// User is the internal profile record mapped from an external identity.
// Favorites are stored as a set of post ids directly on the user so that
// add/remove stay single-document writes.
type User struct {
	ID               string
	ExternalID       string // identity-provider id, unique
	Email            string
	Username         string
	FirstName        string
	LastName         string
	Role             Role
	PhoneNumber      string
	CompanyName      string
	ActivityType     ActivityType
	CompanySize      string
	CompanyCreatedAt time.Time
	Region           string
	Bio              string
	AvatarURL        string
	VerifiedSeller   bool
	Favorites        []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsSeller reports whether the user may create posts.
func (u *User) IsSeller() bool {
	return u.Role == RoleSeller
}

// HasFavorite reports set membership of a post id in the favorites.
// Linear scan is fine for the expected small cardinality.
func (u *User) HasFavorite(postID string) bool {
	for _, id := range u.Favorites {
		if id == postID {
			return true
		}
	}
	return false
}

// UserPatch carries a partial profile update. Identity, email, role and
// phone number are not representable here; the transport layer cannot
// smuggle them in.
type UserPatch struct {
	Username         *string
	FirstName        *string
	LastName         *string
	CompanyName      *string
	ActivityType     *ActivityType
	CompanySize      *string
	CompanyCreatedAt *time.Time
	Region           *string
	Bio              *string
	AvatarURL        *string
}
