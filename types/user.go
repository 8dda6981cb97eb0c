package types

import "time"

// Role indicates the user's authorization level within the system.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// OAuthProvider tags the identity provider a user signed in with.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "GOOGLE"
)

// User represents a marketplace member.
// It is created on the first successful identity-provider lookup.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"userId" db:"id"`

	// UID is the identity-provider UID the user is linked to.
	UID string `json:"uid" db:"uid"`

	// Name is the user's display name. It is never empty.
	Name string `json:"name" db:"name"`

	// ProfileImgURL points at the user's profile picture.
	ProfileImgURL string `json:"profileImgUrl" db:"profile_img_url"`

	// Location is the administrative district the user browses in.
	Location string `json:"location" db:"location"`

	// Role indicates the user's authorization level.
	Role Role `json:"role" db:"role"`

	// Provider is the identity provider the user signed in with.
	Provider OAuthProvider `json:"provider" db:"provider"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent profile update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// OAuthUser holds the provider-specific profile captured when the user signed up.
// It is a one-to-one shadow of User and is never created on its own.
type OAuthUser struct {
	ID             int64         `json:"id" db:"id"`
	UserID         int64         `json:"userId" db:"user_id"`
	ProviderUserID string        `json:"providerUserId" db:"provider_user_id"`
	Email          string        `json:"email" db:"email"`
	Name           string        `json:"name" db:"name"`
	Picture        string        `json:"picture" db:"picture"`
	Provider       OAuthProvider `json:"provider" db:"provider"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
}

// UserInfoSet is the per-user settings row created alongside the user.
type UserInfoSet struct {
	UserID              int64 `json:"userId" db:"user_id"`
	NotificationEnabled bool  `json:"notificationEnabled" db:"notification_enabled"`
	LikeAlarmEnabled    bool  `json:"likeAlarmEnabled" db:"like_alarm_enabled"`
}

// NewUserInfoSet returns the default settings for a freshly created user.
func NewUserInfoSet(userID int64) UserInfoSet {
	return UserInfoSet{
		UserID:              userID,
		NotificationEnabled: true,
		LikeAlarmEnabled:    true,
	}
}

// UserDTO is the public projection of a user.
type UserDTO struct {
	UserID        int64  `json:"userId"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	ProfileImgURL string `json:"profileImgUrl"`
}

// ToDTO projects the publicly visible user fields.
func (u User) ToDTO() UserDTO {
	return UserDTO{
		UserID:        u.ID,
		Name:          u.Name,
		Location:      u.Location,
		ProfileImgURL: u.ProfileImgURL,
	}
}

// ProviderUser is the profile returned by the identity provider for a UID.
type ProviderUser struct {
	UID        string
	ProviderID string
	Email      string
	Name       string
	PhotoURL   string
}

// AuthToken is a signed session token and the instant it stops being accepted.
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
