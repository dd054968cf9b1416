package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the credential-store aggregate. TokenVersion starts at 1 and only
// ever increments; every refresh token embeds the version current at mint
// time. PendingOTP* hold at most one outstanding OTP challenge.
type User struct {
	ID                  string     `json:"id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	ProfilePictureURL   string     `json:"profile_picture_url"`
	TokenVersion        int64      `json:"-"`
	PendingOTPHash      *string    `json:"-"`
	PendingOTPExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// PublicUser is the safe projection returned to clients. It never carries the
// password hash or OTP fields.
type PublicUser struct {
	ID                string `json:"id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

// AuthClaims is what the session validator attaches to the request context.
type AuthClaims struct {
	UserID string `json:"sub"`
	Role   string `json:"role"`
}
