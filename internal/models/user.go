package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User describes a portal account. Accounts are created only through the
// OTP-verified registration flow, so IsVerified is set at creation time.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`

	IsActive   bool `gorm:"default:true" json:"is_active"`
	IsVerified bool `gorm:"default:false" json:"is_verified"`
	IsAdmin    bool `gorm:"default:false" json:"is_admin"`

	PhoneNumber string `json:"phone_number"`
	College     string `json:"college"`
	Semester    *int   `json:"semester"`
	Bio         string `json:"bio"`

	FacebookURL string `json:"facebook_url"`
	TwitterURL  string `json:"twitter_url"`
	LinkedinURL string `json:"linkedin_url"`
	GithubURL   string `json:"github_url"`

	Interests datatypes.JSON `json:"interests"`
	Skills    datatypes.JSON `json:"skills"`

	Sessions []Session `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"last_login_ip"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
