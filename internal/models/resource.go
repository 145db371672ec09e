package models

import "time"

// Resource submission review states.
const (
	SubmissionStatusPending  = "PENDING"
	SubmissionStatusApproved = "APPROVED"
	SubmissionStatusRejected = "REJECTED"
)

// Category groups learning resources.
type Category struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Order       int    `gorm:"default:0" json:"order"`

	IsDeleted bool `gorm:"default:false" json:"-"`
}

// Tag labels learning resources.
type Tag struct {
	BaseModel
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	IsDeleted bool `gorm:"default:false" json:"-"`
}

// Resource is a curated external learning link. Deletion is soft: rows are
// flagged so favourites can be re-activated later.
type Resource struct {
	BaseModel
	Title       string `gorm:"not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `gorm:"size:500" json:"description"`
	URL         string `gorm:"not null" json:"url"`
	FaviconURL  string `json:"favicon_url"`

	CategoryID string    `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags       []Tag     `gorm:"many2many:resource_tags;" json:"tags,omitempty"`

	Featured  bool `gorm:"default:false;index:idx_resource_featured_priority" json:"featured"`
	Priority  int  `gorm:"default:0;index:idx_resource_featured_priority" json:"priority"`
	ViewCount int  `gorm:"default:0" json:"view_count"`
	IsActive  bool `gorm:"default:true" json:"is_active"`
	IsDeleted bool `gorm:"default:false;index" json:"-"`
}

// ResourceSubmission is a user-suggested resource awaiting review. Approval
// turns it into a Resource.
type ResourceSubmission struct {
	BaseModel
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	URL         string `gorm:"not null" json:"url"`

	CategoryID string    `gorm:"type:uuid;not null" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	SubmittedByID  *string `gorm:"type:uuid" json:"submitted_by_id"`
	SubmittedBy    *User   `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`
	SubmitterEmail string  `json:"submitter_email"`

	Status      string     `gorm:"default:PENDING;index" json:"status"`
	ReviewNotes string     `json:"review_notes"`
	ReviewedBy  *string    `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
}

// Favorite bookmarks a resource for a user. The pair is unique; removing a
// favourite soft-deletes the row so toggling back re-activates it.
type Favorite struct {
	BaseModel
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_resource" json:"user_id"`
	ResourceID string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_resource" json:"resource_id"`
	Resource   *Resource `gorm:"foreignKey:ResourceID" json:"resource,omitempty"`

	IsDeleted bool `gorm:"default:false" json:"-"`
}
