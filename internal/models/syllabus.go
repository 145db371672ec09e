package models

// Syllabus is a versioned curriculum document for a subject. At most one
// version per subject carries IsCurrent; the service layer maintains that
// invariant when a version is promoted.
type Syllabus struct {
	BaseModel
	SubjectID string   `gorm:"type:uuid;not null;index" json:"subject_id"`
	Subject   *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`

	FileURL string `gorm:"not null" json:"file_url"`
	Version string `gorm:"not null" json:"version"`

	IsCurrent bool `gorm:"default:true" json:"is_current"`
	IsActive  bool `gorm:"default:true" json:"is_active"`

	Description string `json:"description"`

	UploadedByID *string `gorm:"type:uuid" json:"uploaded_by_id"`
	UploadedBy   *User   `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`

	ViewCount     int `gorm:"default:0" json:"view_count"`
	DownloadCount int `gorm:"default:0" json:"download_count"`
}
