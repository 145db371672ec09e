package models

// Note is study material uploaded for a subject.
type Note struct {
	BaseModel
	Title       string   `gorm:"not null" json:"title"`
	SubjectID   string   `gorm:"type:uuid;not null;index" json:"subject_id"`
	Subject     *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Semester    int      `gorm:"not null" json:"semester"`
	Description string   `json:"description"`
	FileURL     string   `gorm:"not null" json:"file_url"`

	UploadedByID string `gorm:"type:uuid;not null" json:"uploaded_by_id"`
	UploadedBy   *User  `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`
}
