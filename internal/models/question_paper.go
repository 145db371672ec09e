package models

import "time"

// Question paper verification states.
const (
	PaperStatusPending  = "PENDING"
	PaperStatusVerified = "VERIFIED"
	PaperStatusRejected = "REJECTED"
)

// QuestionPaper is an exam paper for a subject. Only one paper may exist per
// subject, year and semester.
type QuestionPaper struct {
	BaseModel
	SubjectID string   `gorm:"type:uuid;not null;uniqueIndex:idx_paper_subject_year_semester" json:"subject_id"`
	Subject   *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Year      int      `gorm:"not null;uniqueIndex:idx_paper_subject_year_semester;index:idx_paper_year_semester" json:"year"`
	Semester  int      `gorm:"not null;uniqueIndex:idx_paper_subject_year_semester;index:idx_paper_year_semester" json:"semester"`

	FileURL string `gorm:"not null" json:"file_url"`

	UploadedByID *string `gorm:"type:uuid" json:"uploaded_by_id"`
	UploadedBy   *User   `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
	VerifiedByID *string `gorm:"type:uuid" json:"verified_by_id"`
	VerifiedBy   *User   `gorm:"foreignKey:VerifiedByID" json:"verified_by,omitempty"`

	Status       string     `gorm:"default:PENDING;index" json:"status"`
	VerifiedDate *time.Time `json:"verified_date"`

	ViewCount     int `gorm:"default:0" json:"view_count"`
	DownloadCount int `gorm:"default:0" json:"download_count"`
}

// IsVerified reports whether the paper has passed review.
func (q *QuestionPaper) IsVerified() bool {
	return q.Status == PaperStatusVerified
}
