package models

// Program is an academic programme such as BCA or BIT.
type Program struct {
	BaseModel
	Name          string `gorm:"not null" json:"name"`
	Slug          string `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string `json:"description"`
	DurationYears int    `gorm:"default:4" json:"duration_years"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`

	Subjects []Subject `gorm:"foreignKey:ProgramID" json:"subjects,omitempty"`
}

// Subject belongs to a programme semester. The code is unique within a
// programme and semester.
type Subject struct {
	BaseModel
	Code        string   `gorm:"not null;uniqueIndex:idx_subject_code_program_semester" json:"code"`
	Name        string   `gorm:"not null" json:"name"`
	ProgramID   string   `gorm:"type:uuid;not null;uniqueIndex:idx_subject_code_program_semester" json:"program_id"`
	Program     *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	Semester    int      `gorm:"not null;uniqueIndex:idx_subject_code_program_semester" json:"semester"`
	CreditHours int      `gorm:"default:3" json:"credit_hours"`
	IsActive    bool     `gorm:"default:true" json:"is_active"`
}
