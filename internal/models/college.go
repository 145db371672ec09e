package models

// College is an institution listed on the portal.
type College struct {
	BaseModel
	Name            string `gorm:"not null;index" json:"name"`
	Address         string `json:"address"`
	Website         string `json:"website"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Description     string `json:"description"`
	EstablishedYear *int   `json:"established_year"`
	LogoURL         string `json:"logo_url"`

	CreatedByID *string `gorm:"type:uuid" json:"created_by_id"`
	UpdatedByID *string `gorm:"type:uuid" json:"updated_by_id"`
}
