package models

import "time"

// Todo priorities.
const (
	TodoPriorityLow    = "low"
	TodoPriorityMedium = "medium"
	TodoPriorityHigh   = "high"
)

// Todo is a personal task owned by a single user.
type Todo struct {
	BaseModel
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Priority    string     `gorm:"not null" json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Category    string     `json:"category"`
	IsCompleted bool       `gorm:"default:false" json:"is_completed"`

	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"-"`

	SubTasks []SubTask     `gorm:"foreignKey:TodoID" json:"subtasks,omitempty"`
	Comments []TodoComment `gorm:"foreignKey:TodoID" json:"comments,omitempty"`
}

// SubTask is a checklist item under a todo.
type SubTask struct {
	BaseModel
	TodoID      string `gorm:"type:uuid;not null;index" json:"todo_id"`
	Title       string `gorm:"not null" json:"title"`
	IsCompleted bool   `gorm:"default:false" json:"is_completed"`
}

// TodoComment is a comment on a todo. The author's username is cached so the
// comment stays attributable if the account is removed.
type TodoComment struct {
	BaseModel
	TodoID   string `gorm:"type:uuid;not null;index" json:"todo_id"`
	Content  string `gorm:"not null" json:"content"`
	UserID   string `gorm:"type:uuid;not null" json:"user_id"`
	Username string `json:"username"`
}
