package model

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	ExternalID string   `gorm:"size:64;index" json:"-"`
	Username   string   `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email      string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password   string   `gorm:"size:100" json:"-"`
	Role       UserRole `gorm:"size:20;not null;default:'student'" json:"role"`
	Approved   bool     `gorm:"default:false" json:"approved"`
	ProfilePic string   `gorm:"size:255" json:"profilePic"`
}

func (User) TableName() string {
	return "users"
}
