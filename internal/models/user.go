package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents an account that can act on submissions
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword string    `gorm:"column:encrypted_password;not null" json:"-"`
	FullName          string    `json:"full_name"`
	Role              string    `gorm:"not null;index" json:"role"`
	OwnerType         *string   `gorm:"index" json:"owner_type"` // school|sector for owner accounts
	OwnerID           *uint     `gorm:"index" json:"owner_id"`   // the school/sector this account submits for
	Status            string    `gorm:"default:active" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Associations
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants. The set is closed: every permission check maps one of
// these roles against an owner type, see services.PermittedActions.
const (
	RoleSchool      = "school"      // submits data for a single school
	RoleSectorAdmin = "sectoradmin" // submits sector data, reviews school submissions
	RoleRegionAdmin = "regionadmin" // reviews sector submissions
	RoleAdmin       = "admin"       // full access
	RoleSystem      = "system"      // deadline auto-approval only, never a login
)

// User status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// SetPassword hashes and stores the password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.EncryptedPassword = string(hash)
	return nil
}

// CheckPassword verifies a password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.EncryptedPassword), []byte(password)) == nil
}

// IsActive returns true if the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsReviewer returns true for roles that can approve, reject or return
func (u *User) IsReviewer() bool {
	return u.Role == RoleSectorAdmin || u.Role == RoleRegionAdmin || u.Role == RoleAdmin
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID        uint    `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Role      string  `json:"role"`
	OwnerType *string `json:"owner_type"`
	OwnerID   *uint   `json:"owner_id"`
	Status    string  `json:"status"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		OwnerType: u.OwnerType,
		OwnerID:   u.OwnerID,
		Status:    u.Status,
	}
}
