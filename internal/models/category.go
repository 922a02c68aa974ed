package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category is a data-collection template that schools and sectors fill in.
// Its deadline governs auto-approval eligibility.
type Category struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description *string    `gorm:"type:text" json:"description"`
	TargetScope string     `gorm:"default:all;not null" json:"target_scope"` // schools|sectors|all
	Deadline    *time.Time `gorm:"index" json:"deadline"`
	Status      string     `gorm:"default:active;index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Columns []CategoryColumn `gorm:"foreignKey:CategoryID" json:"columns,omitempty"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// Target scope constants
const (
	ScopeSchools = "schools"
	ScopeSectors = "sectors"
	ScopeAll     = "all"
)

// Category status constants
const (
	CategoryStatusActive   = "active"
	CategoryStatusArchived = "archived"
)

// IsExpired returns true if the category has a deadline in the past
func (c *Category) IsExpired(now time.Time) bool {
	return c.Deadline != nil && c.Deadline.Before(now)
}

// AppliesTo returns true if the category collects data from the given owner type
func (c *Category) AppliesTo(ownerType string) bool {
	switch c.TargetScope {
	case ScopeSchools:
		return ownerType == OwnerTypeSchool
	case ScopeSectors:
		return ownerType == OwnerTypeSector
	default:
		return true
	}
}

// RequiredColumns returns the columns that must be filled before submit
func (c *Category) RequiredColumns() []CategoryColumn {
	var required []CategoryColumn
	for _, col := range c.Columns {
		if col.Required {
			required = append(required, col)
		}
	}
	return required
}

// CategoryColumn is a single field of the collection template. Schema, when
// present, is a JSON Schema document the entry value must satisfy.
type CategoryColumn struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CategoryID uint           `gorm:"not null;index" json:"category_id"`
	Name       string         `gorm:"not null" json:"name"`
	Label      string         `json:"label"`
	Required   bool           `gorm:"default:false" json:"required"`
	Position   int            `gorm:"default:0" json:"position"`
	Schema     datatypes.JSON `json:"schema,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for CategoryColumn
func (CategoryColumn) TableName() string {
	return "category_columns"
}
