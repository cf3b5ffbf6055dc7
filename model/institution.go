package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Institution represents a clinical site or school that owns profiles and patients
type Institution struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Profiles []Profile `gorm:"foreignKey:InstitutionID" json:"-"`
	Patients []Patient `gorm:"foreignKey:InstitutionID" json:"-"`
}

// TableName specifies the table name for Institution
func (Institution) TableName() string {
	return "institutions"
}

// BeforeCreate assigns a UUID if one was not provided
func (i *Institution) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
