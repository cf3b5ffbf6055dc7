package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient is a de-identified patient record scoped to an institution.
// The same reference id may recur across institutions but not within one.
type Patient struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReferenceID      string     `gorm:"type:text;not null;uniqueIndex:idx_patients_ref_institution" json:"reference_id"`
	AgeGroup         string     `gorm:"type:text" json:"age_group,omitempty"`
	Gender           string     `gorm:"type:text" json:"gender,omitempty"`
	ClinicalCategory string     `gorm:"type:text" json:"clinical_category,omitempty"`
	InstitutionID    *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_patients_ref_institution" json:"institution_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relationships
	Institution *Institution `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
}

// TableName specifies the table name for Patient
func (Patient) TableName() string {
	return "patients"
}

// BeforeCreate assigns a UUID if one was not provided
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
