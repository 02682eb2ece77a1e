package entities

import (
	"github.com/google/uuid"
)

type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name            string    `gorm:"not null;index" json:"name"`
	MeasurementUnit string    `gorm:"not null" json:"measurement_unit"`

	Timestamp
}

type Tag struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Color string    `gorm:"not null" json:"color"` // canonical CSS color name, never raw hex
	Slug  string    `gorm:"uniqueIndex;not null" json:"slug"`

	Timestamp
}
