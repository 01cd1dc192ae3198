package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Coordinates go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Doctor is a bookable practitioner with a fixed location.
type Doctor struct {
	ID        uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	Specialty string          `json:"specialty" gorm:"size:100;not null;index"`
	Latitude  decimal.Decimal `json:"latitude" gorm:"type:decimal(10,8);not null"`
	Longitude decimal.Decimal `json:"longitude" gorm:"type:decimal(11,8);not null"`
	Address   string          `json:"address" gorm:"size:255"`
	Phone     string          `json:"phone" gorm:"size:30"`
	CreatedAt time.Time       `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Coordinates returns the stored location as float degrees.
func (d *Doctor) Coordinates() (lat, lon float64) {
	return d.Latitude.InexactFloat64(), d.Longitude.InexactFloat64()
}
