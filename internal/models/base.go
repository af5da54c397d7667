package models

import (
	"time"

	"wealthbook/internal/uuid"

	"gorm.io/gorm"
)

// Base contains the common columns of catalogue tables.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// Series contains the columns of append-only and derived time-series tables.
// These rows are never soft deleted.
type Series struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *Series) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}

// All returns every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&Instrument{},
		&Portfolio{},
		&Holding{},
		&Transaction{},
		&Price{},
		&ManualPrice{},
		&FxRate{},
		&PortfolioValueDaily{},
		&WealthCategory{},
		&WealthValue{},
		&TotalWealthSnapshot{},
	}
}
