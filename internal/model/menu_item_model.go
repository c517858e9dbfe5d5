package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// MenuItem is the catalog row. The embedding is computed from the English
// name, description and tags by the indexer and queried with pgvector cosine
// distance.
type MenuItem struct {
	Id            uint                        `gorm:"primaryKey;autoIncrement"`
	Name          string                      `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description   string                      `gorm:"type:text"`
	Price         float64                     `gorm:"not null"`
	Category      string                      `gorm:"type:varchar(100);index"`
	Tags          datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	ImageURL      string                      `gorm:"type:varchar(512)"`
	NameDe        *string                     `gorm:"type:varchar(255)"`
	NameCs        *string                     `gorm:"type:varchar(255)"`
	DescriptionDe *string                     `gorm:"type:text"`
	DescriptionCs *string                     `gorm:"type:text"`
	Embedding     *pgvector.Vector            `gorm:"type:vector(768)"` // nomic-embed-text dimension
	CreatedAt     time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}
