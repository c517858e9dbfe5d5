package scope

import "gorm.io/gorm"

// CatalogOrder is the stable display order for menu listings.
func CatalogOrder(db *gorm.DB) *gorm.DB {
	return db.Order("category ASC, id ASC")
}

// WithEmbedding restricts to items that are searchable by vector.
func WithEmbedding(db *gorm.DB) *gorm.DB {
	return db.Where("embedding IS NOT NULL")
}
