package searchable

import (
	"gorm.io/gorm"

	"github.com/kailas-cloud/searchable/internal/repository/gormsource"
)

// GormSource returns a Source that pages the table of gorm model T in primary key
// order. *T must implement Document.
func GormSource[T any, PT gormsource.Model[T]](db *gorm.DB) Source {
	return gormsource.New[T, PT](db)
}
