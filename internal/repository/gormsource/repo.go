// Package gormsource pages through SQL-backed documents for bulk indexing.
package gormsource

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// Model is a gorm model whose pointer is a searchable document.
type Model[T any] interface {
	*T
	document.Document
}

// Source counts and pages the rows of one model table. Each page runs in its own
// read transaction ordered by primary key.
type Source[T any, PT Model[T]] struct {
	db *gorm.DB
}

// New creates a source for model T.
func New[T any, PT Model[T]](db *gorm.DB) *Source[T, PT] {
	return &Source[T, PT]{db: db}
}

// Count returns the number of rows.
func (s *Source[T, PT]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// Open begins the page transaction.
func (s *Source[T, PT]) Open(ctx context.Context) (dombulk.Session, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &session[T, PT]{tx: tx}, nil
}

type session[T any, PT Model[T]] struct {
	tx *gorm.DB
}

// Fetch loads rows offset..offset+limit in primary key order.
func (s *session[T, PT]) Fetch(ctx context.Context, offset, limit int) ([]document.Document, error) {
	var rows []T
	err := s.tx.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch rows at %d: %w", offset, err)
	}

	out := make([]document.Document, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

// Close ends the read transaction.
func (s *session[T, PT]) Close() error {
	if err := s.tx.Rollback().Error; err != nil {
		return fmt.Errorf("end transaction: %w", err)
	}
	return nil
}
