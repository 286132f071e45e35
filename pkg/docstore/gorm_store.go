package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"learnly-chat-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormStore keeps every collection in the single jsonb-backed documents table.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetCollection(ctx context.Context, name string) ([]Document, error) {
	var rows []*model.Document
	if err := s.db.WithContext(ctx).Where("collection = ?", name).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get collection %s: %w", name, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		fields := make(map[string]interface{})
		if len(row.Fields) > 0 {
			if err := json.Unmarshal(row.Fields, &fields); err != nil {
				return nil, fmt.Errorf("decode document %s/%s: %w", name, row.Id, err)
			}
		}
		docs = append(docs, Document{Id: row.Id.String(), Fields: fields})
	}
	return docs, nil
}

func (s *GormStore) CreateDocument(ctx context.Context, name string, fields map[string]interface{}) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document for %s: %w", name, err)
	}

	row := &model.Document{
		Id:         uuid.New(),
		Collection: name,
		Fields:     datatypes.JSON(payload),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("create document in %s: %w", name, err)
	}
	return row.Id.String(), nil
}

func (s *GormStore) UpdateDocument(ctx context.Context, name, id string, fields map[string]interface{}) error {
	docId, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode patch for %s/%s: %w", name, id, err)
	}

	// jsonb || merges top-level keys, which matches partial-update semantics.
	res := s.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("collection = ? AND id = ?", name, docId).
		Update("fields", gorm.Expr("fields || ?::jsonb", string(patch)))
	if res.Error != nil {
		return fmt.Errorf("update document %s/%s: %w", name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteDocument(ctx context.Context, name, id string) error {
	docId, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", name, docId).
		Delete(&model.Document{})
	if res.Error != nil {
		return fmt.Errorf("delete document %s/%s: %w", name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
