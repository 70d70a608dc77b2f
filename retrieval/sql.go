package retrieval

import (
	"context"

	"gorm.io/gorm"

	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
)

// Item is one stored payload row.
type Item struct {
	ID      string `gorm:"primaryKey;size:255"`
	Payload []byte
}

// ManifestEntry is one row of the persisted entity list, ordered by position.
type ManifestEntry struct {
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	ItemID   string `gorm:"size:255"`
}

// SQL serves entities from a relational database through GORM. Any dialect
// GORM supports works; tests use SQLite.
type SQL struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQL builds a SQL retrieval over an open GORM handle, migrating the
// item and manifest tables.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&Item{}, &ManifestEntry{}); err != nil {
		return nil, errors.RetrievalFailed("migrate", err)
	}
	return &SQL{
		db:  db,
		log: logger.WithComponent("retrieval.sql"),
	}, nil
}

// Put stores one item payload. Provided for seeding and ingestion jobs.
func (s *SQL) Put(ctx context.Context, id string, payload []byte) error {
	item := Item{ID: id, Payload: payload}
	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return errors.RetrievalFailed("put", err).WithDetail("entity_id", id)
	}
	return nil
}

// Fetch reads one item payload by id.
func (s *SQL) Fetch(ctx context.Context, id string) ([]byte, error) {
	var item Item
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, errors.RetrievalFailed("fetch", err).WithDetail("entity_id", id)
	}
	return item.Payload, nil
}

// List enumerates item ids in primary-key order.
func (s *SQL) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Item{}).Order("id").Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.RetrievalFailed("list", err)
	}
	return ids, nil
}

// IsCached reports whether any manifest rows exist.
func (s *SQL) IsCached() bool {
	var count int64
	if err := s.db.Model(&ManifestEntry{}).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// LoadFromCache rebuilds entities from the manifest rows in position order.
func (s *SQL) LoadFromCache(ctx context.Context, f entity.Factory) ([]entity.Entity, error) {
	var rows []ManifestEntry
	err := s.db.WithContext(ctx).Order("position").Find(&rows).Error
	if err != nil {
		return nil, errors.CacheFailed("load", err)
	}

	entities := make([]entity.Entity, 0, len(rows))
	for _, row := range rows {
		e, err := f(ctx, row.ItemID, s)
		if err != nil {
			return nil, errors.CacheFailed("load", err).WithDetail("entity_id", row.ItemID)
		}
		entities = append(entities, e)
	}
	s.log.Info("loaded entities from cache", logger.Fields(logger.FieldCount, len(entities)))
	return entities, nil
}

// Cache replaces the manifest rows with the given entity ids.
func (s *SQL) Cache(ctx context.Context, entities []entity.Entity) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ManifestEntry{}).Error; err != nil {
			return err
		}
		for i, e := range entities {
			row := ManifestEntry{Position: i, ItemID: e.UniqueID()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.CacheFailed("store", err)
	}
	s.log.Debug("cached entity ids", logger.Fields(logger.FieldCount, len(entities)))
	return nil
}

var _ Retrieval = (*SQL)(nil)
