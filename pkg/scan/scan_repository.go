package scan

import (
	"context"
	"nutriscan/domain"
	"nutriscan/entities"

	"gorm.io/gorm"
)

type (
	ScanRepository interface {
		Append(ctx context.Context, scan *entities.Scan) error
		List(ctx context.Context, userID string, limit int) ([]*entities.Scan, error)
	}

	scanRepository struct {
		db *gorm.DB
	}
)

func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepository{db: db}
}

// Append inserts the scan and trims anything past the newest HistoryLimit
// records for that user. Both steps run in one transaction so concurrent
// appends for the same user cannot drop each other's record.
func (r *scanRepository) Append(ctx context.Context, scan *entities.Scan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scan).Error; err != nil {
			return err
		}

		keep := tx.Model(&entities.Scan{}).
			Select("id").
			Where("user_id = ?", scan.UserID).
			Order("created_at desc, id desc").
			Limit(domain.HistoryLimit)

		return tx.
			Where("user_id = ? AND id NOT IN (?)", scan.UserID, keep).
			Delete(&entities.Scan{}).Error
	})
}

func (r *scanRepository) List(ctx context.Context, userID string, limit int) ([]*entities.Scan, error) {
	if limit <= 0 || limit > domain.HistoryLimit {
		limit = domain.HistoryLimit
	}

	var scans []*entities.Scan
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&scans).Error; err != nil {
		return nil, err
	}

	return scans, nil
}
