package entities

import (
	"github.com/google/uuid"
)

type Scan struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID       uuid.UUID `gorm:"index" json:"user_id"`
	Filename     string    `json:"filename"`
	ScanType     string    `json:"scan_type"` // "label" or "food"
	QuickVerdict string    `json:"quick_verdict"`
	OcrText      string    `json:"ocr_text" gorm:"type:text"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}
