package types

import (
	"time"

	"github.com/google/uuid"
)

// ChecklistPhoto is exclusively owned by its answer: deleting the answer
// deletes the photos. FilePath is the locally readable copy the renderer and
// delete path use; URL is what clients see.
type ChecklistPhoto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AnswerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"answer_id"`
	URL          string    `gorm:"column:url;not null" json:"url"`
	FilePath     string    `gorm:"column:file_path;not null" json:"-"`
	ThumbnailURL string    `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
	Caption      string    `gorm:"column:caption" json:"caption,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ChecklistPhoto) TableName() string { return "checklist_photos" }
