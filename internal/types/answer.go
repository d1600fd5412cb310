package types

import (
	"time"

	"github.com/google/uuid"
)

// ChecklistAnswer is a run's recorded response to one question. A row may
// exist with no value: attaching a photo before answering creates the row
// implicitly, and comment-only rows are allowed too.
type ChecklistAnswer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;index" json:"run_id"`
	QuestionID string    `gorm:"column:question_id;not null;index" json:"question_id"`
	Value      string    `gorm:"column:value" json:"value,omitempty"`
	Comment    string    `gorm:"column:comment" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Photos []ChecklistPhoto `gorm:"constraint:OnDelete:CASCADE;foreignKey:AnswerID;references:ID" json:"photos,omitempty"`
}

func (ChecklistAnswer) TableName() string { return "checklist_answers" }
