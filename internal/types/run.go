package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Run status is monotonic: draft -> submitted, one way.
const (
	RunStatusDraft     = "draft"
	RunStatusSubmitted = "submitted"
)

type ChecklistRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID     string         `gorm:"column:template_id;not null;index" json:"template_id"`
	Status         string         `gorm:"column:status;not null;default:'draft'" json:"status"`
	PRef           string         `gorm:"column:p_ref;not null" json:"p_ref"`
	SiteName       string         `gorm:"column:site_name;not null" json:"site_name"`
	Address        string         `gorm:"column:address" json:"address,omitempty"`
	EngineerName   string         `gorm:"column:engineer_name;not null" json:"engineer_name"`
	ContractorName string         `gorm:"column:contractor_name" json:"contractor_name,omitempty"`
	SupplierName   string         `gorm:"column:supplier_name" json:"supplier_name,omitempty"`
	VisitDate      time.Time      `gorm:"column:visit_date;not null" json:"visit_date"`
	TechBands      datatypes.JSON `gorm:"column:tech_bands;not null" json:"tech_bands"`
	APCount        int            `gorm:"column:ap_count;not null" json:"ap_count"`

	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`

	Answers []ChecklistAnswer `gorm:"constraint:OnDelete:CASCADE;foreignKey:RunID;references:ID" json:"answers,omitempty"`
}

func (ChecklistRun) TableName() string { return "checklist_runs" }

func (r *ChecklistRun) IsDraft() bool { return r.Status == RunStatusDraft }
