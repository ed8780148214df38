package model

import (
	"time"

	"github.com/google/uuid"
)

// EmailAnalysis is one analyzed message. Rows are mostly written by the
// external analysis pipeline; the public analyze endpoint appends its own.
type EmailAnalysis struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID    uuid.UUID   `gorm:"type:uuid;not null;index:idx_email_analyses_account_created,priority:1" json:"account_id"`
	AnalysisType string      `gorm:"size:20;not null;default:'full'" json:"analysis_type"`
	ThreatLevel  string      `gorm:"size:20;not null" json:"threat_level"`
	Confidence   float64     `gorm:"not null;default:0" json:"confidence"`
	Categories   StringArray `gorm:"type:text[]" json:"categories"`
	Source       string      `gorm:"size:20;not null;default:'api'" json:"source"`
	CreatedAt    time.Time   `gorm:"index:idx_email_analyses_account_created,priority:2;default:now()" json:"created_at"`
}

func (EmailAnalysis) TableName() string {
	return "email_analyses"
}
