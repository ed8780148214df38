package model

import (
	"time"

	"github.com/google/uuid"
)

// ThreatStatDaily is a pre-aggregated per-day threat counter
type ThreatStatDaily struct {
	AccountID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"account_id"`
	StatDate    time.Time `gorm:"type:date;primaryKey" json:"stat_date"`
	ThreatLevel string    `gorm:"size:20;primaryKey" json:"threat_level"`
	Category    string    `gorm:"size:50;primaryKey" json:"category"`
	Count       int64     `gorm:"not null;default:0" json:"count"`
}

func (ThreatStatDaily) TableName() string {
	return "threat_stats_daily"
}

// ThreatStatMonthly is keyed by the first day of the month
type ThreatStatMonthly struct {
	AccountID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"account_id"`
	StatMonth   time.Time `gorm:"type:date;primaryKey" json:"stat_month"`
	ThreatLevel string    `gorm:"size:20;primaryKey" json:"threat_level"`
	Category    string    `gorm:"size:50;primaryKey" json:"category"`
	Count       int64     `gorm:"not null;default:0" json:"count"`
}

func (ThreatStatMonthly) TableName() string {
	return "threat_stats_monthly"
}
