package models

import (
	"time"
)

type MarketChangeType string

const (
	MarketChangeAdded   MarketChangeType = "added"
	MarketChangeDeleted MarketChangeType = "deleted"
)

// MarketChangeLog is the append-only audit trail of markets entering and
// leaving the tracked set.
type MarketChangeLog struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ConditionID string           `gorm:"type:text;not null;index" json:"condition_id"`
	ChangeType  MarketChangeType `gorm:"type:varchar(10);not null" json:"change_type"`
	Timestamp   time.Time        `gorm:"type:timestamptz;not null;autoCreateTime" json:"timestamp"`
}

func (MarketChangeLog) TableName() string {
	return "market_change_logs"
}
