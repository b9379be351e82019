package models

import (
	"gorm.io/datatypes"
)

// SyncHotMarket mirrors the feed's currently tradable market set. It exists
// only so the next sync run can diff additions and removals; rows are deleted
// once a market leaves the feed.
type SyncHotMarket struct {
	ConditionID string         `gorm:"primaryKey;type:text" json:"condition_id"`
	Question    string         `gorm:"type:text" json:"question"`
	Description string         `gorm:"type:text" json:"description"`
	Tokens      datatypes.JSON `gorm:"type:jsonb" json:"tokens"`
}

func (SyncHotMarket) TableName() string {
	return "sync_hot_markets"
}
