package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResetLog records each admin balance reset.
type ResetLog struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserName     string          `gorm:"type:text;not null;index" json:"user_name"`
	BalanceReset decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance_reset"`
	Timestamp    time.Time       `gorm:"type:timestamptz;not null;autoCreateTime" json:"timestamp"`
}

func (ResetLog) TableName() string {
	return "reset_logs"
}
