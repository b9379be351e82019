package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutLog is the terminal audit row for a position consumed during
// settlement. It is written for winners and losers alike, so every position
// that existed in a resolved market has exactly one payout decision on record.
type PayoutLog struct {
	UserName   string          `gorm:"primaryKey;type:text" json:"user_name"`
	Market     string          `gorm:"primaryKey;type:text" json:"market"`
	Token      string          `gorm:"primaryKey;type:text" json:"token"`
	SharesPaid decimal.Decimal `gorm:"type:numeric(14,2);not null;check:shares_paid_non_negative,shares_paid >= 0" json:"shares_paid"`
	IsWinner   bool            `gorm:"not null;default:false" json:"is_winner"`
	Timestamp  time.Time       `gorm:"type:timestamptz;not null;autoCreateTime" json:"timestamp"`
}

func (PayoutLog) TableName() string {
	return "payout_logs"
}
