package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderFill is one liquidity level consumed by an order. Price and shares are
// stored at intermediate precision; only order totals are truncated to cents.
type OrderFill struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    uint64          `gorm:"not null;index" json:"order_id"`
	FillPrice  decimal.Decimal `gorm:"type:numeric(30,10);not null;check:fill_price_non_negative,fill_price >= 0" json:"fill_price"`
	FillShares decimal.Decimal `gorm:"type:numeric(30,10);not null;check:fill_shares_non_negative,fill_shares >= 0" json:"fill_shares"`
	FilledAt   time.Time       `gorm:"type:timestamptz;autoCreateTime" json:"filled_at"`
}

func (OrderFill) TableName() string {
	return "order_fills"
}
