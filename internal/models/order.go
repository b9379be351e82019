package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
)

type OrderStatus string

const (
	OrderStatusFilled OrderStatus = "FILLED"
)

// Order is the append-only record of one fully resolved trade request.
// Every order is computed and settled within its own request; there are no
// resting orders.
type Order struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserName   string          `gorm:"type:text;not null;index" json:"user_name"`
	Market     string          `gorm:"type:text;not null;index" json:"market"`
	Token      string          `gorm:"type:text;not null" json:"token"`
	Side       OrderSide       `gorm:"type:varchar(10);not null" json:"side"`
	OrderType  OrderType       `gorm:"type:varchar(10);not null" json:"order_type"`
	Status     OrderStatus     `gorm:"type:varchar(10);not null" json:"status"`
	AmountUSDC decimal.Decimal `gorm:"column:amount_usdc;type:numeric(14,2);not null;default:0;check:amount_usdc_non_negative,amount_usdc >= 0" json:"amount_usdc"`
	Shares     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;check:order_shares_non_negative,shares >= 0" json:"shares"`
	CreatedAt  time.Time       `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`

	Fills []OrderFill `gorm:"foreignKey:OrderID" json:"fills,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}
