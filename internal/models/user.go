package models

import (
	"github.com/shopspring/decimal"
)

// DefaultBalance is the paper-money stake every new user starts with.
var DefaultBalance = decimal.RequireFromString("10000.00")

type User struct {
	Name    string          `gorm:"primaryKey;type:text" json:"name"`
	Balance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:10000.00;check:balance_non_negative,balance >= 0" json:"balance"`
}

func (User) TableName() string {
	return "users"
}
