package models

import (
	"github.com/shopspring/decimal"
)

// UserPosition holds a user's share count in one outcome token. Rows are
// deleted outright during settlement; partial sells only decrement shares.
type UserPosition struct {
	UserName string          `gorm:"primaryKey;type:text" json:"user_name"`
	Market   string          `gorm:"primaryKey;type:text" json:"market"`
	Token    string          `gorm:"primaryKey;type:text" json:"token"`
	Shares   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;check:user_shares_non_negative,shares >= 0" json:"shares"`

	UserRef *User `gorm:"foreignKey:UserName;references:Name" json:"-"`
}

func (UserPosition) TableName() string {
	return "user_positions"
}
