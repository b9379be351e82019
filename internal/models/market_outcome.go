package models

// MarketOutcome is one tradable token of a market. IsWinner flips false→true
// exactly once, when resolution marks the winning token; it never reverts.
type MarketOutcome struct {
	Market      string  `gorm:"primaryKey;type:text" json:"market"`
	Token       string  `gorm:"primaryKey;type:text" json:"token"`
	OutcomeText *string `gorm:"type:text" json:"outcome_text"`
	IsWinner    bool    `gorm:"not null;default:false" json:"is_winner"`

	MarketRef *Market `gorm:"foreignKey:Market;references:ConditionID" json:"-"`
}

func (MarketOutcome) TableName() string {
	return "market_outcomes"
}
