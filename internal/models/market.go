package models

// Market is the permanent record of every market ever observed on the feed.
// Rows are never deleted; markets that leave the feed are flagged untradable.
type Market struct {
	ConditionID string `gorm:"primaryKey;type:text" json:"condition_id"`
	IsTradable  bool   `gorm:"not null;default:true" json:"is_tradable"`
}

func (Market) TableName() string {
	return "markets"
}
